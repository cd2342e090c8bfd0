package course

import "github.com/nuvatw/nuva-club/core"

// Question is a placement exam question as sent to members. Answers stay server side.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

type placementQuestion struct {
	Question
	answer int // index in Options
}

var placementQuestions = []placementQuestion{
	{Question{ID: "q1", Prompt: "What does AI stand for?", Options: []string{
		"Automated Internet", "Artificial Intelligence", "Applied Integration", "Analog Interface",
	}}, 1},
	{Question{ID: "q2", Prompt: "Which of these is a large language model product?", Options: []string{
		"A spreadsheet", "A chat assistant", "A web browser", "A photo viewer",
	}}, 1},
	{Question{ID: "q3", Prompt: "What is a prompt?", Options: []string{
		"The instruction you give to a model", "A kind of GPU", "A file format", "A payment plan",
	}}, 0},
	{Question{ID: "q4", Prompt: "Why can a model give a confident but wrong answer?", Options: []string{
		"It is connected to the wrong server", "It predicts likely text rather than checking facts", "The prompt was too short", "It ran out of memory",
	}}, 1},
	{Question{ID: "q5", Prompt: "Which prompt is likely to give the most useful result?", Options: []string{
		"Write something", "Help", "Summarize this article in 3 bullet points for a busy manager", "Article",
	}}, 2},
	{Question{ID: "q6", Prompt: "What should you avoid pasting into a public AI tool?", Options: []string{
		"A recipe", "Customer personal data", "A public news article", "A poem you wrote",
	}}, 1},
	{Question{ID: "q7", Prompt: "What is a token for a language model?", Options: []string{
		"A login password", "A chunk of text the model reads and writes", "A cryptocurrency", "A saved chat",
	}}, 1},
	{Question{ID: "q8", Prompt: "Giving a model a few worked examples in the prompt is called:", Options: []string{
		"Few-shot prompting", "Fine-tuning", "Overfitting", "Caching",
	}}, 0},
	{Question{ID: "q9", Prompt: "What does retrieval augmented generation add to a model?", Options: []string{
		"More GPUs", "Relevant documents fetched at question time", "A new user interface", "Faster typing",
	}}, 1},
	{Question{ID: "q10", Prompt: "Which task best fits an AI agent that can call tools?", Options: []string{
		"Looking up an order status and emailing the customer", "Storing files", "Drawing a straight line", "Counting to ten",
	}}, 0},
	{Question{ID: "q11", Prompt: "A model's context window limits:", Options: []string{
		"How many users can log in", "How much text it can consider at once", "The screen resolution", "The number of languages",
	}}, 1},
	{Question{ID: "q12", Prompt: "The best way to check an AI generated claim is to:", Options: []string{
		"Ask the same model again", "Trust it if it sounds confident", "Verify it against a reliable source", "Make the prompt longer",
	}}, 2},
}

// PlacementQuestions returns the exam without answers.
func PlacementQuestions() []Question {
	qs := make([]Question, 0, len(placementQuestions))
	for _, q := range placementQuestions {
		opts := make([]string, len(q.Options))
		copy(opts, q.Options)
		qs = append(qs, Question{ID: q.ID, Prompt: q.Prompt, Options: opts})
	}
	return qs
}

type PlacementSubmission struct {
	Answers map[string]int `json:"answers" validate:"required"` // question ID -> option index
}

type PlacementResult struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
	Level   int `json:"level"`
}

// ScorePlacement grades answers and maps the score to a level from 1 to 12.
// Unknown question IDs are ignored and unanswered questions count as wrong.
func ScorePlacement(answers map[string]int) PlacementResult {
	res := PlacementResult{Total: len(placementQuestions)}
	for _, q := range placementQuestions {
		if ans, ok := answers[q.ID]; ok && ans == q.answer {
			res.Correct++
		}
	}
	res.Level = 1 + res.Correct*11/res.Total
	return res
}

// ValidatePlacement rejects out of range option indexes.
func ValidatePlacement(sub PlacementSubmission) error {
	for _, q := range placementQuestions {
		if ans, ok := sub.Answers[q.ID]; ok && (ans < 0 || ans >= len(q.Options)) {
			return core.NewFieldError("answers."+q.ID, "invalid option")
		}
	}
	return nil
}
