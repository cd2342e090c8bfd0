package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func allAnswers(correct int) map[string]int {
	answers := make(map[string]int, len(placementQuestions))
	for i, q := range placementQuestions {
		if i < correct {
			answers[q.ID] = q.answer
		} else {
			answers[q.ID] = (q.answer + 1) % len(q.Options)
		}
	}
	return answers
}

func TestScorePlacement(t *testing.T) {
	total := len(placementQuestions)

	tests := []struct {
		name      string
		answers   map[string]int
		wantRight int
		wantLevel int
	}{
		{name: "no answers", answers: nil, wantRight: 0, wantLevel: 1},
		{name: "all wrong", answers: allAnswers(0), wantRight: 0, wantLevel: 1},
		{name: "half right", answers: allAnswers(6), wantRight: 6, wantLevel: 6},
		{name: "all right", answers: allAnswers(total), wantRight: total, wantLevel: 12},
		{name: "unknown questions ignored", answers: map[string]int{"q99": 0, "q1": 1}, wantRight: 1, wantLevel: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScorePlacement(tt.answers)
			assert.Equal(t, tt.wantRight, got.Correct)
			assert.Equal(t, total, got.Total)
			assert.Equal(t, tt.wantLevel, got.Level)
		})
	}
}

func TestPlacementQuestionsHideAnswers(t *testing.T) {
	qs := PlacementQuestions()
	assert.Len(t, qs, len(placementQuestions))

	qs[0].Options[0] = "changed"
	assert.NotEqual(t, "changed", placementQuestions[0].Options[0])
}

func TestValidatePlacement(t *testing.T) {
	assert.NoError(t, ValidatePlacement(PlacementSubmission{Answers: map[string]int{"q1": 3}}))
	assert.Error(t, ValidatePlacement(PlacementSubmission{Answers: map[string]int{"q1": 4}}))
	assert.Error(t, ValidatePlacement(PlacementSubmission{Answers: map[string]int{"q2": -1}}))
}
