package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nuvatw/nuva-club/core"
)

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Level       int       `json:"level"`
	CoverURL    string    `json:"cover_url"`
	Premium     bool      `json:"premium"`
	Position    int       `json:"position"`
	LessonCount int       `json:"lesson_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Lesson struct {
	ID              string    `json:"id"`
	CourseID        string    `json:"course_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	VideoURL        string    `json:"video_url,omitempty"`
	DurationSeconds int       `json:"duration_seconds"`
	Position        int       `json:"position"`
	CreatedAt       time.Time `json:"created_at"`
	Completed       bool      `json:"completed"`
}

// LessonProgress is the completion state of one lesson for one member.
type LessonProgress struct {
	UserID      string
	LessonID    string
	CourseID    string
	Completed   bool
	CompletedAt time.Time
	UpdatedAt   time.Time
}

type Progress struct {
	CourseID         string `json:"course_id"`
	CompletedLessons int    `json:"completed_lessons"`
	TotalLessons     int    `json:"total_lessons"`
	Percent          int    `json:"percent"`
}

func newProgress(courseID string, completed, total int) Progress {
	p := Progress{CourseID: courseID, CompletedLessons: completed, TotalLessons: total}
	if total > 0 {
		p.Percent = completed * 100 / total
	}
	return p
}

// CourseDetail is a course as seen by one member.
type CourseDetail struct {
	Course
	Locked   bool     `json:"locked"` // premium course without paid access
	Lessons  []Lesson `json:"lessons"`
	Progress Progress `json:"progress"`
}

type CourseProgress struct {
	Course   Course   `json:"course"`
	Progress Progress `json:"progress"`
}

type NewCourse struct {
	Title       string `json:"title" validate:"required,notblank,max=120"`
	Description string `json:"description" validate:"max=5000"`
	Level       int    `json:"level" validate:"required,min=1,max=12"`
	Premium     bool   `json:"premium"`
	Position    int    `json:"position" validate:"min=0"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

type UpdateCourse struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=120"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Level       *int    `json:"level" validate:"omitempty,min=1,max=12"`
	Premium     *bool   `json:"premium"`
	Position    *int    `json:"position" validate:"omitempty,min=0"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	if uc.Title != nil {
		title := core.CleanString(*uc.Title)
		uc.Title = &title
	}
	return validate.Struct(uc)
}

type NewLesson struct {
	Title           string `json:"title" validate:"required,notblank,max=120"`
	Description     string `json:"description" validate:"max=5000"`
	VideoURL        string `json:"video_url" validate:"omitempty,url"`
	DurationSeconds int    `json:"duration_seconds" validate:"min=0"`
	Position        int    `json:"position" validate:"min=0"`
}

func (nl *NewLesson) Validate(validate *validator.Validate) error {
	nl.Title = core.CleanString(nl.Title)
	nl.Description = core.CleanString(nl.Description)
	nl.VideoURL = core.CleanString(nl.VideoURL)
	return validate.Struct(nl)
}

type UpdateLesson struct {
	Title           *string `json:"title" validate:"omitempty,notblank,max=120"`
	Description     *string `json:"description" validate:"omitempty,max=5000"`
	VideoURL        *string `json:"video_url" validate:"omitempty,url"`
	DurationSeconds *int    `json:"duration_seconds" validate:"omitempty,min=0"`
	Position        *int    `json:"position" validate:"omitempty,min=0"`
}

func (ul *UpdateLesson) Validate(validate *validator.Validate) error {
	if ul.Title != nil {
		title := core.CleanString(*ul.Title)
		ul.Title = &title
	}
	return validate.Struct(ul)
}
