package coaching

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/course"
	"github.com/nuvatw/nuva-club/core/notification"
	"github.com/nuvatw/nuva-club/core/user"
)

var (
	ErrNotFound         = core.NewNotFoundError("coach assignment")
	ErrCoachNotFound    = core.NewNotFoundError("coach")
	ErrStudentNotFound  = core.NewNotFoundError("student")
	ErrNotCoach         = errors.New("the coach must be a nunu")
	ErrNotStudent       = errors.New("the student must be a vava")
	ErrSelfCoaching     = errors.New("a member cannot coach themselves")
	ErrNotAssignedCoach = core.NewPermissionError("only the assigned coach or a guardian can leave feedback")
)

type Assignment struct {
	Student    core.UserRef `json:"student"`
	Coach      core.UserRef `json:"coach"`
	AssignedAt time.Time    `json:"assigned_at"`
}

type Feedback struct {
	ID        string       `json:"id"`
	Coach     core.UserRef `json:"coach"`
	Student   core.UserRef `json:"student"`
	LessonID  string       `json:"lesson_id,omitempty"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
}

type StudentProgress struct {
	Student    core.UserRef            `json:"student"`
	AssignedAt time.Time               `json:"assigned_at"`
	Courses    []course.CourseProgress `json:"courses"`
}

type Assign struct {
	StudentID string `json:"student_id" validate:"required"`
	CoachID   string `json:"coach_id" validate:"required"`
}

type NewFeedback struct {
	LessonID string `json:"lesson_id"`
	Content  string `json:"content" validate:"required,notblank,max=5000"`
}

func (nf *NewFeedback) Validate(validate *validator.Validate) error {
	nf.Content = core.CleanString(nf.Content)
	nf.LessonID = core.CleanString(nf.LessonID)
	return validate.Struct(nf)
}

type FeedbackFilter struct {
	StudentID string
	CoachID   string
	Limit     int
}

type (
	Repository interface {
		// SaveAssignment upserts on the student: a student has at most one coach.
		SaveAssignment(ctx context.Context, studentID, coachID string, at time.Time) error
		DeleteAssignment(ctx context.Context, studentID string) error
		GetAssignment(ctx context.Context, studentID string) (Assignment, error)
		QueryAssignments(ctx context.Context, coachID string) ([]Assignment, error)

		CreateFeedback(ctx context.Context, f Feedback) (Feedback, error)
		// QueryFeedback lists feedback newest first.
		QueryFeedback(ctx context.Context, filter FeedbackFilter) ([]Feedback, error)
	}

	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	ProgressLister interface {
		ProgressOf(ctx context.Context, userID string) ([]course.CourseProgress, error)
	}

	LessonGetter interface {
		GetLesson(ctx context.Context, id string) (course.Lesson, error)
	}

	CourseReader interface {
		ProgressLister
		LessonGetter
	}

	Notifier interface {
		Notify(ctx context.Context, nns ...notification.NewNotification) error
	}

	Service struct {
		repo     Repository
		users    UserGetter
		courses  CourseReader
		notifier Notifier
		logger   core.Logger
	}
)

func NewService(repo Repository, users UserGetter, courses CourseReader, notifier Notifier, logger core.Logger) *Service {
	return &Service{repo: repo, users: users, courses: courses, notifier: notifier, logger: logger}
}

func (svc *Service) notify(ctx context.Context, nn notification.NewNotification) {
	if err := svc.notifier.Notify(ctx, nn); err != nil {
		svc.logger.Error("sending notification", err)
	}
}

// Assign makes coachID the coach of studentID, replacing any previous coach.
func (svc *Service) Assign(ctx context.Context, a Assign) (Assignment, error) {
	if a.StudentID == a.CoachID {
		return Assignment{}, core.NewValidationError(ErrSelfCoaching)
	}
	student, err := svc.users.GetByID(ctx, a.StudentID)
	if err != nil {
		if core.IsNotFound(err) {
			return Assignment{}, ErrStudentNotFound
		}
		return Assignment{}, err
	}
	coach, err := svc.users.GetByID(ctx, a.CoachID)
	if err != nil {
		if core.IsNotFound(err) {
			return Assignment{}, ErrCoachNotFound
		}
		return Assignment{}, err
	}
	if !coach.IsNunu() {
		return Assignment{}, core.NewValidationError(ErrNotCoach, core.FieldError{Field: "coach_id", Error: ErrNotCoach.Error()})
	}
	if !student.IsVava() {
		return Assignment{}, core.NewValidationError(ErrNotStudent, core.FieldError{Field: "student_id", Error: ErrNotStudent.Error()})
	}

	if err = svc.repo.SaveAssignment(ctx, student.ID, coach.ID, core.NowFunc()); err != nil {
		return Assignment{}, errors.Wrap(err, "saving assignment")
	}
	svc.notify(ctx, notification.NewNotification{
		UserID: student.ID,
		Kind:   notification.KindCoachAssigned,
		Title:  coach.DisplayName() + " is now your coach",
		Link:   "/vava",
	})
	return svc.repo.GetAssignment(ctx, student.ID)
}

func (svc *Service) Unassign(ctx context.Context, studentID string) error {
	if _, err := svc.repo.GetAssignment(ctx, studentID); err != nil {
		return err
	}
	return svc.repo.DeleteAssignment(ctx, studentID)
}

// CoachOf returns the assignment of a student, ErrNotFound when they have no coach.
func (svc *Service) CoachOf(ctx context.Context, studentID string) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, studentID)
}

// Students lists the students of a coach with their course progress.
func (svc *Service) Students(ctx context.Context, coachID string) ([]StudentProgress, error) {
	as, err := svc.repo.QueryAssignments(ctx, coachID)
	if err != nil {
		return nil, err
	}
	out := make([]StudentProgress, 0, len(as))
	for _, a := range as {
		progress, err := svc.courses.ProgressOf(ctx, a.Student.ID)
		if err != nil {
			return nil, errors.Wrap(err, "listing student progress")
		}
		out = append(out, StudentProgress{Student: a.Student, AssignedAt: a.AssignedAt, Courses: progress})
	}
	return out, nil
}

// LeaveFeedback records feedback from author to a student. author must be their coach or a guardian.
func (svc *Service) LeaveFeedback(ctx context.Context, author user.User, studentID string, nf NewFeedback) (Feedback, error) {
	a, err := svc.repo.GetAssignment(ctx, studentID)
	switch {
	case err == nil:
		if a.Coach.ID != author.ID && !author.IsGuardian() {
			return Feedback{}, ErrNotAssignedCoach
		}
	case core.IsNotFound(err):
		if !author.IsGuardian() {
			return Feedback{}, ErrNotAssignedCoach
		}
		if _, err = svc.users.GetByID(ctx, studentID); err != nil {
			if core.IsNotFound(err) {
				return Feedback{}, ErrStudentNotFound
			}
			return Feedback{}, err
		}
	default:
		return Feedback{}, err
	}

	if nf.LessonID != "" {
		if _, err = svc.courses.GetLesson(ctx, nf.LessonID); err != nil {
			return Feedback{}, err
		}
	}

	f, err := svc.repo.CreateFeedback(ctx, Feedback{
		Coach:     core.UserRef{ID: author.ID},
		Student:   core.UserRef{ID: studentID},
		LessonID:  nf.LessonID,
		Content:   nf.Content,
		CreatedAt: core.NowFunc(),
	})
	if err != nil {
		return Feedback{}, err
	}
	svc.notify(ctx, notification.NewNotification{
		UserID: studentID,
		Kind:   notification.KindFeedback,
		Title:  author.DisplayName() + " left you feedback",
		Body:   f.Content,
		Link:   "/vava/feedback",
	})
	return f, nil
}

func (svc *Service) FeedbackFor(ctx context.Context, studentID string, limit int) ([]Feedback, error) {
	return svc.repo.QueryFeedback(ctx, FeedbackFilter{StudentID: studentID, Limit: limit})
}

func (svc *Service) FeedbackGiven(ctx context.Context, coachID string, limit int) ([]Feedback, error) {
	return svc.repo.QueryFeedback(ctx, FeedbackFilter{CoachID: coachID, Limit: limit})
}
