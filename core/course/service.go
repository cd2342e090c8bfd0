package course

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/user"
)

var (
	ErrNotFound       = core.NewNotFoundError("course")
	ErrLessonNotFound = core.NewNotFoundError("lesson")
	ErrPremium        = core.NewPermissionError("this course requires a paid plan")

	catalogTTL = 10 * time.Minute
)

type (
	Repository interface {
		// QueryCourses lists courses ordered by level then position; level 0 means every level.
		QueryCourses(ctx context.Context, level int) ([]Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		CreateCourse(ctx context.Context, c Course) (Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error

		QueryLessons(ctx context.Context, courseID string) ([]Lesson, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		CreateLesson(ctx context.Context, l Lesson) (Lesson, error)
		UpdateLesson(ctx context.Context, l Lesson) (Lesson, error)
		DeleteLesson(ctx context.Context, id string) error

		// SaveProgress upserts on the (user, lesson) pair.
		SaveProgress(ctx context.Context, p LessonProgress) error
		// QueryProgress lists a member's progress rows; courseID "" means every course.
		QueryProgress(ctx context.Context, userID, courseID string) ([]LessonProgress, error)
	}

	// AccessChecker tells whether a member's plan opens premium courses.
	AccessChecker interface {
		HasPaidAccess(ctx context.Context, userID string) (bool, error)
	}

	Service struct {
		repo   Repository
		cache  core.Cache
		access AccessChecker
	}
)

func NewService(repo Repository, cache core.Cache, access AccessChecker) *Service {
	return &Service{repo: repo, cache: cache, access: access}
}

func catalogKey(level int) string {
	return fmt.Sprintf("courses:level:%d", level)
}

func (svc *Service) invalidateCatalog(ctx context.Context) {
	if svc.cache == nil {
		return
	}
	keys := make([]string, 0, user.MaxLevel+1)
	for level := 0; level <= user.MaxLevel; level++ {
		keys = append(keys, catalogKey(level))
	}
	_ = svc.cache.Delete(ctx, keys...)
}

// List returns the catalog, optionally for one level. Results are cached until the next write.
func (svc *Service) List(ctx context.Context, level int) ([]Course, error) {
	return core.Remember(ctx, svc.cache, catalogKey(level), catalogTTL, func() ([]Course, error) {
		return svc.repo.QueryCourses(ctx, level)
	})
}

func (svc *Service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) GetLesson(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLesson(ctx, id)
}

// CanAccess reports whether usr may open the lessons of c.
func (svc *Service) CanAccess(ctx context.Context, usr user.User, c Course) (bool, error) {
	if !c.Premium || usr.IsGuardian() || usr.IsNunu() {
		return true, nil
	}
	ok, err := svc.access.HasPaidAccess(ctx, usr.ID)
	return ok, errors.Wrap(err, "checking paid access")
}

// Detail returns a course with its lessons and usr's progress.
// Video links are hidden when the course is locked for usr.
func (svc *Service) Detail(ctx context.Context, usr user.User, id string) (CourseDetail, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return CourseDetail{}, err
	}
	canAccess, err := svc.CanAccess(ctx, usr, c)
	if err != nil {
		return CourseDetail{}, err
	}
	lessons, err := svc.repo.QueryLessons(ctx, c.ID)
	if err != nil {
		return CourseDetail{}, err
	}
	rows, err := svc.repo.QueryProgress(ctx, usr.ID, c.ID)
	if err != nil {
		return CourseDetail{}, err
	}

	done := make(map[string]bool, len(rows))
	for _, p := range rows {
		done[p.LessonID] = p.Completed
	}
	var completed int
	for i := range lessons {
		lessons[i].Completed = done[lessons[i].ID]
		if lessons[i].Completed {
			completed++
		}
		if !canAccess {
			lessons[i].VideoURL = ""
		}
	}
	return CourseDetail{
		Course:   c,
		Locked:   !canAccess,
		Lessons:  lessons,
		Progress: newProgress(c.ID, completed, len(lessons)),
	}, nil
}

// SetLessonCompleted marks a lesson done or not done for usr and returns the course progress.
func (svc *Service) SetLessonCompleted(ctx context.Context, usr user.User, lessonID string, completed bool) (Progress, error) {
	l, err := svc.repo.GetLesson(ctx, lessonID)
	if err != nil {
		return Progress{}, err
	}
	c, err := svc.repo.GetCourse(ctx, l.CourseID)
	if err != nil {
		return Progress{}, err
	}
	canAccess, err := svc.CanAccess(ctx, usr, c)
	if err != nil {
		return Progress{}, err
	}
	if !canAccess {
		return Progress{}, ErrPremium
	}

	now := core.NowFunc()
	p := LessonProgress{UserID: usr.ID, LessonID: l.ID, CourseID: c.ID, Completed: completed, UpdatedAt: now}
	if completed {
		p.CompletedAt = now
	}
	if err = svc.repo.SaveProgress(ctx, p); err != nil {
		return Progress{}, errors.Wrap(err, "saving progress")
	}

	detail, err := svc.Detail(ctx, usr, c.ID)
	if err != nil {
		return Progress{}, err
	}
	return detail.Progress, nil
}

// ProgressOf lists every course in which userID has at least one progress row.
func (svc *Service) ProgressOf(ctx context.Context, userID string) ([]CourseProgress, error) {
	rows, err := svc.repo.QueryProgress(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []CourseProgress{}, nil
	}

	completed := make(map[string]int)
	for _, p := range rows {
		if _, ok := completed[p.CourseID]; !ok {
			completed[p.CourseID] = 0
		}
		if p.Completed {
			completed[p.CourseID]++
		}
	}

	courses, err := svc.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	out := make([]CourseProgress, 0, len(completed))
	for _, c := range courses {
		done, ok := completed[c.ID]
		if !ok {
			continue
		}
		out = append(out, CourseProgress{Course: c, Progress: newProgress(c.ID, done, c.LessonCount)})
	}
	return out, nil
}

func (svc *Service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	now := core.NowFunc()
	c, err := svc.repo.CreateCourse(ctx, Course{
		Title:       nc.Title,
		Description: nc.Description,
		Level:       nc.Level,
		Premium:     nc.Premium,
		Position:    nc.Position,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Course{}, err
	}
	svc.invalidateCatalog(ctx)
	return c, nil
}

func (svc *Service) UpdateCourse(ctx context.Context, c Course, uc UpdateCourse) (Course, error) {
	if uc.Title != nil {
		c.Title = *uc.Title
	}
	if uc.Description != nil {
		c.Description = core.CleanString(*uc.Description)
	}
	if uc.Level != nil {
		c.Level = *uc.Level
	}
	if uc.Premium != nil {
		c.Premium = *uc.Premium
	}
	if uc.Position != nil {
		c.Position = *uc.Position
	}
	return svc.saveCourse(ctx, c)
}

func (svc *Service) SetCourseCover(ctx context.Context, c Course, url string) (Course, error) {
	c.CoverURL = url
	return svc.saveCourse(ctx, c)
}

func (svc *Service) saveCourse(ctx context.Context, c Course) (Course, error) {
	c.UpdatedAt = core.NowFunc()
	c, err := svc.repo.UpdateCourse(ctx, c)
	if err != nil {
		return Course{}, err
	}
	svc.invalidateCatalog(ctx)
	return c, nil
}

func (svc *Service) DeleteCourse(ctx context.Context, id string) error {
	if err := svc.repo.DeleteCourse(ctx, id); err != nil {
		return err
	}
	svc.invalidateCatalog(ctx)
	return nil
}

func (svc *Service) CreateLesson(ctx context.Context, courseID string, nl NewLesson) (Lesson, error) {
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		return Lesson{}, err
	}
	l, err := svc.repo.CreateLesson(ctx, Lesson{
		CourseID:        courseID,
		Title:           nl.Title,
		Description:     nl.Description,
		VideoURL:        nl.VideoURL,
		DurationSeconds: nl.DurationSeconds,
		Position:        nl.Position,
		CreatedAt:       core.NowFunc(),
	})
	if err != nil {
		return Lesson{}, err
	}
	svc.invalidateCatalog(ctx)
	return l, nil
}

func (svc *Service) UpdateLesson(ctx context.Context, l Lesson, ul UpdateLesson) (Lesson, error) {
	if ul.Title != nil {
		l.Title = *ul.Title
	}
	if ul.Description != nil {
		l.Description = core.CleanString(*ul.Description)
	}
	if ul.VideoURL != nil {
		l.VideoURL = core.CleanString(*ul.VideoURL)
	}
	if ul.DurationSeconds != nil {
		l.DurationSeconds = *ul.DurationSeconds
	}
	if ul.Position != nil {
		l.Position = *ul.Position
	}
	return svc.saveLesson(ctx, l)
}

func (svc *Service) SetLessonVideo(ctx context.Context, l Lesson, url string) (Lesson, error) {
	l.VideoURL = url
	return svc.saveLesson(ctx, l)
}

func (svc *Service) saveLesson(ctx context.Context, l Lesson) (Lesson, error) {
	l, err := svc.repo.UpdateLesson(ctx, l)
	if err != nil {
		return Lesson{}, err
	}
	svc.invalidateCatalog(ctx)
	return l, nil
}

func (svc *Service) DeleteLesson(ctx context.Context, id string) error {
	if err := svc.repo.DeleteLesson(ctx, id); err != nil {
		return err
	}
	svc.invalidateCatalog(ctx)
	return nil
}
