package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nuvatw/nuva-club/core/course"
)

const (
	courseSelect = `SELECT c.id, c.title, c.description, c.level, c.cover_url, c.premium, c.position,
		c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM lessons l WHERE l.course_id = c.id) AS lesson_count
		FROM courses c`
	lessonColumns = "id, course_id, title, description, video_url, duration_seconds, position, created_at"
)

type courseRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Level       int       `db:"level"`
	CoverURL    string    `db:"cover_url"`
	Premium     bool      `db:"premium"`
	Position    int       `db:"position"`
	LessonCount int       `db:"lesson_count"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row courseRow) course() course.Course {
	return course.Course{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Level:       row.Level,
		CoverURL:    row.CoverURL,
		Premium:     row.Premium,
		Position:    row.Position,
		LessonCount: row.LessonCount,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

type lessonRow struct {
	ID              string    `db:"id"`
	CourseID        string    `db:"course_id"`
	Title           string    `db:"title"`
	Description     string    `db:"description"`
	VideoURL        string    `db:"video_url"`
	DurationSeconds int       `db:"duration_seconds"`
	Position        int       `db:"position"`
	CreatedAt       time.Time `db:"created_at"`
}

func (row lessonRow) lesson() course.Lesson {
	return course.Lesson{
		ID:              row.ID,
		CourseID:        row.CourseID,
		Title:           row.Title,
		Description:     row.Description,
		VideoURL:        row.VideoURL,
		DurationSeconds: row.DurationSeconds,
		Position:        row.Position,
		CreatedAt:       row.CreatedAt.UTC(),
	}
}

type progressRow struct {
	UserID      string    `db:"user_id"`
	LessonID    string    `db:"lesson_id"`
	CourseID    string    `db:"course_id"`
	Completed   bool      `db:"completed"`
	CompletedAt null.Time `db:"completed_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) QueryCourses(ctx context.Context, level int) ([]course.Course, error) {
	var w where
	if level > 0 {
		w.add("c.level = ?", level)
	}
	q := repo.db.Rebind(courseSelect + w.String() + " ORDER BY c.level ASC, c.position ASC, c.created_at ASC")

	var rows []courseRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.course())
	}
	return courses, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	q := repo.db.Rebind(courseSelect + " WHERE c.id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	return row.course(), nil
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	c.ID = newID()
	row := courseRow{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Level:       c.Level,
		CoverURL:    c.CoverURL,
		Premium:     c.Premium,
		Position:    c.Position,
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
	q := `INSERT INTO courses (id, title, description, level, cover_url, premium, position, created_at, updated_at)
		VALUES (:id, :title, :description, :level, :cover_url, :premium, :position, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return row.course(), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	row := courseRow{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Level:       c.Level,
		CoverURL:    c.CoverURL,
		Premium:     c.Premium,
		Position:    c.Position,
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
	q := `UPDATE courses SET title = :title, description = :description, level = :level, cover_url = :cover_url,
		premium = :premium, position = :position, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if err = affected(res, course.ErrNotFound, "updating course"); err != nil {
		return course.Course{}, err
	}
	return repo.GetCourse(ctx, c.ID)
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM courses WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return affected(res, course.ErrNotFound, "deleting course")
}

func (repo courseRepository) QueryLessons(ctx context.Context, courseID string) ([]course.Lesson, error) {
	var rows []lessonRow
	q := repo.db.Rebind("SELECT " + lessonColumns + " FROM lessons WHERE course_id = ? ORDER BY position ASC, created_at ASC")
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, courseID); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	lessons := make([]course.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, row.lesson())
	}
	return lessons, nil
}

func (repo courseRepository) GetLesson(ctx context.Context, id string) (course.Lesson, error) {
	var row lessonRow
	q := repo.db.Rebind("SELECT " + lessonColumns + " FROM lessons WHERE id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return course.Lesson{}, trapNoRowsErr(err, course.ErrLessonNotFound, "finding lesson")
	}
	return row.lesson(), nil
}

func boilLesson(l course.Lesson) lessonRow {
	return lessonRow{
		ID:              l.ID,
		CourseID:        l.CourseID,
		Title:           l.Title,
		Description:     l.Description,
		VideoURL:        l.VideoURL,
		DurationSeconds: l.DurationSeconds,
		Position:        l.Position,
		CreatedAt:       l.CreatedAt.UTC(),
	}
}

func (repo courseRepository) CreateLesson(ctx context.Context, l course.Lesson) (course.Lesson, error) {
	l.ID = newID()
	row := boilLesson(l)
	q := `INSERT INTO lessons (` + lessonColumns + `)
		VALUES (:id, :course_id, :title, :description, :video_url, :duration_seconds, :position, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return course.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return row.lesson(), nil
}

func (repo courseRepository) UpdateLesson(ctx context.Context, l course.Lesson) (course.Lesson, error) {
	row := boilLesson(l)
	q := `UPDATE lessons SET title = :title, description = :description, video_url = :video_url,
		duration_seconds = :duration_seconds, position = :position
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return course.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	if err = affected(res, course.ErrLessonNotFound, "updating lesson"); err != nil {
		return course.Lesson{}, err
	}
	return repo.GetLesson(ctx, l.ID)
}

func (repo courseRepository) DeleteLesson(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM lessons WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return affected(res, course.ErrLessonNotFound, "deleting lesson")
}

func (repo courseRepository) SaveProgress(ctx context.Context, p course.LessonProgress) error {
	row := progressRow{
		UserID:      p.UserID,
		LessonID:    p.LessonID,
		CourseID:    p.CourseID,
		Completed:   p.Completed,
		CompletedAt: nullTime(p.CompletedAt),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
	q := `INSERT INTO lesson_progress (user_id, lesson_id, course_id, completed, completed_at, updated_at)
		VALUES (:user_id, :lesson_id, :course_id, :completed, :completed_at, :updated_at)
		ON CONFLICT (user_id, lesson_id) DO UPDATE SET
			completed = excluded.completed, completed_at = excluded.completed_at, updated_at = excluded.updated_at`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return errors.Wrap(err, "saving lesson progress")
	}
	return nil
}

func (repo courseRepository) QueryProgress(ctx context.Context, userID, courseID string) ([]course.LessonProgress, error) {
	var w where
	w.add("user_id = ?", userID)
	if courseID != "" {
		w.add("course_id = ?", courseID)
	}
	q := repo.db.Rebind("SELECT user_id, lesson_id, course_id, completed, completed_at, updated_at FROM lesson_progress" + w.String())

	var rows []progressRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying lesson progress")
	}
	out := make([]course.LessonProgress, 0, len(rows))
	for _, row := range rows {
		out = append(out, course.LessonProgress{
			UserID:      row.UserID,
			LessonID:    row.LessonID,
			CourseID:    row.CourseID,
			Completed:   row.Completed,
			CompletedAt: timeFromNull(row.CompletedAt),
			UpdatedAt:   row.UpdatedAt.UTC(),
		})
	}
	return out, nil
}
