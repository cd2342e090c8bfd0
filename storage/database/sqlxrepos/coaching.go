package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/coaching"
)

const (
	assignmentSelect = `SELECT cs.assigned_at,
		s.id AS student_id, s.name AS student_name, COALESCE(s.username, '') AS student_username, s.avatar_url AS student_avatar_url,
		c.id AS coach_id, c.name AS coach_name, COALESCE(c.username, '') AS coach_username, c.avatar_url AS coach_avatar_url
		FROM coach_students cs
		JOIN users s ON s.id = cs.student_id
		JOIN users c ON c.id = cs.coach_id`

	feedbackSelect = `SELECT f.id, f.lesson_id, f.content, f.created_at,
		s.id AS student_id, s.name AS student_name, COALESCE(s.username, '') AS student_username, s.avatar_url AS student_avatar_url,
		c.id AS coach_id, c.name AS coach_name, COALESCE(c.username, '') AS coach_username, c.avatar_url AS coach_avatar_url
		FROM feedback f
		JOIN users s ON s.id = f.student_id
		JOIN users c ON c.id = f.coach_id`
)

type pairColumns struct {
	StudentID        string `db:"student_id"`
	StudentName      string `db:"student_name"`
	StudentUsername  string `db:"student_username"`
	StudentAvatarURL string `db:"student_avatar_url"`
	CoachID          string `db:"coach_id"`
	CoachName        string `db:"coach_name"`
	CoachUsername    string `db:"coach_username"`
	CoachAvatarURL   string `db:"coach_avatar_url"`
}

func (p pairColumns) student() core.UserRef {
	return core.UserRef{ID: p.StudentID, Name: p.StudentName, Username: p.StudentUsername, AvatarURL: p.StudentAvatarURL}
}

func (p pairColumns) coach() core.UserRef {
	return core.UserRef{ID: p.CoachID, Name: p.CoachName, Username: p.CoachUsername, AvatarURL: p.CoachAvatarURL}
}

type assignmentRow struct {
	pairColumns
	AssignedAt time.Time `db:"assigned_at"`
}

func (row assignmentRow) assignment() coaching.Assignment {
	return coaching.Assignment{Student: row.student(), Coach: row.coach(), AssignedAt: row.AssignedAt.UTC()}
}

type feedbackRow struct {
	pairColumns
	ID        string      `db:"id"`
	LessonID  null.String `db:"lesson_id"`
	Content   string      `db:"content"`
	CreatedAt time.Time   `db:"created_at"`
}

func (row feedbackRow) feedback() coaching.Feedback {
	return coaching.Feedback{
		ID:        row.ID,
		Coach:     row.coach(),
		Student:   row.student(),
		LessonID:  row.LessonID.String,
		Content:   row.Content,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

type coachingRepository struct {
	db *sqlx.DB
}

var _ coaching.Repository = (*coachingRepository)(nil)

func NewCoachingRepository(db *sqlx.DB) *coachingRepository {
	return &coachingRepository{db: db}
}

func (repo coachingRepository) SaveAssignment(ctx context.Context, studentID, coachID string, at time.Time) error {
	q := repo.db.Rebind(`INSERT INTO coach_students (student_id, coach_id, assigned_at) VALUES (?, ?, ?)
		ON CONFLICT (student_id) DO UPDATE SET coach_id = excluded.coach_id, assigned_at = excluded.assigned_at`)
	_, err := repo.db.ExecContext(ctx, q, studentID, coachID, at.UTC())
	return errors.Wrap(err, "saving coach assignment")
}

func (repo coachingRepository) DeleteAssignment(ctx context.Context, studentID string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM coach_students WHERE student_id = ?"), studentID)
	if err != nil {
		return errors.Wrap(err, "deleting coach assignment")
	}
	return affected(res, coaching.ErrNotFound, "deleting coach assignment")
}

func (repo coachingRepository) GetAssignment(ctx context.Context, studentID string) (coaching.Assignment, error) {
	var row assignmentRow
	q := repo.db.Rebind(assignmentSelect + " WHERE cs.student_id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, studentID); err != nil {
		return coaching.Assignment{}, trapNoRowsErr(err, coaching.ErrNotFound, "finding coach assignment")
	}
	return row.assignment(), nil
}

func (repo coachingRepository) QueryAssignments(ctx context.Context, coachID string) ([]coaching.Assignment, error) {
	var rows []assignmentRow
	q := repo.db.Rebind(assignmentSelect + " WHERE cs.coach_id = ? ORDER BY s.name ASC, s.id ASC")
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, coachID); err != nil {
		return nil, errors.Wrap(err, "querying coach assignments")
	}
	as := make([]coaching.Assignment, 0, len(rows))
	for _, row := range rows {
		as = append(as, row.assignment())
	}
	return as, nil
}

func (repo coachingRepository) CreateFeedback(ctx context.Context, f coaching.Feedback) (coaching.Feedback, error) {
	f.ID = newID()
	q := repo.db.Rebind("INSERT INTO feedback (id, coach_id, student_id, lesson_id, content, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	_, err := repo.db.ExecContext(ctx, q, f.ID, f.Coach.ID, f.Student.ID, nullString(f.LessonID), f.Content, f.CreatedAt.UTC())
	if err != nil {
		return coaching.Feedback{}, errors.Wrap(err, "inserting feedback")
	}

	var row feedbackRow
	if err = sqlx.GetContext(ctx, repo.db, &row, repo.db.Rebind(feedbackSelect+" WHERE f.id = ?"), f.ID); err != nil {
		return coaching.Feedback{}, errors.Wrap(err, "reading feedback")
	}
	return row.feedback(), nil
}

func (repo coachingRepository) QueryFeedback(ctx context.Context, filter coaching.FeedbackFilter) ([]coaching.Feedback, error) {
	var w where
	if filter.StudentID != "" {
		w.add("f.student_id = ?", filter.StudentID)
	}
	if filter.CoachID != "" {
		w.add("f.coach_id = ?", filter.CoachID)
	}
	q := feedbackSelect + w.String() + " ORDER BY f.created_at DESC, f.id DESC"
	args := w.args
	if filter.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var rows []feedbackRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying feedback")
	}
	fs := make([]coaching.Feedback, 0, len(rows))
	for _, row := range rows {
		fs = append(fs, row.feedback())
	}
	return fs, nil
}
