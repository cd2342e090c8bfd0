package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/challenge"
)

// challengeSelect takes the viewer id as its first argument.
const challengeSelect = `SELECT ch.id, ch.title, ch.description, ch.start_date, ch.end_date, ch.created_by, ch.created_at,
	(SELECT COUNT(*) FROM challenge_participants cp WHERE cp.challenge_id = ch.id) AS participant_count,
	EXISTS (SELECT 1 FROM challenge_participants cp WHERE cp.challenge_id = ch.id AND cp.user_id = ?) AS joined
	FROM challenges ch`

type challengeRow struct {
	ID               string      `db:"id"`
	Title            string      `db:"title"`
	Description      string      `db:"description"`
	StartDate        time.Time   `db:"start_date"`
	EndDate          time.Time   `db:"end_date"`
	CreatedBy        null.String `db:"created_by"`
	CreatedAt        time.Time   `db:"created_at"`
	ParticipantCount int         `db:"participant_count"`
	Joined           bool        `db:"joined"`
}

func (row challengeRow) challenge() challenge.Challenge {
	return challenge.Challenge{
		ID:               row.ID,
		Title:            row.Title,
		Description:      row.Description,
		StartDate:        row.StartDate.UTC(),
		EndDate:          row.EndDate.UTC(),
		CreatedBy:        row.CreatedBy.String,
		CreatedAt:        row.CreatedAt.UTC(),
		ParticipantCount: row.ParticipantCount,
		Joined:           row.Joined,
	}
}

type participantRow struct {
	ChallengeID string    `db:"challenge_id"`
	UserID      string    `db:"user_id"`
	Name        string    `db:"name"`
	Username    string    `db:"username"`
	AvatarURL   string    `db:"avatar_url"`
	JoinedAt    time.Time `db:"joined_at"`
	CompletedAt null.Time `db:"completed_at"`
	Submission  string    `db:"submission"`
}

func (row participantRow) participant() challenge.Participant {
	return challenge.Participant{
		ChallengeID: row.ChallengeID,
		User:        core.UserRef{ID: row.UserID, Name: row.Name, Username: row.Username, AvatarURL: row.AvatarURL},
		JoinedAt:    row.JoinedAt.UTC(),
		CompletedAt: timeFromNull(row.CompletedAt),
		Submission:  row.Submission,
	}
}

const participantSelect = `SELECT cp.challenge_id, cp.user_id, u.name, COALESCE(u.username, '') AS username, u.avatar_url,
	cp.joined_at, cp.completed_at, cp.submission
	FROM challenge_participants cp JOIN users u ON u.id = cp.user_id`

type challengeRepository struct {
	db *sqlx.DB
}

var _ challenge.Repository = (*challengeRepository)(nil)

func NewChallengeRepository(db *sqlx.DB) *challengeRepository {
	return &challengeRepository{db: db}
}

func (repo challengeRepository) QueryChallenges(ctx context.Context, viewerID string) ([]challenge.Challenge, error) {
	var rows []challengeRow
	q := repo.db.Rebind(challengeSelect + " ORDER BY ch.start_date DESC, ch.created_at DESC")
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, viewerID); err != nil {
		return nil, errors.Wrap(err, "querying challenges")
	}
	chs := make([]challenge.Challenge, 0, len(rows))
	for _, row := range rows {
		chs = append(chs, row.challenge())
	}
	return chs, nil
}

func (repo challengeRepository) GetChallenge(ctx context.Context, viewerID, id string) (challenge.Challenge, error) {
	var row challengeRow
	q := repo.db.Rebind(challengeSelect + " WHERE ch.id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, viewerID, id); err != nil {
		return challenge.Challenge{}, trapNoRowsErr(err, challenge.ErrNotFound, "finding challenge")
	}
	return row.challenge(), nil
}

func (repo challengeRepository) CreateChallenge(ctx context.Context, ch challenge.Challenge) (challenge.Challenge, error) {
	ch.ID = newID()
	row := challengeRow{
		ID:          ch.ID,
		Title:       ch.Title,
		Description: ch.Description,
		StartDate:   ch.StartDate.UTC(),
		EndDate:     ch.EndDate.UTC(),
		CreatedBy:   nullString(ch.CreatedBy),
		CreatedAt:   ch.CreatedAt.UTC(),
	}
	q := `INSERT INTO challenges (id, title, description, start_date, end_date, created_by, created_at)
		VALUES (:id, :title, :description, :start_date, :end_date, :created_by, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return challenge.Challenge{}, errors.Wrap(err, "inserting challenge")
	}
	return row.challenge(), nil
}

func (repo challengeRepository) UpdateChallenge(ctx context.Context, ch challenge.Challenge) (challenge.Challenge, error) {
	q := repo.db.Rebind("UPDATE challenges SET title = ?, description = ?, start_date = ?, end_date = ? WHERE id = ?")
	res, err := repo.db.ExecContext(ctx, q, ch.Title, ch.Description, ch.StartDate.UTC(), ch.EndDate.UTC(), ch.ID)
	if err != nil {
		return challenge.Challenge{}, errors.Wrap(err, "updating challenge")
	}
	if err = affected(res, challenge.ErrNotFound, "updating challenge"); err != nil {
		return challenge.Challenge{}, err
	}
	return repo.GetChallenge(ctx, "", ch.ID)
}

func (repo challengeRepository) DeleteChallenge(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind("DELETE FROM challenges WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting challenge")
	}
	return affected(res, challenge.ErrNotFound, "deleting challenge")
}

func (repo challengeRepository) GetParticipant(ctx context.Context, challengeID, userID string) (challenge.Participant, error) {
	var row participantRow
	q := repo.db.Rebind(participantSelect + " WHERE cp.challenge_id = ? AND cp.user_id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, challengeID, userID); err != nil {
		return challenge.Participant{}, trapNoRowsErr(err, challenge.ErrNotParticipant, "finding participant")
	}
	return row.participant(), nil
}

func (repo challengeRepository) SaveParticipant(ctx context.Context, p challenge.Participant) error {
	q := repo.db.Rebind(`INSERT INTO challenge_participants (challenge_id, user_id, joined_at, completed_at, submission)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (challenge_id, user_id) DO UPDATE SET
			completed_at = excluded.completed_at, submission = excluded.submission`)
	_, err := repo.db.ExecContext(ctx, q, p.ChallengeID, p.User.ID, p.JoinedAt.UTC(), nullTime(p.CompletedAt), p.Submission)
	return errors.Wrap(err, "saving participant")
}

func (repo challengeRepository) DeleteParticipant(ctx context.Context, challengeID, userID string) error {
	q := repo.db.Rebind("DELETE FROM challenge_participants WHERE challenge_id = ? AND user_id = ?")
	res, err := repo.db.ExecContext(ctx, q, challengeID, userID)
	if err != nil {
		return errors.Wrap(err, "deleting participant")
	}
	return affected(res, challenge.ErrNotParticipant, "deleting participant")
}

func (repo challengeRepository) QueryParticipants(ctx context.Context, challengeID string) ([]challenge.Participant, error) {
	var rows []participantRow
	q := repo.db.Rebind(participantSelect + " WHERE cp.challenge_id = ? ORDER BY cp.joined_at ASC")
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, challengeID); err != nil {
		return nil, errors.Wrap(err, "querying participants")
	}
	ps := make([]challenge.Participant, 0, len(rows))
	for _, row := range rows {
		ps = append(ps, row.participant())
	}
	return ps, nil
}
