package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/message"
)

const messageSelect = `SELECT m.id, m.content, m.created_at, m.read_at,
	s.id AS sender_id, s.name AS sender_name, COALESCE(s.username, '') AS sender_username, s.avatar_url AS sender_avatar_url,
	r.id AS recipient_id, r.name AS recipient_name, COALESCE(r.username, '') AS recipient_username, r.avatar_url AS recipient_avatar_url
	FROM messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users r ON r.id = m.recipient_id`

type messageRow struct {
	ID                 string    `db:"id"`
	Content            string    `db:"content"`
	CreatedAt          time.Time `db:"created_at"`
	ReadAt             null.Time `db:"read_at"`
	SenderID           string    `db:"sender_id"`
	SenderName         string    `db:"sender_name"`
	SenderUsername     string    `db:"sender_username"`
	SenderAvatarURL    string    `db:"sender_avatar_url"`
	RecipientID        string    `db:"recipient_id"`
	RecipientName      string    `db:"recipient_name"`
	RecipientUsername  string    `db:"recipient_username"`
	RecipientAvatarURL string    `db:"recipient_avatar_url"`
}

func (row messageRow) message() message.Message {
	return message.Message{
		ID:        row.ID,
		Sender:    core.UserRef{ID: row.SenderID, Name: row.SenderName, Username: row.SenderUsername, AvatarURL: row.SenderAvatarURL},
		Recipient: core.UserRef{ID: row.RecipientID, Name: row.RecipientName, Username: row.RecipientUsername, AvatarURL: row.RecipientAvatarURL},
		Content:   row.Content,
		CreatedAt: row.CreatedAt.UTC(),
		ReadAt:    timeFromNull(row.ReadAt),
	}
}

type messageRepository struct {
	db *sqlx.DB
}

var _ message.Repository = (*messageRepository)(nil)

func NewMessageRepository(db *sqlx.DB) *messageRepository {
	return &messageRepository{db: db}
}

func (repo messageRepository) CreateMessage(ctx context.Context, m message.Message) (message.Message, error) {
	m.ID = newID()
	m.CreatedAt = m.CreatedAt.UTC()
	q := repo.db.Rebind("INSERT INTO messages (id, sender_id, recipient_id, content, created_at) VALUES (?, ?, ?, ?, ?)")
	if _, err := repo.db.ExecContext(ctx, q, m.ID, m.Sender.ID, m.Recipient.ID, m.Content, m.CreatedAt); err != nil {
		return message.Message{}, errors.Wrap(err, "inserting message")
	}
	return m, nil
}

func (repo messageRepository) selectMessages(ctx context.Context, q string, args ...interface{}) ([]message.Message, error) {
	var rows []messageRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	msgs := make([]message.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.message())
	}
	return msgs, nil
}

// QueryConversation pages from the latest message backwards, each page in chronological order.
func (repo messageRepository) QueryConversation(ctx context.Context, a, b string, page core.Page) ([]message.Message, error) {
	msgs, err := repo.selectMessages(ctx,
		messageSelect+` WHERE (m.sender_id = ? AND m.recipient_id = ?) OR (m.sender_id = ? AND m.recipient_id = ?)
		ORDER BY m.created_at DESC, m.id DESC LIMIT ? OFFSET ?`,
		a, b, b, a, page.Limit, page.Offset,
	)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// inboxQuery keeps the latest message per partner. Params: user id x6, limit, offset.
var inboxQuery = `WITH threads AS (
		SELECT partner_id, SUM(unread) AS unread_count FROM (
			SELECT CASE WHEN sender_id = ? THEN recipient_id ELSE sender_id END AS partner_id,
				CASE WHEN recipient_id = ? AND read_at IS NULL THEN 1 ELSE 0 END AS unread
			FROM messages
			WHERE sender_id = ? OR recipient_id = ?
		) um
		GROUP BY partner_id
	), latest AS (
		SELECT t.partner_id, t.unread_count, (
			SELECT lm.id FROM messages lm
			WHERE (lm.sender_id = ? AND lm.recipient_id = t.partner_id) OR (lm.sender_id = t.partner_id AND lm.recipient_id = ?)
			ORDER BY lm.created_at DESC, lm.id DESC
			LIMIT 1
		) AS message_id
		FROM threads t
	)
	SELECT l.unread_count, ` + strings.TrimPrefix(messageSelect, "SELECT ") + `
	JOIN latest l ON l.message_id = m.id
	ORDER BY m.created_at DESC, m.id DESC
	LIMIT ? OFFSET ?`

type inboxRow struct {
	messageRow
	UnreadCount int `db:"unread_count"`
}

func (repo messageRepository) QueryInbox(ctx context.Context, userID string, page core.Page) ([]message.Conversation, error) {
	var rows []inboxRow
	err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(inboxQuery),
		userID, userID, userID, userID, userID, userID, page.Limit, page.Offset,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying inbox")
	}

	convs := make([]message.Conversation, 0, len(rows))
	for _, row := range rows {
		m := row.message()
		partner := m.Recipient
		if partner.ID == userID {
			partner = m.Sender
		}
		convs = append(convs, message.Conversation{Partner: partner, LastMessage: m, UnreadCount: row.UnreadCount})
	}
	return convs, nil
}

func (repo messageRepository) MarkRead(ctx context.Context, recipientID, senderID string, at time.Time) (int, error) {
	q := repo.db.Rebind("UPDATE messages SET read_at = ? WHERE recipient_id = ? AND sender_id = ? AND read_at IS NULL")
	res, err := repo.db.ExecContext(ctx, q, at.UTC(), recipientID, senderID)
	if err != nil {
		return 0, errors.Wrap(err, "marking messages read")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "marking messages read")
}

func (repo messageRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var n int
	q := repo.db.Rebind("SELECT COUNT(*) FROM messages WHERE recipient_id = ? AND read_at IS NULL")
	if err := sqlx.GetContext(ctx, repo.db, &n, q, recipientID); err != nil {
		return 0, errors.Wrap(err, "counting unread messages")
	}
	return n, nil
}
