package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/community"
)

// postSelect and commentSelect take the viewer id as their first argument.
const (
	postSelect = `SELECT p.id, p.content, p.created_at, p.updated_at,
		u.id AS author_id, u.name AS author_name, COALESCE(u.username, '') AS author_username, u.avatar_url AS author_avatar_url,
		(SELECT COUNT(*) FROM fires f WHERE f.target_type = 'post' AND f.target_id = p.id) AS fire_count,
		(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count,
		EXISTS (SELECT 1 FROM fires f WHERE f.target_type = 'post' AND f.target_id = p.id AND f.user_id = ?) AS fired
		FROM posts p JOIN users u ON u.id = p.author_id`

	commentSelect = `SELECT c.id, c.post_id, c.content, c.created_at,
		u.id AS author_id, u.name AS author_name, COALESCE(u.username, '') AS author_username, u.avatar_url AS author_avatar_url,
		(SELECT COUNT(*) FROM fires f WHERE f.target_type = 'comment' AND f.target_id = c.id) AS fire_count,
		EXISTS (SELECT 1 FROM fires f WHERE f.target_type = 'comment' AND f.target_id = c.id AND f.user_id = ?) AS fired
		FROM comments c JOIN users u ON u.id = c.author_id`
)

type authorColumns struct {
	AuthorID        string `db:"author_id"`
	AuthorName      string `db:"author_name"`
	AuthorUsername  string `db:"author_username"`
	AuthorAvatarURL string `db:"author_avatar_url"`
}

func (a authorColumns) ref() core.UserRef {
	return core.UserRef{ID: a.AuthorID, Name: a.AuthorName, Username: a.AuthorUsername, AvatarURL: a.AuthorAvatarURL}
}

type postRow struct {
	authorColumns
	ID           string    `db:"id"`
	Content      string    `db:"content"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	FireCount    int       `db:"fire_count"`
	CommentCount int       `db:"comment_count"`
	Fired        bool      `db:"fired"`
}

func (row postRow) post() community.Post {
	return community.Post{
		ID:           row.ID,
		Author:       row.ref(),
		Content:      row.Content,
		FireCount:    row.FireCount,
		CommentCount: row.CommentCount,
		Fired:        row.Fired,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

type commentRow struct {
	authorColumns
	ID        string    `db:"id"`
	PostID    string    `db:"post_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
	FireCount int       `db:"fire_count"`
	Fired     bool      `db:"fired"`
}

func (row commentRow) comment() community.Comment {
	return community.Comment{
		ID:        row.ID,
		PostID:    row.PostID,
		Author:    row.ref(),
		Content:   row.Content,
		FireCount: row.FireCount,
		Fired:     row.Fired,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

type communityRepository struct {
	db *sqlx.DB
}

var _ community.Repository = (*communityRepository)(nil)

func NewCommunityRepository(db *sqlx.DB) *communityRepository {
	return &communityRepository{db: db}
}

func (repo communityRepository) QueryPosts(ctx context.Context, viewerID string, page core.Page) ([]community.Post, error) {
	var rows []postRow
	q := repo.db.Rebind(postSelect + " ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?")
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, viewerID, page.Limit, page.Offset); err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	posts := make([]community.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.post())
	}
	return posts, nil
}

func (repo communityRepository) GetPost(ctx context.Context, viewerID, id string) (community.Post, error) {
	var row postRow
	q := repo.db.Rebind(postSelect + " WHERE p.id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, viewerID, id); err != nil {
		return community.Post{}, trapNoRowsErr(err, community.ErrPostNotFound, "finding post")
	}
	return row.post(), nil
}

func (repo communityRepository) CreatePost(ctx context.Context, authorID string, p community.Post) (community.Post, error) {
	p.ID = newID()
	q := repo.db.Rebind("INSERT INTO posts (id, author_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)")
	if _, err := repo.db.ExecContext(ctx, q, p.ID, authorID, p.Content, p.CreatedAt.UTC(), p.UpdatedAt.UTC()); err != nil {
		return community.Post{}, errors.Wrap(err, "inserting post")
	}
	p.Author = core.UserRef{ID: authorID}
	return p, nil
}

// DeletePost removes the post, its comments and every fire on them.
func (repo communityRepository) DeletePost(ctx context.Context, id string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	stmts := []string{
		"DELETE FROM fires WHERE target_type = 'comment' AND target_id IN (SELECT id FROM comments WHERE post_id = ?)",
		"DELETE FROM fires WHERE target_type = 'post' AND target_id = ?",
	}
	for _, stmt := range stmts {
		if _, err = tx.ExecContext(ctx, tx.Rebind(stmt), id); err != nil {
			return errors.Wrap(err, "deleting fires")
		}
	}
	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM posts WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting post")
	}
	if err = affected(res, community.ErrPostNotFound, "deleting post"); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo communityRepository) QueryComments(ctx context.Context, viewerID, postID string) ([]community.Comment, error) {
	var rows []commentRow
	q := repo.db.Rebind(commentSelect + " WHERE c.post_id = ? ORDER BY c.created_at ASC, c.id ASC")
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, viewerID, postID); err != nil {
		return nil, errors.Wrap(err, "querying comments")
	}
	comments := make([]community.Comment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, row.comment())
	}
	return comments, nil
}

func (repo communityRepository) GetComment(ctx context.Context, viewerID, id string) (community.Comment, error) {
	var row commentRow
	q := repo.db.Rebind(commentSelect + " WHERE c.id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, viewerID, id); err != nil {
		return community.Comment{}, trapNoRowsErr(err, community.ErrCommentNotFound, "finding comment")
	}
	return row.comment(), nil
}

func (repo communityRepository) CreateComment(ctx context.Context, authorID string, c community.Comment) (community.Comment, error) {
	c.ID = newID()
	q := repo.db.Rebind("INSERT INTO comments (id, post_id, author_id, content, created_at) VALUES (?, ?, ?, ?, ?)")
	if _, err := repo.db.ExecContext(ctx, q, c.ID, c.PostID, authorID, c.Content, c.CreatedAt.UTC()); err != nil {
		return community.Comment{}, errors.Wrap(err, "inserting comment")
	}
	c.Author = core.UserRef{ID: authorID}
	return c, nil
}

func (repo communityRepository) DeleteComment(ctx context.Context, id string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err = tx.ExecContext(ctx, tx.Rebind("DELETE FROM fires WHERE target_type = 'comment' AND target_id = ?"), id); err != nil {
		return errors.Wrap(err, "deleting fires")
	}
	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM comments WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "deleting comment")
	}
	if err = affected(res, community.ErrCommentNotFound, "deleting comment"); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo communityRepository) ToggleFire(ctx context.Context, targetType, targetID, userID string, at time.Time) (bool, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "starting transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		tx.Rebind("DELETE FROM fires WHERE target_type = ? AND target_id = ? AND user_id = ?"),
		targetType, targetID, userID,
	)
	if err != nil {
		return false, errors.Wrap(err, "removing fire")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "removing fire")
	}

	fired := n == 0
	if fired {
		_, err = tx.ExecContext(ctx,
			tx.Rebind("INSERT INTO fires (target_type, target_id, user_id, created_at) VALUES (?, ?, ?, ?)"),
			targetType, targetID, userID, at.UTC(),
		)
		if err != nil {
			return false, errors.Wrap(err, "adding fire")
		}
	}
	if err = tx.Commit(); err != nil {
		return false, errors.Wrap(err, "committing transaction")
	}
	return fired, nil
}

func (repo communityRepository) CountFires(ctx context.Context, targetType, targetID string) (int, error) {
	var n int
	q := repo.db.Rebind("SELECT COUNT(*) FROM fires WHERE target_type = ? AND target_id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &n, q, targetType, targetID); err != nil {
		return 0, errors.Wrap(err, "counting fires")
	}
	return n, nil
}
