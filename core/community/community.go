package community

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/notification"
	"github.com/nuvatw/nuva-club/core/user"
)

// Fire targets
const (
	TargetPost    = "post"
	TargetComment = "comment"
)

var (
	ErrPostNotFound    = core.NewNotFoundError("post")
	ErrCommentNotFound = core.NewNotFoundError("comment")
	ErrInvalidTarget   = errors.New("fire target must be a post or a comment")
	ErrNotAuthor       = core.NewPermissionError("only the author or a guardian can delete this")
)

type Post struct {
	ID           string       `json:"id"`
	Author       core.UserRef `json:"author"`
	Content      string       `json:"content"`
	FireCount    int          `json:"fire_count"`
	CommentCount int          `json:"comment_count"`
	Fired        bool         `json:"fired"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type Comment struct {
	ID        string       `json:"id"`
	PostID    string       `json:"post_id"`
	Author    core.UserRef `json:"author"`
	Content   string       `json:"content"`
	FireCount int          `json:"fire_count"`
	Fired     bool         `json:"fired"`
	CreatedAt time.Time    `json:"created_at"`
}

type NewPost struct {
	Content string `json:"content" validate:"required,notblank,max=5000"`
}

func (np *NewPost) Validate(validate *validator.Validate) error {
	np.Content = core.CleanString(np.Content)
	return validate.Struct(np)
}

type NewComment struct {
	Content string `json:"content" validate:"required,notblank,max=2000"`
}

func (nc *NewComment) Validate(validate *validator.Validate) error {
	nc.Content = core.CleanString(nc.Content)
	return validate.Struct(nc)
}

// FireResult is the state of a target after a fire toggle.
type FireResult struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Fired      bool   `json:"fired"`
	FireCount  int    `json:"fire_count"`
}

type (
	Repository interface {
		// QueryPosts lists posts newest first. Fired is set for viewerID.
		QueryPosts(ctx context.Context, viewerID string, page core.Page) ([]Post, error)
		GetPost(ctx context.Context, viewerID, id string) (Post, error)
		CreatePost(ctx context.Context, authorID string, p Post) (Post, error)
		DeletePost(ctx context.Context, id string) error

		// QueryComments lists the comments of a post oldest first.
		QueryComments(ctx context.Context, viewerID, postID string) ([]Comment, error)
		GetComment(ctx context.Context, viewerID, id string) (Comment, error)
		CreateComment(ctx context.Context, authorID string, c Comment) (Comment, error)
		DeleteComment(ctx context.Context, id string) error

		// ToggleFire deletes the user's fire on the target, or inserts it when there was none.
		// It returns whether the target is fired after the toggle.
		ToggleFire(ctx context.Context, targetType, targetID, userID string, at time.Time) (bool, error)
		CountFires(ctx context.Context, targetType, targetID string) (int, error)
	}

	Notifier interface {
		Notify(ctx context.Context, nns ...notification.NewNotification) error
	}

	Service struct {
		repo     Repository
		notifier Notifier
		logger   core.Logger
	}
)

func NewService(repo Repository, notifier Notifier, logger core.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

func (svc *Service) notify(ctx context.Context, nn notification.NewNotification) {
	if err := svc.notifier.Notify(ctx, nn); err != nil {
		svc.logger.Error("sending notification", err)
	}
}

func (svc *Service) ListPosts(ctx context.Context, viewer user.User, page core.Page) ([]Post, error) {
	return svc.repo.QueryPosts(ctx, viewer.ID, page.Normalize())
}

func (svc *Service) GetPost(ctx context.Context, viewer user.User, id string) (Post, error) {
	return svc.repo.GetPost(ctx, viewer.ID, id)
}

func (svc *Service) CreatePost(ctx context.Context, author user.User, np NewPost) (Post, error) {
	now := core.NowFunc()
	p, err := svc.repo.CreatePost(ctx, author.ID, Post{Content: np.Content, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return Post{}, err
	}
	return svc.repo.GetPost(ctx, author.ID, p.ID)
}

func canDelete(usr user.User, authorID string) bool {
	return usr.ID == authorID || usr.IsGuardian()
}

func (svc *Service) DeletePost(ctx context.Context, usr user.User, id string) error {
	p, err := svc.repo.GetPost(ctx, usr.ID, id)
	if err != nil {
		return err
	}
	if !canDelete(usr, p.Author.ID) {
		return ErrNotAuthor
	}
	return svc.repo.DeletePost(ctx, id)
}

func (svc *Service) ListComments(ctx context.Context, viewer user.User, postID string) ([]Comment, error) {
	if _, err := svc.repo.GetPost(ctx, viewer.ID, postID); err != nil {
		return nil, err
	}
	return svc.repo.QueryComments(ctx, viewer.ID, postID)
}

// AddComment comments on a post and lets the post author know.
func (svc *Service) AddComment(ctx context.Context, author user.User, postID string, nc NewComment) (Comment, error) {
	p, err := svc.repo.GetPost(ctx, author.ID, postID)
	if err != nil {
		return Comment{}, err
	}
	c, err := svc.repo.CreateComment(ctx, author.ID, Comment{PostID: p.ID, Content: nc.Content, CreatedAt: core.NowFunc()})
	if err != nil {
		return Comment{}, err
	}
	if p.Author.ID != author.ID {
		svc.notify(ctx, notification.NewNotification{
			UserID: p.Author.ID,
			Kind:   notification.KindComment,
			Title:  author.DisplayName() + " commented on your post",
			Body:   excerpt(nc.Content),
			Link:   "/forum/" + p.ID,
		})
	}
	return svc.repo.GetComment(ctx, author.ID, c.ID)
}

func (svc *Service) DeleteComment(ctx context.Context, usr user.User, id string) error {
	c, err := svc.repo.GetComment(ctx, usr.ID, id)
	if err != nil {
		return err
	}
	if !canDelete(usr, c.Author.ID) {
		return ErrNotAuthor
	}
	return svc.repo.DeleteComment(ctx, id)
}

// ToggleFire fires or un-fires a post or a comment. Authors are notified when someone else fires their content.
func (svc *Service) ToggleFire(ctx context.Context, usr user.User, targetType, targetID string) (FireResult, error) {
	var authorID, link string
	switch targetType {
	case TargetPost:
		p, err := svc.repo.GetPost(ctx, usr.ID, targetID)
		if err != nil {
			return FireResult{}, err
		}
		authorID, link = p.Author.ID, "/forum/"+p.ID
	case TargetComment:
		c, err := svc.repo.GetComment(ctx, usr.ID, targetID)
		if err != nil {
			return FireResult{}, err
		}
		authorID, link = c.Author.ID, "/forum/"+c.PostID
	default:
		return FireResult{}, core.NewValidationError(ErrInvalidTarget)
	}

	fired, err := svc.repo.ToggleFire(ctx, targetType, targetID, usr.ID, core.NowFunc())
	if err != nil {
		return FireResult{}, errors.Wrap(err, "toggling fire")
	}
	count, err := svc.repo.CountFires(ctx, targetType, targetID)
	if err != nil {
		return FireResult{}, errors.Wrap(err, "counting fires")
	}

	if fired && authorID != usr.ID {
		svc.notify(ctx, notification.NewNotification{
			UserID: authorID,
			Kind:   notification.KindFire,
			Title:  usr.DisplayName() + " fired your " + targetType,
			Link:   link,
		})
	}
	return FireResult{TargetType: targetType, TargetID: targetID, Fired: fired, FireCount: count}, nil
}

func excerpt(s string) string {
	const max = 140
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
