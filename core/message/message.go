package message

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/notification"
	"github.com/nuvatw/nuva-club/core/user"
)

var (
	ErrRecipientNotFound = core.NewNotFoundError("recipient")
	ErrSelfMessage       = errors.New("you cannot message yourself")
)

type Message struct {
	ID        string       `json:"id"`
	Sender    core.UserRef `json:"sender"`
	Recipient core.UserRef `json:"recipient"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	ReadAt    time.Time    `json:"read_at"`
}

// Conversation summarizes the exchange with one partner in the inbox.
type Conversation struct {
	Partner     core.UserRef `json:"partner"`
	LastMessage Message      `json:"last_message"`
	UnreadCount int          `json:"unread_count"`
}

type NewMessage struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Content     string `json:"content" validate:"required,notblank,max=5000"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Content = core.CleanString(nm.Content)
	return validate.Struct(nm)
}

type (
	Repository interface {
		CreateMessage(ctx context.Context, m Message) (Message, error)
		// QueryConversation lists the messages between a and b oldest first.
		QueryConversation(ctx context.Context, a, b string, page core.Page) ([]Message, error)
		// QueryInbox lists one Conversation per partner of userID, the most recent first.
		QueryInbox(ctx context.Context, userID string, page core.Page) ([]Conversation, error)
		// MarkRead marks the messages from senderID to recipientID as read and returns how many changed.
		MarkRead(ctx context.Context, recipientID, senderID string, at time.Time) (int, error)
		CountUnread(ctx context.Context, recipientID string) (int, error)
	}

	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Notifier interface {
		Notify(ctx context.Context, nns ...notification.NewNotification) error
	}

	Service struct {
		repo     Repository
		users    UserGetter
		notifier Notifier
		logger   core.Logger
	}
)

func NewService(repo Repository, users UserGetter, notifier Notifier, logger core.Logger) *Service {
	return &Service{repo: repo, users: users, notifier: notifier, logger: logger}
}

func userRef(usr user.User) core.UserRef {
	return core.UserRef{ID: usr.ID, Name: usr.Name, Username: usr.Username, AvatarURL: usr.AvatarURL}
}

// Send delivers a message and notifies the recipient.
func (svc *Service) Send(ctx context.Context, sender user.User, nm NewMessage) (Message, error) {
	if nm.RecipientID == sender.ID {
		return Message{}, core.NewValidationError(ErrSelfMessage, core.FieldError{Field: "recipient_id", Error: ErrSelfMessage.Error()})
	}
	recipient, err := svc.users.GetByID(ctx, nm.RecipientID)
	if err != nil {
		if core.IsNotFound(err) {
			return Message{}, ErrRecipientNotFound
		}
		return Message{}, err
	}

	m, err := svc.repo.CreateMessage(ctx, Message{
		Sender:    userRef(sender),
		Recipient: userRef(recipient),
		Content:   nm.Content,
		CreatedAt: core.NowFunc(),
	})
	if err != nil {
		return Message{}, err
	}

	if err := svc.notifier.Notify(ctx, notification.NewNotification{
		UserID: recipient.ID,
		Kind:   notification.KindMessage,
		Title:  "New message from " + sender.DisplayName(),
		Link:   "/messages/" + sender.ID,
	}); err != nil {
		svc.logger.Error("sending notification", err)
	}
	return m, nil
}

func (svc *Service) Conversation(ctx context.Context, usr user.User, partnerID string, page core.Page) ([]Message, error) {
	return svc.repo.QueryConversation(ctx, usr.ID, partnerID, page.Normalize())
}

// Inbox lists one entry per partner, the most recent conversation first.
func (svc *Service) Inbox(ctx context.Context, usr user.User, page core.Page) ([]Conversation, error) {
	return svc.repo.QueryInbox(ctx, usr.ID, page.Normalize())
}

func (svc *Service) MarkConversationRead(ctx context.Context, usr user.User, partnerID string) (int, error) {
	return svc.repo.MarkRead(ctx, usr.ID, partnerID, core.NowFunc())
}

func (svc *Service) UnreadCount(ctx context.Context, usr user.User) (int, error) {
	return svc.repo.CountUnread(ctx, usr.ID)
}
