package user

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
)

var (
	// errors
	ErrNotFound       = core.NewNotFoundError("user")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
	ErrInvalidToken   = errors.New("invalid or expired password reset link")
)

type (
	Repository interface {
		// CheckUsernameUniqueness returns ErrUsernameExists or ErrEmailExists when a user
		// other than excludedIDs already holds username or email (case-insensitive).
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedIDs ...string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) error
	}

	// CreateHook runs in the transaction that inserts usr.
	CreateHook func(ctx context.Context, usr User) error

	Service struct {
		repo     Repository
		mailSvc  core.EmailService
		conf     *core.Config
		tokens   tokenGenerator
		tx       core.Transactor
		onCreate []CreateHook
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
		tokens:  newTokenGenerator(conf),
		tx:      core.NopTransactor{},
	}
}

// UseTransactor makes Create atomic with its hooks.
func (svc *Service) UseTransactor(tx core.Transactor) {
	svc.tx = tx
}

// OnCreate registers a hook for every new user. A failing hook cancels the creation.
func (svc *Service) OnCreate(hook CreateHook) {
	svc.onCreate = append(svc.onCreate, hook)
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email string, exclIDs ...string) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, exclIDs...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Create is used by guardians and the admin CLI. Users get the Vava role when none is given.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.checkUniqueness(ctx, nu.Username, nu.Email); err != nil {
		return User{}, err
	}

	now := core.NowFunc()
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		Level:     nu.Level,
		IsActive:  true,
		Roles:     nu.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(usr.Roles) == 0 {
		usr.Roles = []string{RoleVava}
	}
	if usr.Level == 0 {
		usr.Level = MinLevel
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}

	err := svc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if usr, err = svc.repo.CreateUser(ctx, usr); err != nil {
			return err
		}
		for _, hook := range svc.onCreate {
			if err = hook(ctx, usr); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}
	return usr, nil
}

// Signup registers a new Vava and sends the welcome email.
func (svc *Service) Signup(ctx context.Context, su Signup) (User, error) {
	usr, err := svc.Create(ctx, NewUser{
		Name:     su.Name,
		Username: su.Username,
		Email:    su.Email,
		Password: su.Password,
		Roles:    []string{RoleVava},
	})
	if err != nil {
		return User{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.DisplayName(), Address: usr.Email}},
		Subject:      "Welcome to " + svc.conf.AppName,
		TemplateName: "welcome",
		TemplateData: map[string]interface{}{"Name": usr.DisplayName(), "Level": usr.Level},
	})
	return usr, nil
}

// CheckUsernameAvailability reports whether uname can be claimed by a new member,
// or by the user excludedID when renaming.
func (svc *Service) CheckUsernameAvailability(ctx context.Context, uname string, excludedID ...string) (Availability, error) {
	uname = core.CleanString(uname, true /* lower */)
	av := Availability{Username: uname}
	switch {
	case !usernameRegex.MatchString(uname):
		av.Reason = usernameText
		return av, nil
	case IsReservedUsername(uname):
		av.Reason = reservedText
		return av, nil
	}

	err := svc.repo.CheckUsernameUniqueness(ctx, uname, "", excludedID...)
	switch err {
	case nil:
		av.Available = true
	case ErrUsernameExists:
		av.Reason = "this username is already taken"
	default:
		return Availability{}, err
	}
	return av, nil
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryUsers(ctx, filter, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Username: core.CleanString(uname, true /* lower */)})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
}

// Update applies a guardian's changes to usr. uu must have been validated against usr.
func (svc *Service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	if err := svc.checkUniqueness(ctx, uu.Username, uu.Email, usr.ID); err != nil {
		return User{}, err
	}

	usr.Name = uu.Name
	usr.Username = uu.Username
	usr.Email = uu.Email
	if uu.Roles != nil {
		usr.Roles = uu.Roles
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Level != 0 {
		usr.Level = uu.Level
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	usr.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateUser(ctx, usr)
}

// UpdateProfile applies a member's own changes. up must have been validated.
func (svc *Service) UpdateProfile(ctx context.Context, usr User, up UpdateProfile) (User, error) {
	if up.Username != nil && *up.Username != usr.Username {
		av, err := svc.CheckUsernameAvailability(ctx, *up.Username, usr.ID)
		if err != nil {
			return User{}, err
		}
		if !av.Available {
			return User{}, core.NewFieldError("username", av.Reason)
		}
		usr.Username = av.Username
	}
	if up.Name != nil {
		usr.Name = *up.Name
	}
	if up.Bio != nil {
		usr.Bio = *up.Bio
	}
	usr.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetAvatar(ctx context.Context, usr User, url string) (User, error) {
	usr.AvatarURL = url
	usr.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateUser(ctx, usr)
}

// SetLevel saves the level recommended by the placement exam.
func (svc *Service) SetLevel(ctx context.Context, usr User, level int) (User, error) {
	if level < MinLevel || level > MaxLevel {
		return User{}, core.NewFieldError("level", "level must be between 1 and 12")
	}
	usr.Level = level
	usr.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = core.NowFunc()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

// RequestPasswordReset mails a reset link to the active user registered with email.
// Unknown emails are ignored silently.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !usr.IsActive {
		return nil
	}

	token, err := svc.tokens.makeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.DisplayName(), Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{"Name": usr.DisplayName(), "UID": EncodeUID(usr), "Token": token},
	})
	return nil
}

// ResetPassword sets a new password when the reset token is valid.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) (User, error) {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return User{}, core.NewValidationError(ErrInvalidToken)
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, core.NewValidationError(ErrInvalidToken)
		}
		return User{}, err
	}
	if err := svc.tokens.verifyToken(usr, rp.Token); err != nil {
		return User{}, core.NewValidationError(ErrInvalidToken)
	}

	if err := usr.SetPassword(rp.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateUser(ctx, usr)
}

// MakePasswordResetToken is used by the admin CLI to print a reset link.
func (svc *Service) MakePasswordResetToken(usr User) (uid, token string, err error) {
	token, err = svc.tokens.makeToken(usr)
	return EncodeUID(usr), token, err
}
