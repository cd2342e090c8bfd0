package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/nuvatw/nuva-club/core"
)

// Roles
const (
	// Guardian (admin)
	RoleGuardian      = "guardian:"
	RoleGuardianOwner = "guardian:owner"

	// Nunu (coach)
	RoleNunu = "nunu:"

	// Vava (student)
	RoleVava = "vava:"
)

const (
	MinLevel = 1
	MaxLevel = 12
)

var (
	GuardianRoles = []string{RoleGuardian, RoleGuardianOwner}
	NunuRoles     = []string{RoleNunu}
	VavaRoles     = []string{RoleVava}
	AllRoles      = getAllRoles()

	rolePriorities = map[string]int{
		// Guardians: 30 - 21
		RoleGuardianOwner: 30,
		RoleGuardian:      21,

		// Nunus: 20 - 11
		RoleNunu: 11,

		// Vavas: 10 - 1
		RoleVava: 1,
	}

	Roles = []Role{
		{Name: "Vava", Value: RoleVava},
		{Name: "Nunu", Value: RoleNunu},
		{Name: "Guardian", Value: RoleGuardian},
		{Name: "Guardian Owner", Value: RoleGuardianOwner},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 4)
	all = append(all, GuardianRoles...)
	all = append(all, NunuRoles...)
	all = append(all, VavaRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Bio          string    `json:"bio"`
	AvatarURL    string    `json:"avatar_url"`
	Level        int       `json:"level"`
	IsActive     bool      `json:"is_active"`
	Roles        []string  `json:"roles"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsGuardian() bool {
	return u.RoleStartsWith(RoleGuardian)
}

func (u *User) IsNunu() bool {
	return u.RoleStartsWith(RoleNunu)
}

func (u *User) IsVava() bool {
	return u.RoleStartsWith(RoleVava)
}

// Person returns the identity used in error reports.
func (u User) Person() core.Person {
	return core.Person{ID: u.ID, Username: u.Username, Email: u.Email}
}

// DisplayName falls back to the username when no name is set.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// NewUser contains information needed by a guardian to create a new User.
type NewUser struct {
	Name            string   `json:"name" validate:"required"`
	Username        string   `json:"username" validate:"omitempty,username"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
	Level           int      `json:"level" validate:"omitempty,min=1,max=12"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	return validate.Struct(nu)
}

// Signup contains information a visitor provides to join the club as a Vava.
type Signup struct {
	Name                  string `json:"name" validate:"required"`
	Username              string `json:"username" validate:"required,username"`
	Email                 string `json:"email" validate:"required,email"`
	Password              string `json:"password" validate:"required"`
	PasswordConfirm       string `json:"password_confirm" validate:"required,eqfield=Password"`
	IgnoreEmailSuggestion bool   `json:"ignore_email_suggestion,omitempty"`
}

func (s *Signup) Validate(validate *validator.Validate) error {
	s.Name = core.CleanString(s.Name)
	s.Username = core.CleanString(s.Username, true /* lower */)
	s.Email = core.CleanString(s.Email, true /* lower */)
	if err := validate.Struct(s); err != nil {
		return err
	}
	if !s.IgnoreEmailSuggestion {
		if suggestion := SuggestEmail(s.Email); suggestion != "" {
			return core.NewFieldError("email", "did you mean "+suggestion+"?")
		}
	}
	return nil
}

// UpdateUser defines what information may be provided by a guardian to modify an existing User.
type UpdateUser struct {
	Name            string   `json:"name"`
	Username        string   `json:"username" validate:"omitempty,username"`
	Email           string   `json:"email" validate:"omitempty,email"`
	IsActive        *bool    `json:"is_active"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
	Level           int      `json:"level" validate:"omitempty,min=1,max=12"`
	Password        string   `json:"password" validate:"omitempty"`
	PasswordConfirm string   `json:"password_confirm" validate:"required_with=Password,omitempty,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}
	if uname := core.CleanString(uu.Username, true /* lower */); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}
	return validate.Struct(uu)
}

// UpdateProfile defines what a member may change on their own profile.
type UpdateProfile struct {
	Name     *string `json:"name" validate:"omitempty,notblank,max=80"`
	Username *string `json:"username" validate:"omitempty,username"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	if up.Name != nil {
		name := core.CleanString(*up.Name)
		up.Name = &name
	}
	if up.Username != nil {
		uname := core.CleanString(*up.Username, true /* lower */)
		up.Username = &uname
	}
	if up.Bio != nil {
		bio := core.CleanString(*up.Bio)
		up.Bio = &bio
	}
	return validate.Struct(up)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single user; the first non-empty field wins.
type GetFilter struct {
	ID              string
	Username        string
	Email           string
	UsernameOrEmail string
}

// Availability is the answer to a username availability check.
type Availability struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}
