package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuvatw/nuva-club/core"
)

func newTestValidator() *validator.Validate {
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)
	return validate
}

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "Ab1!", wantTag: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 1234!", wantTag: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", wantTag: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcdefg123", wantTag: pwdComplexityTag},
		{name: "no upper", pwd: "abcdefg12!", wantTag: pwdComplexityTag},
		{name: "similar to username", pwd: "Olivia_99!", wantTag: pwdAttrSimTag},
		{name: "common", pwd: "P@$$w0rd", wantTag: pwdNoCommonTag},
		{name: "valid", pwd: "Tr0ub4dor&3x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commonPasswordsOnce.Do(loadCommonPasswords)
			assert.Equal(t, tt.wantTag, checkPassword(tt.pwd, "Olivia", "olivia_99", "olivia@nuva.tw"))
		})
	}
}

func TestSignupValidate(t *testing.T) {
	validate := newTestValidator()

	valid := func() Signup {
		return Signup{
			Name:            " Mei ",
			Username:        " Mei_Lin ",
			Email:           "mei@example.com",
			Password:        "Tr0ub4dor&3x",
			PasswordConfirm: "Tr0ub4dor&3x",
		}
	}

	t.Run("valid input is cleaned", func(t *testing.T) {
		su := valid()
		require.NoError(t, su.Validate(validate))
		assert.Equal(t, "Mei", su.Name)
		assert.Equal(t, "mei_lin", su.Username)
	})

	t.Run("bad username", func(t *testing.T) {
		su := valid()
		su.Username = "9lives"
		err := su.Validate(validate)
		var vErrs validator.ValidationErrors
		require.ErrorAs(t, err, &vErrs)
		assert.Equal(t, "username", vErrs[0].Field())
	})

	t.Run("reserved username", func(t *testing.T) {
		su := valid()
		su.Username = "guardian"
		err := su.Validate(validate)
		var vErrs validator.ValidationErrors
		require.ErrorAs(t, err, &vErrs)
		assert.Equal(t, reservedTag, vErrs[0].Tag())
	})

	t.Run("password mismatch", func(t *testing.T) {
		su := valid()
		su.PasswordConfirm = "nope"
		err := su.Validate(validate)
		var vErrs validator.ValidationErrors
		require.ErrorAs(t, err, &vErrs)
		assert.Equal(t, "password_confirm", vErrs[0].Field())
	})

	t.Run("email typo", func(t *testing.T) {
		su := valid()
		su.Email = "mei@gmial.com"
		err := su.Validate(validate)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, []core.FieldError{{Field: "email", Error: "did you mean mei@gmail.com?"}}, vErr.Fields)
	})

	t.Run("email typo ignored", func(t *testing.T) {
		su := valid()
		su.Email = "mei@gmial.com"
		su.IgnoreEmailSuggestion = true
		assert.NoError(t, su.Validate(validate))
	})
}

func TestNewUserValidate(t *testing.T) {
	validate := newTestValidator()

	nu := NewUser{Name: "Kai", Password: "Tr0ub4dor&3x", PasswordConfirm: "Tr0ub4dor&3x"}
	err := nu.Validate(validate)
	var vErrs validator.ValidationErrors
	require.ErrorAs(t, err, &vErrs)
	fields := map[string]string{}
	for _, fe := range vErrs {
		fields[fe.Field()] = fe.Tag()
	}
	assert.Equal(t, map[string]string{"username": usernameOrEmailTag, "email": usernameOrEmailTag}, fields)

	nu = NewUser{
		Name:            "Kai",
		Username:        "kai",
		Password:        "Tr0ub4dor&3x",
		PasswordConfirm: "Tr0ub4dor&3x",
		Roles:           []string{RoleNunu, "mentor:"},
	}
	err = nu.Validate(validate)
	require.ErrorAs(t, err, &vErrs)
	assert.Equal(t, allRolesTag, vErrs[0].Tag())

	nu.Roles = []string{RoleNunu}
	assert.NoError(t, nu.Validate(validate))
}

func TestIsReservedUsername(t *testing.T) {
	assert.True(t, IsReservedUsername("Admin"))
	assert.True(t, IsReservedUsername("nunu"))
	assert.False(t, IsReservedUsername("nunu_kai"))
}
