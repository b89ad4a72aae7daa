package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateForm_Valid(t *testing.T) {
	assert.Nil(t, validateForm(LoginForm{Email: "a@b.com", Password: "x"}))
}

func TestValidateForm_KeysByFormName(t *testing.T) {
	errs := validateForm(SignupForm{Name: "Ann", Email: "a@b.com", Password: "secret1", ConfirmPassword: "other"})
	assert.Equal(t, map[string]string{"confirmPassword": "Passwords do not match"}, errs)
}

func TestValidateForm_Permissions(t *testing.T) {
	assert.Nil(t, validateForm(RoleForm{Name: "ops", Permissions: []string{"manage_users", "system_admin"}}))

	errs := validateForm(RoleForm{Name: "ops", Permissions: []string{"fly"}})
	assert.Contains(t, errs["permissions"], "fly")
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Confirm password", label("confirmPassword"))
	assert.Equal(t, "Email", label("email"))
}

func TestClean(t *testing.T) {
	assert.Equal(t, "Ann", clean("  An\x00n\x07 "))
	assert.Equal(t, "line\nbreak", clean("line\nbreak"))
	assert.Equal(t, "a@b.com", cleanEmail(" A@B.COM "))
}
