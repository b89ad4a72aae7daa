package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/workcity/chat-admin/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("permission", func(fl validator.FieldLevel) bool {
		return domain.IsPermission(fl.Field().String())
	})
	return v
}

type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type SignupForm struct {
	Name            string `form:"name" validate:"required,max=100"`
	Email           string `form:"email" validate:"required,email"`
	Phone           string `form:"phone" validate:"omitempty,max=32"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
}

type UserForm struct {
	Name     string `form:"name" validate:"required,max=100"`
	Email    string `form:"email" validate:"required,email"`
	Role     string `form:"role" validate:"required,oneof=user moderator admin"`
	Active   bool   `form:"active"`
	Password string `form:"password" validate:"omitempty,min=6"`
}

type RoleForm struct {
	Name        string   `form:"name" validate:"required,max=50"`
	Description string   `form:"description" validate:"max=500"`
	Permissions []string `form:"permissions" validate:"dive,permission"`
}

type ProfileForm struct {
	Name       string `form:"name" validate:"required,max=100"`
	Email      string `form:"email" validate:"required,email"`
	Phone      string `form:"phone" validate:"omitempty,max=32"`
	Department string `form:"department" validate:"max=100"`
	Position   string `form:"position" validate:"max=100"`
	Location   string `form:"location" validate:"max=100"`
	Timezone   string `form:"timezone" validate:"max=64"`
	Bio        string `form:"bio" validate:"max=2000"`
}

type PasswordForm struct {
	CurrentPassword string `form:"currentPassword" validate:"required"`
	NewPassword     string `form:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// validateForm returns one message per invalid form field, keyed by the
// field's form name, or nil when v is valid.
func validateForm(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fe.Field()
		if i := strings.IndexByte(key, '['); i >= 0 {
			key = key[:i]
		}
		if _, seen := out[key]; !seen {
			out[key] = formatFieldError(fe, key)
		}
	}
	return out
}

func formatFieldError(fe validator.FieldError, key string) string {
	field := label(key)

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eqfield":
		return "Passwords do not match"
	case "permission":
		return fmt.Sprintf("%q is not a known permission", fe.Value())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// label turns a form key like "confirmPassword" into "Confirm password".
func label(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// clean trims whitespace and strips control characters from a text input.
func clean(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)
}

func cleanEmail(s string) string {
	return strings.ToLower(clean(s))
}
