package services

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const passwordSpecials = "@$!%*?&"

var usernamePattern = regexp.MustCompile(`^[a-zA-Z\s]*$`)

// RegisterInput is the registration payload.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize trims the identifiers and lowercases the email.
func (in *RegisterInput) Normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
}

func (in RegisterInput) Validate() error {
	return wrapValidation(validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(0, 255), is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 0), validation.By(passwordBytes), validation.By(strongPassword)),
		validation.Field(&in.Username, validation.Required, validation.Length(3, 100),
			validation.Match(usernamePattern).Error("must contain only letters and spaces")),
	))
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *LoginInput) Normalize() {
	in.Email = normalizeEmail(in.Email)
}

func (in LoginInput) Validate() error {
	return wrapValidation(validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required),
	))
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var errPasswordTooLong = fmt.Errorf("must be at most %d bytes", cryptox.MaxPasswordBytes)

// passwordBytes caps the input at what bcrypt accepts.
func passwordBytes(value interface{}) error {
	s, _ := value.(string)
	if len(s) > cryptox.MaxPasswordBytes {
		return errPasswordTooLong
	}
	return nil
}

// strongPassword requires an ASCII lowercase letter, an ASCII uppercase
// letter, an ASCII digit and one of passwordSpecials.
func strongPassword(value interface{}) error {
	s, _ := value.(string)
	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			lower = true
		case 'A' <= r && r <= 'Z':
			upper = true
		case '0' <= r && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return fmt.Errorf("must contain an uppercase letter, a lowercase letter, a digit and one of %s", passwordSpecials)
	}
	return nil
}

// ValidationError carries per-field messages and matches common.ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString(common.ErrValidation.Error())
	sep := ": "
	for _, k := range sortedKeys(e.Fields) {
		b.WriteString(sep)
		b.WriteString(k)
		b.WriteString(" ")
		b.WriteString(e.Fields[k])
		sep = "; "
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return common.ErrValidation }

func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	fields := make(map[string]string, len(verrs))
	for k, v := range verrs {
		fields[k] = v.Error()
	}
	return &ValidationError{Fields: fields}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
