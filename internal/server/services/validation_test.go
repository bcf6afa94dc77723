package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterInput_Normalize(t *testing.T) {
	in := RegisterInput{Username: "  Alice ", Email: "  ALICE@Example.com\t", Password: " keep "}
	in.Normalize()

	assert.Equal(t, "Alice", in.Username)
	assert.Equal(t, "alice@example.com", in.Email)
	assert.Equal(t, " keep ", in.Password, "passwords are never trimmed")
}

func TestRegisterInput_Validate_OK(t *testing.T) {
	in := RegisterInput{Username: "Alice Smith", Email: "alice@example.com", Password: "Abcdef1&"}
	assert.NoError(t, in.Validate())
}

func TestRegisterInput_Validate_CollectsAllFields(t *testing.T) {
	err := RegisterInput{}.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 3)
	assert.True(t, errors.Is(err, common.ErrValidation))
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "password")
	assert.Contains(t, err.Error(), "username")
}

func TestRegisterInput_Validate_LongEmail(t *testing.T) {
	local := make([]byte, 260)
	for i := range local {
		local[i] = 'a'
	}
	in := RegisterInput{Username: "Alice", Email: string(local) + "@x.io", Password: "Abcdef1&"}

	var verr *ValidationError
	require.True(t, errors.As(in.Validate(), &verr))
	assert.Contains(t, verr.Fields, "email")
}

func TestLoginInput_Validate(t *testing.T) {
	assert.NoError(t, LoginInput{Email: "a@b.io", Password: "x"}.Validate())
	assert.ErrorIs(t, LoginInput{Email: "a@b.io"}.Validate(), common.ErrValidation)
	assert.ErrorIs(t, LoginInput{Email: "nope", Password: "x"}.Validate(), common.ErrValidation)
}

func TestStrongPassword(t *testing.T) {
	tests := map[string]bool{
		"Abcdef1&":  true,
		"abcdef1&":  false,
		"ABCDEF1&":  false,
		"Abcdefg&":  false,
		"Abcdefg1":  false,
		"Pa$$w0rd!": true,
		"Éabcde1&":  false,
		"ABCDEé1&":  false,
		"Abcdef٣&":  false,
	}
	for pw, ok := range tests {
		err := strongPassword(pw)
		if ok {
			assert.NoError(t, err, pw)
		} else {
			assert.Error(t, err, pw)
		}
	}
}

func TestRegisterInput_Validate_PasswordByteLimit(t *testing.T) {
	tests := []struct {
		name     string
		password string
		ok       bool
	}{
		{"exactly 72 bytes", "Aa1!" + strings.Repeat("a", 68), true},
		{"73 bytes", "Aa1!" + strings.Repeat("a", 69), false},
		{"multibyte runes over the byte limit", "Aa1!" + strings.Repeat("é", 40), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := RegisterInput{Username: "Bob", Email: "bob@example.com", Password: tt.password}
			err := in.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, "must be at most 72 bytes", verr.Fields["password"])
		})
	}
}
