package validator

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,password"`
	Role     string `json:"role" validate:"omitempty,oneof=learner contributor admin"`
}

type resourceForm struct {
	Title      string  `json:"title" validate:"required,max=10"`
	URL        string  `json:"url" validate:"required,url"`
	Difficulty int     `json:"difficulty" validate:"gte=1,lte=5"`
	SkillIDs   []int64 `json:"skill_ids" validate:"max=2"`
}

func TestValidate_Valid(t *testing.T) {
	err := Validate(signup{Email: "a@x.com", Password: "longenough", Role: "learner"})
	assert.NoError(t, err)
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	err := Validate(signup{})
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	fields := ve.Fields()
	assert.Equal(t, "is required", fields["email"])
	assert.Equal(t, "is required", fields["password"])
	assert.NotContains(t, fields, "role")
}

func TestValidate_Messages(t *testing.T) {
	err := Validate(signup{Email: "nope", Password: "short", Role: "owner"})
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	fields := ve.Fields()
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at least 8 characters", fields["password"])
	assert.Equal(t, "must be one of: learner contributor admin", fields["role"])
	assert.Contains(t, err.Error(), "field 'email'")
}

func TestValidate_PasswordByteLimit(t *testing.T) {
	// 40 two-byte runes: 40 characters but 80 bytes.
	long := strings.Repeat("é", 40)
	err := Validate(signup{Email: "a@x.com", Password: long})
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "must be at most 72 bytes", ve.Fields()["password"])
}

func TestValidate_NumericAndSliceMessages(t *testing.T) {
	err := Validate(resourceForm{
		Title:      "a title that is far too long",
		URL:        "not a url",
		Difficulty: 9,
		SkillIDs:   []int64{1, 2, 3},
	})
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	fields := ve.Fields()
	assert.Equal(t, "must be at most 10 characters", fields["title"])
	assert.Equal(t, "must be a valid URL", fields["url"])
	assert.Equal(t, "must be less than or equal to 5", fields["difficulty"])
	assert.Equal(t, "must contain at most 2 items", fields["skill_ids"])
}

func TestDecodeAndValidate(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@x.com","password":"longenough"}`))
	var dst signup
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, "a@x.com", dst.Email)

	bad := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	err := DecodeAndValidate(bad, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
