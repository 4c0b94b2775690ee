package form

import (
	"strings"
	"testing"

	"github.com/aquascene/waitlist/internal/dto"
	gerr "github.com/aquascene/waitlist/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() *dto.WaitlistRequest {
	return &dto.WaitlistRequest{
		Name:        "Ada",
		Email:       "ada@example.com",
		Experience:  "beginner",
		Interests:   []string{"3d_design"},
		GDPRConsent: true,
	}
}

func TestValidateWaitlistRequest_Valid(t *testing.T) {
	req := validRequest()
	req.Name = "  Ada  "
	req.Experience = " Advanced"
	req.Locale = "HU"

	require.NoError(t, ValidateWaitlistRequest(req))
	assert.Equal(t, "Ada", req.Name)
	assert.Equal(t, "advanced", req.Experience)
	assert.Equal(t, "hu", req.Locale)
}

func TestValidateWaitlistRequest_NoInterests(t *testing.T) {
	req := validRequest()
	req.Interests = nil
	assert.NoError(t, ValidateWaitlistRequest(req))
}

func TestValidateWaitlistRequest_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *dto.WaitlistRequest)
		field  string
		msg    string
	}{
		{"missing name", func(r *dto.WaitlistRequest) { r.Name = "   " }, "name", "Name is required."},
		{"long name", func(r *dto.WaitlistRequest) { r.Name = strings.Repeat("a", 101) }, "name", "Name must be at most 100 characters."},
		{"bad email", func(r *dto.WaitlistRequest) { r.Email = "not-an-email" }, "email", "Invalid email address."},
		{"missing email", func(r *dto.WaitlistRequest) { r.Email = "" }, "email", "Email is required."},
		{"bad experience", func(r *dto.WaitlistRequest) { r.Experience = "guru" }, "experience", "Please select a valid experience level."},
		{"unknown interest", func(r *dto.WaitlistRequest) { r.Interests = []string{"community", "fishing"} }, "interests", `Unknown interest "fishing".`},
		{"repeated interest", func(r *dto.WaitlistRequest) { r.Interests = []string{"community", "community"} }, "interests", "Interests must not repeat."},
		{"bad locale", func(r *dto.WaitlistRequest) { r.Locale = "de" }, "locale", "Unsupported locale."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := ValidateWaitlistRequest(req)
			require.Error(t, err)

			fields := gerr.FieldViolations(err)
			require.Contains(t, fields, tt.field)
			assert.Equal(t, tt.msg, fields[tt.field])
		})
	}
}

func TestValidateWaitlistRequest_MultipleFields(t *testing.T) {
	req := &dto.WaitlistRequest{Email: "nope"}

	err := ValidateWaitlistRequest(req)
	require.Error(t, err)

	fields := gerr.FieldViolations(err)
	assert.Len(t, fields, 3)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "experience")
}
