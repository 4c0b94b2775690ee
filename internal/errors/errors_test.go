package gerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/aquascene/waitlist/internal/entity"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"configuration", fmt.Errorf("mailer: %w", ErrConfiguration), http.StatusInternalServerError},
		{"rate limited", &RateLimitedError{Decision: entity.Decision{RetryAfter: time.Minute}}, http.StatusTooManyRequests},
		{"validation", NewValidation(map[string]string{"email": "Invalid email address"}), http.StatusBadRequest},
		{"consent", ErrConsentRequired, http.StatusBadRequest},
		{"duplicate", &DuplicateError{Position: 1}, http.StatusConflict},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestFieldViolations(t *testing.T) {
	err := NewValidation(map[string]string{
		"email": "Invalid email address",
		"name":  "Name is required",
	})

	fields := FieldViolations(err)
	assert.Equal(t, map[string]string{
		"email": "Invalid email address",
		"name":  "Name is required",
	}, fields)

	assert.Nil(t, FieldViolations(ErrConsentRequired))
	assert.Nil(t, FieldViolations(errors.New("boom")))
}

func TestMessageHidesInternalDetail(t *testing.T) {
	assert.Equal(t, "An unexpected error occurred. Please try again later.", Message(errors.New("dial tcp: connection refused")))
	assert.Equal(t, "Service configuration error", Message(fmt.Errorf("missing api key: %w", ErrConfiguration)))
	assert.Equal(t, "GDPR consent is required", Message(ErrConsentRequired))
	assert.Equal(t, "This email is already on the waitlist", Message(&DuplicateError{Position: 3}))
}

func TestTypedErrorsUnwrap(t *testing.T) {
	assert.ErrorIs(t, &RateLimitedError{}, ErrRateLimited)
	assert.ErrorIs(t, &DuplicateError{}, ErrDuplicate)
	assert.NotErrorIs(t, ErrUnexpected, ErrConfiguration)
}
