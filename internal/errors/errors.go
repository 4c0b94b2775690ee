package gerr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/aquascene/waitlist/internal/entity"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrConfiguration   = status.Error(codes.Internal, "Service configuration error")
	ErrRateLimited     = status.Error(codes.ResourceExhausted, "Too many requests. Please try again later.")
	ErrValidation      = status.Error(codes.InvalidArgument, "Validation failed")
	ErrConsentRequired = status.Error(codes.FailedPrecondition, "GDPR consent is required")
	ErrDuplicate       = status.Error(codes.AlreadyExists, "This email is already on the waitlist")
	ErrUnauthorized    = status.Error(codes.Unauthenticated, "Unauthorized")
	ErrUnexpected      = status.Error(codes.Internal, "An unexpected error occurred. Please try again later.")

	// notification errors never leave the mailer
	MailApiLimitReached = status.Error(codes.ResourceExhausted, "mail api limit reached")
)

// RateLimitedError carries the limiter decision that rejected the request.
type RateLimitedError struct {
	Decision entity.Decision
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.Decision.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// DuplicateError carries the position of the entry already stored for the email.
type DuplicateError struct {
	Position int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("email already on the waitlist at position %d", e.Position)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// NewValidation returns an InvalidArgument status with one field violation per field.
func NewValidation(fields map[string]string) error {
	br := &errdetails.BadRequest{}

	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)

	for _, f := range names {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       f,
			Description: fields[f],
		})
	}

	st, err := status.New(codes.InvalidArgument, "Validation failed").WithDetails(br)
	if err != nil {
		return status.New(codes.Internal, err.Error()).Err()
	}
	return st.Err()
}

// FieldViolations extracts the field -> message map from a validation error.
func FieldViolations(err error) map[string]string {
	st, ok := status.FromError(err)
	if !ok {
		return nil
	}
	var fields map[string]string
	for _, d := range st.Details() {
		br, ok := d.(*errdetails.BadRequest)
		if !ok {
			continue
		}
		for _, fv := range br.GetFieldViolations() {
			if fields == nil {
				fields = make(map[string]string)
			}
			fields[fv.GetField()] = fv.GetDescription()
		}
	}
	return fields
}

// HTTPStatus maps an error to the response status. Anything that is not a
// status error is a 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var se interface{ GRPCStatus() *status.Status }
	if !errors.As(err, &se) {
		return http.StatusInternalServerError
	}
	return runtime.HTTPStatusFromCode(se.GRPCStatus().Code())
}

// Message returns the client facing message of err, never internal detail.
func Message(err error) string {
	var se interface{ GRPCStatus() *status.Status }
	if !errors.As(err, &se) {
		return status.Convert(ErrUnexpected).Message()
	}
	if se.GRPCStatus().Code() == codes.Internal || se.GRPCStatus().Code() == codes.Unknown {
		if errors.Is(err, ErrConfiguration) {
			return status.Convert(ErrConfiguration).Message()
		}
		return status.Convert(ErrUnexpected).Message()
	}
	return se.GRPCStatus().Message()
}
