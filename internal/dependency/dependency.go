package dependency

import (
	"context"

	"github.com/aquascene/waitlist/internal/dto"
	"github.com/aquascene/waitlist/internal/entity"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type (
	// Ledger is the append-only waitlist store.
	Ledger interface {
		// Append stores a new entry and assigns its position. If the email is
		// already present the stored entry is returned with store.ErrDuplicateEmail.
		Append(ctx context.Context, s *entity.Submission) (*entity.WaitlistEntry, error)
		// FindByEmail looks an entry up ignoring case.
		FindByEmail(ctx context.Context, email string) (*entity.WaitlistEntry, bool)
		// Stats aggregates the ledger without mutating it.
		Stats(ctx context.Context, recent int) *entity.WaitlistStats
		Len() int
	}

	RateLimiter interface {
		// Check consumes one attempt for key if the window has room.
		Check(ctx context.Context, key string) (entity.Decision, error)
	}

	// Notifier hands accepted entries off for best-effort delivery.
	Notifier interface {
		// Ready reports whether the provider credentials are configured.
		Ready() error
		// Dispatch never blocks and never reports delivery failures.
		Dispatch(we *entity.WaitlistEntry, clientIP string)
	}

	Mailer interface {
		Notifier
		SendWelcome(ctx context.Context, we *entity.WaitlistEntry) error
		SendSignupNotification(ctx context.Context, we *entity.WaitlistEntry, clientIP string) error
		Start(ctx context.Context) error
		Stop() error
	}

	// Waitlist is the intake service behind the HTTP API.
	Waitlist interface {
		Submit(ctx context.Context, req *dto.WaitlistRequest, clientIP string) (*WaitlistResult, error)
		Stats(ctx context.Context, providedKey, clientIP string) (*entity.WaitlistStats, error)
	}

	// Sender is the email provider client.
	Sender interface {
		SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
	}
)

// WaitlistResult is what an accepted (or silently discarded) submission returns.
type WaitlistResult struct {
	Position int
}
