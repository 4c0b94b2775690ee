// Package waitlist implements the signup admission pipeline and the admin
// statistics read.
package waitlist

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/aquascene/waitlist/internal/dependency"
	"github.com/aquascene/waitlist/internal/dto"
	"github.com/aquascene/waitlist/internal/entity"
	gerr "github.com/aquascene/waitlist/internal/errors"
	"github.com/aquascene/waitlist/internal/form"
	"github.com/aquascene/waitlist/internal/middleware"
	"github.com/aquascene/waitlist/internal/store"
)

const defaultRecentLimit = 10

type Config struct {
	AdminKey    string `mapstructure:"admin_key"`
	RecentLimit int    `mapstructure:"recent_limit"`
}

// Service owns the admission pipeline. The ledger and limiter it is given are
// the only shared mutable state.
type Service struct {
	c        Config
	ledger   dependency.Ledger
	limiter  dependency.RateLimiter
	notifier dependency.Notifier
	intn     func(n int) int
}

// New creates a new waitlist service.
func New(c *Config, ledger dependency.Ledger, limiter dependency.RateLimiter, notifier dependency.Notifier) *Service {
	cc := *c
	if cc.RecentLimit <= 0 {
		cc.RecentLimit = defaultRecentLimit
	}
	return &Service{
		c:        cc,
		ledger:   ledger,
		limiter:  limiter,
		notifier: notifier,
		intn:     rand.IntN,
	}
}

// Submit runs a signup through the pipeline: readiness, rate limit, schema,
// honeypot, consent, duplicate, acceptance. The first failing step decides
// the result. Notifications are handed off and never awaited.
func (s *Service) Submit(ctx context.Context, req *dto.WaitlistRequest, clientIP string) (*dependency.WaitlistResult, error) {
	if err := s.notifier.Ready(); err != nil {
		slog.Default().ErrorContext(ctx, "waitlist is not configured",
			slog.String("err", err.Error()),
		)
		return nil, err
	}

	d, err := s.limiter.Check(ctx, clientIP)
	if err != nil {
		slog.Default().ErrorContext(ctx, "can't check rate limit",
			slog.String("err", err.Error()),
			slog.String("client_ip", clientIP),
		)
		return nil, fmt.Errorf("can't check rate limit: %w", err)
	}
	if !d.Allowed {
		slog.Default().WarnContext(ctx, "rate limit exceeded",
			slog.String("client_ip", clientIP),
			slog.String("session", middleware.GetClientSession(ctx)),
			slog.Duration("retry_after", d.RetryAfter),
		)
		return nil, &gerr.RateLimitedError{Decision: d}
	}

	if err := form.ValidateWaitlistRequest(req); err != nil {
		slog.Default().WarnContext(ctx, "waitlist validation failed",
			slog.String("err", err.Error()),
			slog.String("client_ip", clientIP),
		)
		return nil, err
	}

	if strings.TrimSpace(req.Honeypot) != "" {
		slog.Default().WarnContext(ctx, "bot detected",
			slog.String("client_ip", clientIP),
			slog.String("session", middleware.GetClientSession(ctx)),
			slog.String("honeypot", req.Honeypot),
		)
		return &dependency.WaitlistResult{Position: s.intn(1000) + 100}, nil
	}

	if !req.GDPRConsent {
		return nil, gerr.ErrConsentRequired
	}

	we, err := s.ledger.Append(ctx, dto.WaitlistRequestToSubmission(req, clientIP))
	if errors.Is(err, store.ErrDuplicateEmail) {
		de := &gerr.DuplicateError{}
		if we != nil {
			de.Position = we.Position
		}
		slog.Default().InfoContext(ctx, "duplicate waitlist signup",
			slog.String("client_ip", clientIP),
			slog.Int("position", de.Position),
		)
		return nil, de
	}
	if err != nil {
		slog.Default().ErrorContext(ctx, "can't append to waitlist",
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("can't append to waitlist: %w", err)
	}

	s.notifier.Dispatch(we, clientIP)

	slog.Default().InfoContext(ctx, "successful waitlist signup",
		slog.String("entry_id", we.Id),
		slog.Int("position", we.Position),
		slog.String("client_ip", clientIP),
	)

	return &dependency.WaitlistResult{Position: we.Position}, nil
}

// Stats returns aggregate statistics when providedKey matches the admin key.
// An unset admin key rejects every caller.
func (s *Service) Stats(ctx context.Context, providedKey, clientIP string) (*entity.WaitlistStats, error) {
	if s.c.AdminKey == "" || subtle.ConstantTimeCompare([]byte(providedKey), []byte(s.c.AdminKey)) != 1 {
		slog.Default().WarnContext(ctx, "unauthorized admin access attempt",
			slog.String("client_ip", clientIP),
			slog.String("session", middleware.GetClientSession(ctx)),
		)
		return nil, gerr.ErrUnauthorized
	}
	return s.ledger.Stats(ctx, s.c.RecentLimit), nil
}
