package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aquascene/waitlist/internal/entity"
	"golang.org/x/sync/errgroup"
)

// Dispatch queues the welcome and operator emails for an accepted entry.
// It never blocks: when the queue is full the notifications are dropped.
func (m *Mailer) Dispatch(we *entity.WaitlistEntry, clientIP string) {
	select {
	case m.queue <- job{entry: we.Clone(), clientIP: clientIP}:
	default:
		slog.Default().Warn("mail queue is full, dropping notifications",
			slog.String("entry_id", we.Id),
			slog.Int("position", we.Position),
		)
	}
}

// Start starts the worker
func (m *Mailer) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return fmt.Errorf("Mailer already started")
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.worker(ctx, m.done)
	return nil
}

// Stop stops taking new jobs and waits for in-flight deliveries.
func (m *Mailer) Stop() error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return fmt.Errorf("Mailer already stopped or not started")
	}

	cancel()
	<-done
	return nil
}

func (m *Mailer) worker(ctx context.Context, done chan struct{}) {
	defer close(done)

	// in-flight sends outlive Stop, bounded by SendTimeout
	sendCtx := context.WithoutCancel(ctx)

	g := new(errgroup.Group)
	g.SetLimit(m.c.Workers)

	for {
		select {
		case j := <-m.queue:
			g.Go(func() error {
				m.deliver(sendCtx, j)
				return nil
			})
		case <-ctx.Done():
			_ = g.Wait()
			if n := len(m.queue); n > 0 {
				slog.Default().Warn("mailer stopped with queued notifications",
					slog.Int("queued", n),
				)
			}
			return
		}
	}
}

// deliver attempts both emails independently. Failures are logged and dropped.
func (m *Mailer) deliver(ctx context.Context, j job) {
	if err := m.SendWelcome(ctx, j.entry); err != nil {
		slog.Default().ErrorContext(ctx, "can't send welcome mail",
			slog.String("err", err.Error()),
			slog.String("entry_id", j.entry.Id),
		)
	}

	if err := m.SendSignupNotification(ctx, j.entry, j.clientIP); err != nil {
		slog.Default().ErrorContext(ctx, "can't send signup notification",
			slog.String("err", err.Error()),
			slog.String("entry_id", j.entry.Id),
		)
	}
}
