package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aquascene/waitlist/config"
	httpapi "github.com/aquascene/waitlist/internal/api/http"
	"github.com/aquascene/waitlist/internal/dependency"
	"github.com/aquascene/waitlist/internal/mail"
	"github.com/aquascene/waitlist/internal/ratelimit"
	"github.com/aquascene/waitlist/internal/store"
	"github.com/aquascene/waitlist/internal/waitlist"
	"github.com/redis/go-redis/v9"
)

// App is the main application
type App struct {
	hs      *httpapi.Server
	mailer  dependency.Mailer
	limiter dependency.RateLimiter
	c       *config.Config
	once    sync.Once
	done    chan struct{}
}

// New returns a new instance of App
func New(c *config.Config) *App {
	return &App{
		c:    c,
		done: make(chan struct{}),
	}
}

// Start starts the app
func (a *App) Start(ctx context.Context) error {
	var err error
	slog.Default().InfoContext(ctx, "starting aquascene waitlist")

	a.limiter, err = newLimiter(ctx, &a.c.RateLimit)
	if err != nil {
		slog.Default().ErrorContext(ctx, "failed to create rate limiter",
			slog.String("err", err.Error()),
		)
		return err
	}

	mailer, err := mail.New(&a.c.Mailer)
	if err != nil {
		slog.Default().ErrorContext(ctx, "failed to create mailer",
			slog.String("err", err.Error()),
		)
		return err
	}
	if err := mailer.Ready(); err != nil {
		// submissions answer 500 until the mailer is configured
		slog.Default().WarnContext(ctx, "mailer is not configured",
			slog.String("err", err.Error()),
		)
	}
	if err := mailer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mailer: %w", err)
	}
	a.mailer = mailer

	svc := waitlist.New(&a.c.Waitlist, store.NewLedger(), a.limiter, a.mailer)

	a.hs = httpapi.New(&a.c.HTTP, svc)
	if err = a.hs.Start(ctx); err != nil {
		slog.Default().ErrorContext(ctx, "cannot start http server",
			slog.String("err", err.Error()),
		)
		return err
	}

	go func() {
		<-a.hs.Done()
		a.closeDone()
	}()

	return nil
}

func newLimiter(ctx context.Context, c *ratelimit.Config) (dependency.RateLimiter, error) {
	switch c.Backend {
	case "", ratelimit.BackendMemory:
		return ratelimit.NewLimiter(c.Window, c.Requests), nil
	case ratelimit.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("can't reach redis at %s: %w", c.Redis.Addr, err)
		}
		return ratelimit.NewRedisLimiter(rdb, c.Redis.Prefix, c.Window, c.Requests), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", c.Backend)
	}
}

// Stop stops the application and waits for all services to exit
func (a *App) Stop(ctx context.Context) {
	if a.hs != nil {
		if err := a.hs.Stop(ctx); err != nil {
			slog.Default().ErrorContext(ctx, "failed to stop http server",
				slog.String("err", err.Error()),
			)
		}
	}
	if a.mailer != nil {
		if err := a.mailer.Stop(); err != nil {
			slog.Default().ErrorContext(ctx, "failed to stop mailer",
				slog.String("err", err.Error()),
			)
		}
	}
	if c, ok := a.limiter.(io.Closer); ok {
		_ = c.Close()
	}
	a.closeDone()
}

func (a *App) closeDone() {
	a.once.Do(func() { close(a.done) })
}

// Done returns a channel that is closed after the application has exited
func (a *App) Done() <-chan struct{} {
	return a.done
}
