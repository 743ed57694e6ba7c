package userservice

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Cleaner runs the periodic sweeps: expired OTP records, expired sessions,
// and accounts still unverified 24 hours after creation. Each instance of
// the process runs its own sweep; overlapping runs across instances are
// redundant but idempotent.
type Cleaner struct {
	m      *DBModel
	logger *slog.Logger
}

func NewCleaner(db *sql.DB, logger *slog.Logger) *Cleaner {
	return &Cleaner{m: newUserModel(db), logger: logger}
}

// Start sweeps once immediately, then on every tick until the returned stop
// function is called.
func (c *Cleaner) Start(interval time.Duration) (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		c.sweep(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.sweep(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	return cancel
}

func (c *Cleaner) sweep(ctx context.Context) {
	var otps, sessions, users int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		otps, err = c.m.deleteExpiredOTPs(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		sessions, err = c.m.deleteExpiredSessions(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = c.m.deleteUnverifiedUsersBefore(gctx, time.Now().Add(-unverifiedAccountTTL))
		return err
	})

	if err := g.Wait(); err != nil {
		c.logger.Error("cleanup sweep failed", slog.String("error", err.Error()))
		return
	}

	c.logger.Info("cleanup sweep completed",
		slog.Int64("expired_otps", otps),
		slog.Int64("expired_sessions", sessions),
		slog.Int64("unverified_users", users))
}
