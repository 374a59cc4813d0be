package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	pg          *pgxpool.Pool
	pingTimeout time.Duration
	log         *slog.Logger
}

func New(pool *pgxpool.Pool, pingTimeout time.Duration) *Postgres {
	return &Postgres{
		pg:          pool,
		pingTimeout: pingTimeout,
		log:         slog.With("component", "db"),
	}
}

// Connect creates a pool and makes sure the database answers.
func Connect(ctx context.Context, url string, pingTimeout time.Duration) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}

	p := New(pool, pingTimeout)
	if err := p.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return p, nil
}

// Ping tries three times, pingTimeout apart.
func (p *Postgres) Ping(ctx context.Context) error {
	ticker := time.NewTicker(p.pingTimeout)
	defer ticker.Stop()

	var err error
	for i := 1; i <= 3; i++ {
		// A ping against an unreachable server may hang, so it gets slightly
		// less time than the interval between attempts.
		pingCtx, cancel := context.WithTimeout(ctx, p.pingTimeout-time.Millisecond*10)
		err = p.pg.Ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}

		p.log.Info("ping attempt was not successful", "attempt", i, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return err
}

func (p *Postgres) Close() {
	p.pg.Close()
}
