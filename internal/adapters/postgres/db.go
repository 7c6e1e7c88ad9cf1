package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

// DB satisfies every repository port in internal/ports. Statements acquire a
// pooled connection and release it before returning.
type DB struct {
	Pool *pgxpool.Pool
}

func Connect(ctx context.Context, url string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

// ConnectWithRetry retries Connect with exponential backoff. Used at process
// start, when the database may still be coming up next to the worker.
func ConnectWithRetry(ctx context.Context, url string, attempts uint64, log *logrus.Entry) (*DB, error) {
	var db *DB
	backoff := retry.WithMaxRetries(attempts, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		db, err = Connect(ctx, url)
		if err != nil {
			log.WithError(err).Warn("database not ready, retrying")
			return retry.RetryableError(err)
		}
		return nil
	})
	return db, err
}

func (db *DB) Close() { db.Pool.Close() }
