package postgres

import (
	"context"

	"github.com/geocoder89/bloodhub/internal/domain/stats"
	"github.com/geocoder89/bloodhub/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewStatsRepo(pool *pgxpool.Pool, prom *observability.Prom) *StatsRepo {
	return &StatsRepo{pool: pool, prom: prom}
}

// Counts runs as one statement, so all three counts share a snapshot.
func (r *StatsRepo) Counts(ctx context.Context) (stats.Counts, error) {
	var c stats.Counts

	fn := func() error {
		return r.pool.QueryRow(ctx, `
			SELECT
				(SELECT COUNT(*) FROM users),
				(SELECT COUNT(*) FROM posts),
				(SELECT COUNT(*) FROM requests)
		`).Scan(&c.Users, &c.Posts, &c.Requests)
	}

	var err error
	if r.prom != nil {
		err = r.prom.ObserveStore("stats.counts", fn)
	} else {
		err = fn()
	}

	return c, err
}
