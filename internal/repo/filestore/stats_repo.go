package filestore

import (
	"context"

	"github.com/geocoder89/bloodhub/internal/domain/stats"
	"github.com/geocoder89/bloodhub/internal/observability"
)

type StatsRepo struct {
	db   *DB
	prom *observability.Prom
}

func NewStatsRepo(db *DB, prom *observability.Prom) *StatsRepo {
	return &StatsRepo{db: db, prom: prom}
}

// Counts sizes every collection from one loaded document.
func (r *StatsRepo) Counts(ctx context.Context) (c stats.Counts, err error) {
	fn := func() error {
		return r.db.View(ctx, func(doc Document) error {
			c = stats.Counts{
				Users:    len(doc.Users),
				Posts:    len(doc.Posts),
				Requests: len(doc.Requests),
			}
			return nil
		})
	}

	if r.prom != nil {
		err = r.prom.ObserveStore("stats.counts", fn)
	} else {
		err = fn()
	}

	return
}
