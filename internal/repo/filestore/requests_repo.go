package filestore

import (
	"context"

	"github.com/geocoder89/bloodhub/internal/domain/request"
	"github.com/geocoder89/bloodhub/internal/observability"
)

type RequestsRepo struct {
	db   *DB
	prom *observability.Prom
}

func NewRequestsRepo(db *DB, prom *observability.Prom) *RequestsRepo {
	return &RequestsRepo{db: db, prom: prom}
}

func (r *RequestsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveStore(op, fn)
	}
	return fn()
}

func (r *RequestsRepo) Create(ctx context.Context, req request.CreateRequest) (rec request.Request, err error) {
	err = r.observe("requests.create", func() error {
		return r.db.Update(ctx, func(doc *Document) error {
			var maxID int64
			for _, existing := range doc.Requests {
				if existing.ID > maxID {
					maxID = existing.ID
				}
			}

			rec = request.NewFromCreateRequest(maxID+1, req, r.db.now())
			doc.Requests = append(doc.Requests, rec)

			return nil
		})
	})

	return
}

// List returns every request, most recently created first.
func (r *RequestsRepo) List(ctx context.Context) (out []request.Request, err error) {
	err = r.observe("requests.list", func() error {
		return r.db.View(ctx, func(doc Document) error {
			out = make([]request.Request, 0, len(doc.Requests))
			for i := len(doc.Requests) - 1; i >= 0; i-- {
				out = append(out, doc.Requests[i])
			}
			return nil
		})
	})

	return
}

