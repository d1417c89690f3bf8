package postgres

import (
	"context"
	"time"

	"github.com/geocoder89/bloodhub/internal/domain/request"
	"github.com/geocoder89/bloodhub/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RequestsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRequestsRepo(pool *pgxpool.Pool, prom *observability.Prom) *RequestsRepo {
	return &RequestsRepo{pool: pool, prom: prom}
}

func (r *RequestsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveStore(op, fn)
	}
	return fn()
}

func (r *RequestsRepo) Create(ctx context.Context, req request.CreateRequest) (request.Request, error) {
	// id 0 is a placeholder; the sequence assigns the real one
	rec := request.NewFromCreateRequest(0, req, time.Now())

	err := r.observe("requests.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO requests (requester_name, phone, blood_group, city, state, notes, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			rec.RequesterName, rec.Phone, rec.BloodGroup, rec.City, rec.State, rec.Notes, string(rec.Status), rec.CreatedAt,
		).Scan(&rec.ID)
	})

	if err != nil {
		return request.Request{}, err
	}

	return rec, nil
}

// List returns every request, most recently created first.
func (r *RequestsRepo) List(ctx context.Context) ([]request.Request, error) {
	out := []request.Request{}

	err := r.observe("requests.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, requester_name, phone, blood_group, city, state, notes, status, created_at
			FROM requests
			ORDER BY id DESC`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var rec request.Request
			var status string
			err := rows.Scan(&rec.ID, &rec.RequesterName, &rec.Phone, &rec.BloodGroup, &rec.City, &rec.State, &rec.Notes, &status, &rec.CreatedAt)
			if err != nil {
				return err
			}
			rec.Status = request.Status(status)
			out = append(out, rec)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

