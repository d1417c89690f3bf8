package postgres

import (
	"context"
	"time"

	"github.com/geocoder89/bloodhub/internal/domain/post"
	"github.com/geocoder89/bloodhub/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPostsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PostsRepo {
	return &PostsRepo{pool: pool, prom: prom}
}

func (r *PostsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveStore(op, fn)
	}
	return fn()
}

func (r *PostsRepo) Create(ctx context.Context, in post.NewPost) (post.Post, error) {
	p := post.NewFromInput(0, in, time.Now())

	err := r.observe("posts.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO posts (ngo_id, title, description, photos, location_text, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			p.NGOID, p.Title, p.Description, p.Photos, p.LocationText, p.CreatedAt,
		).Scan(&p.ID)
	})

	if err != nil {
		return post.Post{}, err
	}

	return p, nil
}

// List returns every post, most recently created first.
func (r *PostsRepo) List(ctx context.Context) ([]post.Post, error) {
	out := []post.Post{}

	err := r.observe("posts.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, ngo_id, title, description, photos, location_text, created_at
			FROM posts
			ORDER BY id DESC`,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p post.Post
			if err := rows.Scan(&p.ID, &p.NGOID, &p.Title, &p.Description, &p.Photos, &p.LocationText, &p.CreatedAt); err != nil {
				return err
			}
			if p.Photos == nil {
				p.Photos = []string{}
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

