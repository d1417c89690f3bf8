package filestore

import (
	"context"

	"github.com/geocoder89/bloodhub/internal/domain/post"
	"github.com/geocoder89/bloodhub/internal/observability"
)

type PostsRepo struct {
	db   *DB
	prom *observability.Prom
}

func NewPostsRepo(db *DB, prom *observability.Prom) *PostsRepo {
	return &PostsRepo{db: db, prom: prom}
}

func (r *PostsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveStore(op, fn)
	}
	return fn()
}

func (r *PostsRepo) Create(ctx context.Context, in post.NewPost) (p post.Post, err error) {
	err = r.observe("posts.create", func() error {
		return r.db.Update(ctx, func(doc *Document) error {
			var maxID int64
			for _, existing := range doc.Posts {
				if existing.ID > maxID {
					maxID = existing.ID
				}
			}

			p = post.NewFromInput(maxID+1, in, r.db.now())
			doc.Posts = append(doc.Posts, p)

			return nil
		})
	})

	return
}

// List returns every post, most recently created first.
func (r *PostsRepo) List(ctx context.Context) (out []post.Post, err error) {
	err = r.observe("posts.list", func() error {
		return r.db.View(ctx, func(doc Document) error {
			out = make([]post.Post, 0, len(doc.Posts))
			for i := len(doc.Posts) - 1; i >= 0; i-- {
				p := doc.Posts[i]
				if p.Photos == nil {
					p.Photos = []string{}
				}
				out = append(out, p)
			}
			return nil
		})
	})

	return
}

