package filestore

import (
	"context"

	"github.com/geocoder89/bloodhub/internal/domain/user"
	"github.com/geocoder89/bloodhub/internal/observability"
)

type UsersRepo struct {
	db   *DB
	prom *observability.Prom
}

func NewUsersRepo(db *DB, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{db: db, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveStore(op, fn)
	}
	return fn()
}

// Create inserts a user. The duplicate check and the insert share one
// Update, so two registrations of the same email cannot both land.
func (r *UsersRepo) Create(ctx context.Context, in user.NewUser) (u user.User, err error) {
	err = r.observe("users.create", func() error {
		return r.db.Update(ctx, func(doc *Document) error {
			key := user.NormalizeEmail(in.Email)

			var maxID int64
			for _, rec := range doc.Users {
				if user.NormalizeEmail(rec.Email) == key {
					return user.ErrEmailTaken
				}
				if rec.ID > maxID {
					maxID = rec.ID
				}
			}

			rec := UserRecord{
				ID:           maxID + 1,
				Email:        in.Email,
				PasswordHash: in.PasswordHash,
				Name:         in.Name,
				Role:         string(in.Role),
				CreatedAt:    r.db.now().UTC(),
			}
			doc.Users = append(doc.Users, rec)
			u = rec.toUser()

			return nil
		})
	})

	return
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (u user.User, err error) {
	err = r.observe("users.get_by_email", func() error {
		return r.db.View(ctx, func(doc Document) error {
			key := user.NormalizeEmail(email)
			for _, rec := range doc.Users {
				if user.NormalizeEmail(rec.Email) == key {
					u = rec.toUser()
					return nil
				}
			}
			return user.ErrNotFound
		})
	})

	return
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (u user.User, err error) {
	err = r.observe("users.get_by_id", func() error {
		return r.db.View(ctx, func(doc Document) error {
			for _, rec := range doc.Users {
				if rec.ID == id {
					u = rec.toUser()
					return nil
				}
			}
			return user.ErrNotFound
		})
	})

	return
}

// ListByRole returns users with the given role, newest first.
func (r *UsersRepo) ListByRole(ctx context.Context, role user.Role) (out []user.User, err error) {
	out = []user.User{}

	err = r.observe("users.list_by_role", func() error {
		return r.db.View(ctx, func(doc Document) error {
			for i := len(doc.Users) - 1; i >= 0; i-- {
				if user.Role(doc.Users[i].Role) == role {
					out = append(out, doc.Users[i].toUser())
				}
			}
			return nil
		})
	})

	return
}


func (rec UserRecord) toUser() user.User {
	return user.User{
		ID:           rec.ID,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Name:         rec.Name,
		Role:         user.Role(rec.Role),
		CreatedAt:    rec.CreatedAt,
	}
}
