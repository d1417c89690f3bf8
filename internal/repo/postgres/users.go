package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/bloodhub/internal/domain/user"
	"github.com/geocoder89/bloodhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveStore(op, fn)
	}
	return fn()
}

// Create relies on the unique index on lower(email) instead of a pre-check,
// so concurrent registrations resolve in the database.
func (r *UsersRepo) Create(ctx context.Context, in user.NewUser) (user.User, error) {
	u := user.User{
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Name:         in.Name,
		Role:         in.Role,
	}

	err := r.observe("users.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO users (email, password_hash, name, role)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			in.Email, in.PasswordHash, in.Name, string(in.Role),
		).Scan(&u.ID, &u.CreatedAt)
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email",
		`SELECT id, email, password_hash, name, role, created_at
         FROM users
         WHERE lower(email) = $1`,
		user.NormalizeEmail(email),
	)
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id",
		`SELECT id, email, password_hash, name, role, created_at
         FROM users
         WHERE id = $1`,
		id,
	)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg any) (user.User, error) {
	var u user.User
	var role string

	err := r.observe(op, func() error {
		return r.pool.QueryRow(ctx, query, arg).Scan(
			&u.ID,
			&u.Email,
			&u.PasswordHash,
			&u.Name,
			&role,
			&u.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	u.Role = user.Role(role)
	return u, nil
}

// ListByRole returns users with the given role, newest first.
func (r *UsersRepo) ListByRole(ctx context.Context, role user.Role) ([]user.User, error) {
	out := []user.User{}

	err := r.observe("users.list_by_role", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, email, password_hash, name, role, created_at
			FROM users
			WHERE role = $1
			ORDER BY id DESC`,
			string(role),
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var u user.User
			var rr string
			if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &rr, &u.CreatedAt); err != nil {
				return err
			}
			u.Role = user.Role(rr)
			out = append(out, u)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

