package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/db"
)

type userRepoPG struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *userRepoPG) EnsureRoles(ctx context.Context, roles ...string) error {
	for _, role := range roles {
		if _, err := r.conn(ctx).Exec(ctx, `INSERT INTO auth_role (name) VALUES ($1) ON CONFLICT DO NOTHING`, role); err != nil {
			return err
		}
	}
	return nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO auth_user (id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		u.ID, u.Username, u.Email, u.PasswordHash,
	).Scan(&u.CreatedAt)
	return apperr.FromPG(err)
}

func (r *userRepoPG) AddRole(ctx context.Context, userID uuid.UUID, role string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO auth_user_role (user_id, role) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, userID, role)
	return apperr.FromPG(err)
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM auth_user WHERE lower(username) = lower($1)`, username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, apperr.FromPG(err)
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT role FROM auth_user_role WHERE user_id = $1 ORDER BY role`, u.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		u.Roles = append(u.Roles, role)
	}
	return &u, rows.Err()
}
