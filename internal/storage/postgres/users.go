package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/agristar/internal/domain/errors"
	"github.com/polkiloo/agristar/internal/domain/model"
)

const userColumns = `id, username, password_hash, role, phone_number, created_at`

func (r *userRepository) Create(ctx context.Context, user model.User) (*model.User, error) {
	const insertUser = `INSERT INTO users (username, password_hash, role, phone_number)
                        VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	const insertProfile = `INSERT INTO rider_profiles (user_id) VALUES ($1)`

	created := user
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertUser, user.Username, user.PasswordHash, user.Role, user.Phone).
			Scan(&created.ID, &created.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return domainErrors.ErrAlreadyExists
			}
			return err
		}
		if user.Role == model.RoleRider {
			if _, err := tx.Exec(ctx, insertProfile, created.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username=$1`
	return r.scan(r.storage.pool.QueryRow(ctx, query, username))
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.scan(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) scan(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Phone, &u.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}
