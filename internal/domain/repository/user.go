package repository

import (
	"context"

	"github.com/polkiloo/agristar/internal/domain/model"
)

// UserRepository describes persistence operations for users. Creating a
// rider also creates the rider's profile.
type UserRepository interface {
	Create(ctx context.Context, user model.User) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}
