package repository

import (
	"context"

	"github.com/polkiloo/agristar/internal/domain/model"
)

type ProductRepository interface {
	Create(ctx context.Context, product model.Product) (*model.Product, error)
	GetByID(ctx context.Context, id int64) (*model.Product, error)
}
