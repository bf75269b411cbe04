package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/agristar/internal/domain/model"
)

func (r *productRepository) Create(ctx context.Context, p model.Product) (*model.Product, error) {
	const query = `INSERT INTO products (seller_id, name, price, unit, available)
                   VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	created := p
	if err := r.storage.pool.QueryRow(ctx, query, p.SellerID, p.Name, p.Price, p.Unit, p.Available).
		Scan(&created.ID, &created.CreatedAt); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	const query = `SELECT id, seller_id, name, price::text, unit, available, created_at FROM products WHERE id=$1`
	return scanProduct(r.storage.pool.QueryRow(ctx, query, id))
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p     model.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.SellerID, &p.Name, &price, &p.Unit, &p.Available, &p.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	return &p, nil
}
