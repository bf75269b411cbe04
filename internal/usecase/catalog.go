package usecase

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/agristar/internal/domain/errors"
	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/domain/repository"
)

const defaultUnit = "kg"

// CatalogUseCase lists produce for sale.
type CatalogUseCase struct {
	products repository.ProductRepository
}

func NewCatalogUseCase(products repository.ProductRepository) *CatalogUseCase {
	return &CatalogUseCase{products: products}
}

type CreateProductInput struct {
	Name  string
	Price decimal.Decimal
	Unit  string
}

// CreateProduct lists a new available product for a farmer or supplier.
func (u *CatalogUseCase) CreateProduct(ctx context.Context, actor model.Actor, in CreateProductInput) (*model.Product, error) {
	if !model.CanSell(actor) {
		return nil, domainErrors.ErrPermissionDenied
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domainErrors.ErrInvalidProduct
	}
	if !in.Price.IsPositive() {
		return nil, domainErrors.ErrInvalidAmount
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = defaultUnit
	}
	return u.products.Create(ctx, model.Product{
		SellerID:  actor.UserID(),
		Name:      name,
		Price:     in.Price.Round(2),
		Unit:      unit,
		Available: true,
	})
}

func (u *CatalogUseCase) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return u.products.GetByID(ctx, id)
}
