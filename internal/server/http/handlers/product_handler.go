package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/server/http/dto"
	"github.com/polkiloo/agristar/internal/usecase"
)

type ProductHandler struct {
	facade CatalogFacade
}

func NewProductHandler(facade CatalogFacade) *ProductHandler {
	return &ProductHandler{facade: facade}
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid price %q", req.Price))
		return
	}
	product, err := h.facade.CreateProduct(c.Request.Context(), CurrentActor(c), usecase.CreateProductInput{
		Name:  req.Name,
		Price: price,
		Unit:  req.Unit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, toProductResponse(product))
}

// Get handles GET /api/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	product, err := h.facade.Product(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toProductResponse(product))
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:        p.ID,
		SellerID:  p.SellerID,
		Name:      p.Name,
		Price:     p.Price.StringFixed(2),
		Unit:      p.Unit,
		Available: p.Available,
		CreatedAt: p.CreatedAt,
	}
}
