package dto

import "time"

type CreateProductRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	Price string `json:"price" binding:"required"`
	Unit  string `json:"unit" binding:"max=20"`
}

type ProductResponse struct {
	ID        int64     `json:"id"`
	SellerID  int64     `json:"seller_id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Unit      string    `json:"unit"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
}
