package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a listing offered by a farmer or supplier.
type Product struct {
	ID        int64
	SellerID  int64
	Name      string
	Price     decimal.Decimal
	Unit      string
	Available bool
	CreatedAt time.Time
}
