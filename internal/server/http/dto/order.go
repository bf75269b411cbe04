package dto

import "time"

type PlaceOrderRequest struct {
	ProductID      int64  `json:"product_id" binding:"required,gt=0"`
	Quantity       int64  `json:"quantity" binding:"required,gte=1"`
	DeliveryMethod string `json:"delivery_method" binding:"omitempty,oneof=DELIVERY PICKUP"`
}

type PayRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type AssignRiderRequest struct {
	RiderID int64 `json:"rider_id" binding:"omitempty,gt=0"`
}

type ProgressRequest struct {
	Status string `json:"status" binding:"required,oneof=IN_DELIVERY DELIVERED"`
}

type DisputeRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type QuantityRequest struct {
	Quantity int64 `json:"quantity" binding:"required,gte=1"`
}

type ResolveDisputeRequest struct {
	Outcome string `json:"outcome" binding:"required,oneof=REFUND RELEASE"`
}

// OrderResponse is the public view of an order. Verification codes are
// only shown to the buyer.
type OrderResponse struct {
	ID                 int64      `json:"id"`
	BuyerID            int64      `json:"buyer_id"`
	SellerID           int64      `json:"seller_id"`
	ProductID          int64      `json:"product_id"`
	AssignedRiderID    *int64     `json:"assigned_rider_id,omitempty"`
	Quantity           int64      `json:"quantity"`
	UnitPrice          string     `json:"unit_price"`
	TotalPrice         string     `json:"total_price"`
	Status             string     `json:"status"`
	DeliveryMethod     string     `json:"delivery_method"`
	ReadyForPickup     bool       `json:"ready_for_pickup"`
	PickupCode         string     `json:"pickup_code,omitempty"`
	DeliveryCode       string     `json:"delivery_code,omitempty"`
	CheckoutRequestID  *string    `json:"checkout_request_id,omitempty"`
	MpesaReceiptNumber *string    `json:"mpesa_receipt_number,omitempty"`
	FundedAt           *time.Time `json:"funded_at,omitempty"`
	PayoutKind         *string    `json:"payout_kind,omitempty"`
	PayoutPending      bool       `json:"payout_pending"`
	DisputeReason      *string    `json:"dispute_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
