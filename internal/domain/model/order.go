package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusAccepted   OrderStatus = "ACCEPTED"
	OrderStatusRejected   OrderStatus = "REJECTED"
	OrderStatusEscrow     OrderStatus = "ESCROW"
	OrderStatusInDelivery OrderStatus = "IN_DELIVERY"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusPaidOut    OrderStatus = "PAID_OUT"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusDisputed   OrderStatus = "DISPUTED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

// IsFunded reports whether the status is at or beyond escrow.
func (s OrderStatus) IsFunded() bool {
	switch s {
	case OrderStatusEscrow, OrderStatusInDelivery, OrderStatusDelivered,
		OrderStatusPaidOut, OrderStatusCompleted, OrderStatusDisputed, OrderStatusRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition leaves the status.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusRejected, OrderStatusCancelled, OrderStatusCompleted, OrderStatusRefunded:
		return true
	}
	return false
}

// DeliveryMethod selects between rider delivery and buyer pickup.
type DeliveryMethod string

const (
	DeliveryMethodDelivery DeliveryMethod = "DELIVERY"
	DeliveryMethodPickup   DeliveryMethod = "PICKUP"
)

func (m DeliveryMethod) IsValid() bool {
	return m == DeliveryMethodDelivery || m == DeliveryMethodPickup
}

// PayoutKind tells which party a claimed disbursement pays.
type PayoutKind string

const (
	PayoutRelease PayoutKind = "RELEASE"
	PayoutRefund  PayoutKind = "REFUND"
)

// Order is a purchase of one product. TotalPrice is fixed once a
// payment has been initiated.
type Order struct {
	ID              int64
	BuyerID         int64
	ProductID       int64
	SellerID        int64
	AssignedRiderID *int64
	Quantity        int64
	UnitPrice       decimal.Decimal
	TotalPrice      decimal.Decimal
	Status          OrderStatus
	DeliveryMethod  DeliveryMethod
	ReadyForPickup  bool
	PickupCode      string
	DeliveryCode    string

	CheckoutRequestID  *string
	MpesaReceiptNumber *string
	FundedAt           *time.Time

	PayoutReference      *string
	PayoutKind           *PayoutKind
	PayoutConversationID *string
	PayoutResultCode     *int

	DisputeReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsParticipant reports whether the user is the buyer, seller or assigned rider.
func (o *Order) IsParticipant(userID int64) bool {
	if o.BuyerID == userID || o.SellerID == userID {
		return true
	}
	return o.AssignedRiderID != nil && *o.AssignedRiderID == userID
}

// PaymentInitiated reports whether a collection request was ever accepted for the order.
func (o *Order) PaymentInitiated() bool {
	return o.CheckoutRequestID != nil
}

// FundedBy reports whether the collection with this checkout request id is
// the one that funded the order.
func (o *Order) FundedBy(checkoutRequestID string) bool {
	return o.FundedAt != nil && o.CheckoutRequestID != nil && *o.CheckoutRequestID == checkoutRequestID
}

// PayoutClaimed reports whether a disbursement owns the order.
func (o *Order) PayoutClaimed() bool {
	return o.PayoutReference != nil
}
