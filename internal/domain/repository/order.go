package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/agristar/internal/domain/model"
)

// OrderRepository describes persistence operations with orders.
//
// Every mutating method is a conditional update: it applies only while the
// order is in one of the given statuses and its guards hold, and returns
// errors.ErrInvalidTransition otherwise. Concurrent actions on the same
// order therefore cannot both succeed.
type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (*model.Order, error)
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	// GetByCheckoutRequestID resolves any collection attempt ever recorded for an order.
	GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*model.Order, error)
	GetByPayoutReference(ctx context.Context, reference string) (*model.Order, error)
	GetByPayoutConversationID(ctx context.Context, conversationID string) (*model.Order, error)
	ListByParticipant(ctx context.Context, userID int64) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)

	UpdateStatus(ctx context.Context, id int64, from []model.OrderStatus, to model.OrderStatus) (*model.Order, error)
	// CancelUnpaid cancels only while no collection was ever initiated.
	CancelUnpaid(ctx context.Context, id int64, from []model.OrderStatus) (*model.Order, error)
	// RecordPaymentAttempt stores the checkout request id of an accepted collection.
	RecordPaymentAttempt(ctx context.Context, id int64, checkoutRequestID string) (*model.Order, error)
	// MarkFunded moves the order into escrow and pins the attempt that paid for it.
	MarkFunded(ctx context.Context, id int64, from []model.OrderStatus, checkoutRequestID, receiptNumber string) (*model.Order, error)
	// AssignRider attaches a rider to a funded delivery order that has none.
	AssignRider(ctx context.Context, id, riderID int64) (*model.Order, error)
	UpdateRiderStatus(ctx context.Context, id, riderID int64, from []model.OrderStatus, to model.OrderStatus) (*model.Order, error)
	// CompleteDelivery marks the order delivered and credits the rider's counters.
	CompleteDelivery(ctx context.Context, id, riderID int64, from []model.OrderStatus) (*model.Order, error)
	MarkReadyForPickup(ctx context.Context, id int64) (*model.Order, error)
	OpenDispute(ctx context.Context, id int64, from []model.OrderStatus, reason string) (*model.Order, error)
	UpdateQuantity(ctx context.Context, id int64, from []model.OrderStatus, quantity int64, total decimal.Decimal) (*model.Order, error)

	// ClaimPayout reserves a funded order for one disbursement attempt.
	ClaimPayout(ctx context.Context, id int64, from []model.OrderStatus, reference string, kind model.PayoutKind) (*model.Order, error)
	// CompletePayout applies the payout transition for the claim holder.
	CompletePayout(ctx context.Context, id int64, reference string, from []model.OrderStatus, to model.OrderStatus, conversationID string) (*model.Order, error)
	// ReleasePayout drops a claim the gateway never accepted.
	ReleasePayout(ctx context.Context, id int64, reference string) error
	RecordPayoutResult(ctx context.Context, id int64, resultCode int) error
}
