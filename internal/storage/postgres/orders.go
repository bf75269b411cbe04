package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/agristar/internal/domain/errors"
	"github.com/polkiloo/agristar/internal/domain/model"
)

const orderColumns = `id, buyer_id, product_id, seller_id, assigned_rider_id, quantity,
    unit_price::text, total_price::text, status, delivery_method, ready_for_pickup,
    pickup_code, delivery_code, checkout_request_id, mpesa_receipt_number, funded_at,
    payout_reference, payout_kind, payout_conversation_id, payout_result_code,
    dispute_reason, created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, o model.Order) (*model.Order, error) {
	const query = `INSERT INTO orders (buyer_id, product_id, seller_id, quantity, unit_price, total_price,
                       status, delivery_method, pickup_code, delivery_code)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
                   RETURNING ` + orderColumns
	row := r.storage.pool.QueryRow(ctx, query, o.BuyerID, o.ProductID, o.SellerID, o.Quantity,
		o.UnitPrice, o.TotalPrice, o.Status, o.DeliveryMethod, o.PickupCode, o.DeliveryCode)
	return scanOrder(row)
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	return scanOrder(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *orderRepository) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders
                   WHERE id = (SELECT order_id FROM payment_attempts WHERE checkout_request_id=$1)`
	return scanOrder(r.storage.pool.QueryRow(ctx, query, checkoutRequestID))
}

func (r *orderRepository) GetByPayoutReference(ctx context.Context, reference string) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE payout_reference=$1`
	return scanOrder(r.storage.pool.QueryRow(ctx, query, reference))
}

func (r *orderRepository) GetByPayoutConversationID(ctx context.Context, conversationID string) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE payout_conversation_id=$1
                   ORDER BY updated_at DESC LIMIT 1`
	return scanOrder(r.storage.pool.QueryRow(ctx, query, conversationID))
}

func (r *orderRepository) ListByParticipant(ctx context.Context, userID int64) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders
                   WHERE buyer_id=$1 OR seller_id=$1 OR assigned_rider_id=$1
                   ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *orderRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.storage.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// --- conditional transitions ---

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, from []model.OrderStatus, to model.OrderStatus) (*model.Order, error) {
	const query = `UPDATE orders SET status=$3, updated_at=NOW()
                   WHERE id=$1 AND status = ANY($2)
                   RETURNING ` + orderColumns
	return transitioned(r.storage.pool.QueryRow(ctx, query, id, statusNames(from), to))
}

func (r *orderRepository) CancelUnpaid(ctx context.Context, id int64, from []model.OrderStatus) (*model.Order, error) {
	const query = `UPDATE orders SET status='CANCELLED', updated_at=NOW()
                   WHERE id=$1 AND status = ANY($2) AND checkout_request_id IS NULL
                   RETURNING ` + orderColumns
	return transitioned(r.storage.pool.QueryRow(ctx, query, id, statusNames(from)))
}

// RecordPaymentAttempt keeps the attempt row even when the order moved on
// meanwhile. The prompt already reached the payer, so a late success callback
// must still resolve to its order. The two statements stay outside a
// transaction for that reason.
func (r *orderRepository) RecordPaymentAttempt(ctx context.Context, id int64, checkoutRequestID string) (*model.Order, error) {
	const insertAttempt = `INSERT INTO payment_attempts (checkout_request_id, order_id) VALUES ($1, $2)`
	const updateOrder = `UPDATE orders SET checkout_request_id=$2, updated_at=NOW()
                         WHERE id=$1 AND status='ACCEPTED'
                         RETURNING ` + orderColumns

	if _, err := r.storage.pool.Exec(ctx, insertAttempt, checkoutRequestID, id); err != nil {
		if isUniqueViolation(err) {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return transitioned(r.storage.pool.QueryRow(ctx, updateOrder, id, checkoutRequestID))
}

func (r *orderRepository) MarkFunded(ctx context.Context, id int64, from []model.OrderStatus, checkoutRequestID, receiptNumber string) (*model.Order, error) {
	const query = `UPDATE orders SET status='ESCROW', checkout_request_id=$3,
                       mpesa_receipt_number=NULLIF($4, ''), funded_at=NOW(), updated_at=NOW()
                   WHERE id=$1 AND status = ANY($2) AND funded_at IS NULL
                   RETURNING ` + orderColumns
	return transitioned(r.storage.pool.QueryRow(ctx, query, id, statusNames(from), checkoutRequestID, receiptNumber))
}

func (r *orderRepository) AssignRider(ctx context.Context, id, riderID int64) (*model.Order, error) {
	const query = `UPDATE orders SET assigned_rider_id=$2, updated_at=NOW()
                   WHERE id=$1 AND status='ESCROW' AND delivery_method='DELIVERY'
                     AND assigned_rider_id IS NULL
                   RETURNING ` + orderColumns
	return transitioned(r.storage.pool.QueryRow(ctx, query, id, riderID))
}

func (r *orderRepository) UpdateRiderStatus(ctx context.Context, id, riderID int64, from []model.OrderStatus, to model.OrderStatus) (*model.Order, error) {
	const query = `UPDATE orders SET status=$4, updated_at=NOW()
                   WHERE id=$1 AND assigned_rider_id=$2 AND status = ANY($3)
                   RETURNING ` + orderColumns
	return transitioned(r.storage.pool.QueryRow(ctx, query, id, riderID, statusNames(from), to))
}

func (r *orderRepository) CompleteDelivery(ctx context.Context, id, riderID int64, from []model.OrderStatus) (*model.Order, error) {
	const updateOrder = `UPDATE orders SET status='DELIVERED', updated_at=NOW()
                         WHERE id=$1 AND assigned_rider_id=$2 AND status = ANY($3)
                         RETURNING ` + orderColumns
	const creditRider = `UPDATE rider_profiles
                         SET completed_deliveries = completed_deliveries + 1,
                             total_deliveries = total_deliveries + 1,
                             updated_at=NOW()
                         WHERE user_id=$1`

	var order *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		order, err = transitioned(tx.QueryRow(ctx, updateOrder, id, riderID, statusNames(from)))
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, creditRider, riderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) MarkReadyForPickup(ctx context.Context, id int64) (*model.Order, error) {
	const query = `UPDATE orders SET ready_for_pickup=TRUE, updated_at=NOW()
                   WHERE id=$1 AND status='ESCROW' AND delivery_method='PICKUP'
                   RETURNING ` + orderColumns
	return transitioned(r.storage.pool.QueryRow(ctx, query, id))
}

func (r *orderRepository) OpenDispute(ctx context.Context, id int64, from []model.OrderStatus, reason string) (*model.Order, error) {
	const query = `UPDATE orders SET status='DISPUTED', dispute_reason=NULLIF($3, ''), updated_at=NOW()
                   WHERE id=$1 AND status = ANY($2) AND payout_reference IS NULL
                   RETURNING ` + orderColumns
	return transitioned(r.storage.pool.QueryRow(ctx, query, id, statusNames(from), reason))
}

func (r *orderRepository) UpdateQuantity(ctx context.Context, id int64, from []model.OrderStatus, quantity int64, total decimal.Decimal) (*model.Order, error) {
	const query = `UPDATE orders SET quantity=$3, total_price=$4, updated_at=NOW()
                   WHERE id=$1 AND status = ANY($2)
                     AND checkout_request_id IS NULL AND funded_at IS NULL
                   RETURNING ` + orderColumns
	return transitioned(r.storage.pool.QueryRow(ctx, query, id, statusNames(from), quantity, total))
}

// --- payout claim ---

func (r *orderRepository) ClaimPayout(ctx context.Context, id int64, from []model.OrderStatus, reference string, kind model.PayoutKind) (*model.Order, error) {
	const query = `UPDATE orders SET payout_reference=$3, payout_kind=$4, payout_conversation_id=NULL,
                       payout_result_code=NULL, updated_at=NOW()
                   WHERE id=$1 AND status = ANY($2) AND funded_at IS NOT NULL
                     AND payout_reference IS NULL
                   RETURNING ` + orderColumns
	return transitioned(r.storage.pool.QueryRow(ctx, query, id, statusNames(from), reference, kind))
}

func (r *orderRepository) CompletePayout(ctx context.Context, id int64, reference string, from []model.OrderStatus, to model.OrderStatus, conversationID string) (*model.Order, error) {
	const query = `UPDATE orders SET status=$4, payout_conversation_id=NULLIF($5, ''), updated_at=NOW()
                   WHERE id=$1 AND payout_reference=$2 AND status = ANY($3)
                   RETURNING ` + orderColumns
	return transitioned(r.storage.pool.QueryRow(ctx, query, id, reference, statusNames(from), to, conversationID))
}

func (r *orderRepository) ReleasePayout(ctx context.Context, id int64, reference string) error {
	const query = `UPDATE orders SET payout_reference=NULL, payout_kind=NULL, updated_at=NOW()
                   WHERE id=$1 AND payout_reference=$2 AND payout_conversation_id IS NULL`
	tag, err := r.storage.pool.Exec(ctx, query, id, reference)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrInvalidTransition
	}
	return nil
}

func (r *orderRepository) RecordPayoutResult(ctx context.Context, id int64, resultCode int) error {
	const query = `UPDATE orders SET payout_result_code=$2, updated_at=NOW() WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query, id, resultCode)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// transitioned maps a conditional update that matched no row to ErrInvalidTransition.
func transitioned(row pgx.Row) (*model.Order, error) {
	order, err := scanOrder(row)
	if errors.Is(err, domainErrors.ErrNotFound) {
		return nil, domainErrors.ErrInvalidTransition
	}
	return order, err
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o          model.Order
		unitPrice  string
		totalPrice string
		payoutKind *string
	)
	err := row.Scan(
		&o.ID, &o.BuyerID, &o.ProductID, &o.SellerID, &o.AssignedRiderID, &o.Quantity,
		&unitPrice, &totalPrice, &o.Status, &o.DeliveryMethod, &o.ReadyForPickup,
		&o.PickupCode, &o.DeliveryCode, &o.CheckoutRequestID, &o.MpesaReceiptNumber, &o.FundedAt,
		&o.PayoutReference, &payoutKind, &o.PayoutConversationID, &o.PayoutResultCode,
		&o.DisputeReason, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	if o.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
		return nil, err
	}
	if o.TotalPrice, err = decimal.NewFromString(totalPrice); err != nil {
		return nil, err
	}
	if payoutKind != nil {
		kind := model.PayoutKind(*payoutKind)
		o.PayoutKind = &kind
	}
	return &o, nil
}

func statusNames(statuses []model.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
