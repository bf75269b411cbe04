package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	domainErrors "github.com/polkiloo/agristar/internal/domain/errors"
	"github.com/polkiloo/agristar/internal/domain/lifecycle"
	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/pkg/phone"
)

const collectionDescription = "Payment for AgriStar order"

// CallbackOutcome tells how an inbound gateway callback was handled.
type CallbackOutcome string

const (
	OutcomeApplied   CallbackOutcome = "applied"
	OutcomeDuplicate CallbackOutcome = "duplicate"
	OutcomeUnmatched CallbackOutcome = "unmatched"
	OutcomeFailed    CallbackOutcome = "failed"
	OutcomeReleased  CallbackOutcome = "released"
	OutcomeAnomaly   CallbackOutcome = "anomaly"
)

// InitiatePayment asks the gateway to prompt the buyer for the order total.
// phoneNumber overrides the buyer's profile number when set.
func (u *OrderUseCase) InitiatePayment(ctx context.Context, actor model.Actor, orderID int64, phoneNumber string) (*model.Order, error) {
	order, err := u.buyerOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.Allowed(order.Status, model.EventInitiatePayment) {
		return nil, fmt.Errorf("%w: %s from %s", domainErrors.ErrInvalidTransition, model.EventInitiatePayment, order.Status)
	}

	msisdn, err := u.resolvePhone(ctx, order.BuyerID, phoneNumber)
	if err != nil {
		return nil, err
	}
	amount := order.TotalPrice.IntPart()
	if amount < 1 {
		return nil, domainErrors.ErrInvalidAmount
	}

	receipt, err := u.collector.InitiateCollection(ctx, model.Collection{
		Phone:       msisdn,
		Amount:      amount,
		Reference:   fmt.Sprintf("Order-%d", order.ID),
		Description: collectionDescription,
	})
	if err != nil {
		u.logger.Warn("collection request failed",
			slog.Int64("order_id", order.ID),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrPaymentUnavailable, err)
	}

	updated, err := u.orders.RecordPaymentAttempt(ctx, order.ID, receipt.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidTransition) {
			// The attempt row stays so a success for this prompt is still traced to the order.
			u.logger.Warn("collection prompt sent for order that left ACCEPTED",
				slog.Int64("order_id", order.ID),
				slog.String("checkout_request_id", receipt.CheckoutRequestID),
			)
		}
		return nil, err
	}

	u.logger.Info("collection initiated",
		slog.Int64("order_id", order.ID),
		slog.String("checkout_request_id", receipt.CheckoutRequestID),
	)
	u.publish(ctx, model.EventInitiatePayment, order.Status, updated, actor.UserID())
	return updated, nil
}

// resolvePhone prefers the explicit number and falls back to the user's profile.
func (u *OrderUseCase) resolvePhone(ctx context.Context, userID int64, explicit string) (string, error) {
	raw := strings.TrimSpace(explicit)
	if raw == "" {
		user, err := u.users.GetByID(ctx, userID)
		if err != nil {
			return "", err
		}
		raw = strings.TrimSpace(user.Phone)
	}
	if raw == "" {
		return "", domainErrors.ErrPhoneRequired
	}
	msisdn, err := phone.Normalize(raw)
	if err != nil {
		return "", domainErrors.ErrInvalidPhone
	}
	return msisdn, nil
}

// ApplyPaymentResult credits escrow for a successful collection callback.
// It is idempotent: a repeated callback for the attempt that funded the order
// changes nothing. A success for any other attempt is money the order cannot
// take and is reported as an anomaly. Callbacks that cannot be applied are
// logged, never returned as errors, so the gateway is always acknowledged.
func (u *OrderUseCase) ApplyPaymentResult(ctx context.Context, res model.PaymentResult) (CallbackOutcome, error) {
	log := u.logger.With(slog.String("checkout_request_id", res.CheckoutRequestID))

	order, err := u.orders.GetByCheckoutRequestID(ctx, res.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			log.Warn("payment callback for unknown checkout request")
			return OutcomeUnmatched, nil
		}
		return "", err
	}
	log = log.With(slog.Int64("order_id", order.ID))

	if !res.Succeeded() {
		log.Info("payment not completed",
			slog.Int("result_code", res.ResultCode),
			slog.String("result_desc", res.ResultDesc),
		)
		return OutcomeFailed, nil
	}
	if order.FundedAt != nil || order.Status.IsFunded() {
		return u.fundedOrderCallback(log, order, res), nil
	}
	if !lifecycle.Allowed(order.Status, model.EventConfirmPayment) {
		u.paymentAnomaly(log, order, res)
		return OutcomeAnomaly, nil
	}

	updated, err := u.orders.MarkFunded(ctx, order.ID, lifecycle.Sources(model.EventConfirmPayment), res.CheckoutRequestID, res.ReceiptNumber)
	if err != nil {
		if !errors.Is(err, domainErrors.ErrInvalidTransition) {
			return "", err
		}
		current, gerr := u.orders.GetByID(ctx, order.ID)
		if gerr != nil {
			return "", gerr
		}
		if current.FundedAt != nil {
			return u.fundedOrderCallback(log, current, res), nil
		}
		u.paymentAnomaly(log, current, res)
		return OutcomeAnomaly, nil
	}

	log.Info("escrow funded", slog.String("receipt", res.ReceiptNumber))
	u.publish(ctx, model.EventConfirmPayment, order.Status, updated, 0)
	return OutcomeApplied, nil
}

// fundedOrderCallback classifies a success for an order that already holds
// escrow. Only the attempt that funded it counts as a duplicate.
func (u *OrderUseCase) fundedOrderCallback(log *slog.Logger, order *model.Order, res model.PaymentResult) CallbackOutcome {
	if order.FundedBy(res.CheckoutRequestID) {
		log.Info("duplicate payment callback ignored", slog.String("status", string(order.Status)))
		return OutcomeDuplicate
	}
	u.paymentAnomaly(log, order, res)
	return OutcomeAnomaly
}

// paymentAnomaly reports money collected for an order that can no longer
// take it. An operator has to refund the payer.
func (u *OrderUseCase) paymentAnomaly(log *slog.Logger, order *model.Order, res model.PaymentResult) {
	log.Error("payment received for order that cannot be funded",
		slog.String("status", string(order.Status)),
		slog.String("receipt", res.ReceiptNumber),
	)
}
