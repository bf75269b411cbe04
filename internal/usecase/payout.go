package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domainErrors "github.com/polkiloo/agristar/internal/domain/errors"
	"github.com/polkiloo/agristar/internal/domain/lifecycle"
	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/pkg/phone"
)

const (
	releaseRemarks = "AgriStar Escrow Release"
	refundRemarks  = "AgriStar Escrow Refund"
)

// ConfirmDelivery releases escrow to the seller once the buyer confirms.
func (u *OrderUseCase) ConfirmDelivery(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	order, err := u.buyerOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	return u.payout(ctx, actor, order, model.EventConfirmDelivery, model.PayoutRelease, order.SellerID)
}

// ResolveDispute settles a disputed order by refunding the buyer or
// releasing the funds to the seller.
func (u *OrderUseCase) ResolveDispute(ctx context.Context, actor model.Actor, orderID int64, outcome model.PayoutKind) (*model.Order, error) {
	if _, ok := actor.(model.Admin); !ok {
		return nil, domainErrors.ErrPermissionDenied
	}
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch outcome {
	case model.PayoutRefund:
		return u.payout(ctx, actor, order, model.EventRefund, model.PayoutRefund, order.BuyerID)
	case model.PayoutRelease:
		return u.payout(ctx, actor, order, model.EventRelease, model.PayoutRelease, order.SellerID)
	default:
		return nil, fmt.Errorf("%w: unknown resolution %q", domainErrors.ErrInvalidTransition, outcome)
	}
}

// ReleasePayoutClaim frees a payout claim the gateway never acknowledged, so
// the confirm, dispute or resolve action can run again. The operator must
// first check with the gateway that nothing was disbursed for the reference.
// A claim the gateway accepted is left to its result callback.
func (u *OrderUseCase) ReleasePayoutClaim(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	if _, ok := actor.(model.Admin); !ok {
		return nil, domainErrors.ErrPermissionDenied
	}
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.PayoutClaimed() {
		return nil, fmt.Errorf("%w: order %d holds no payout claim", domainErrors.ErrInvalidTransition, order.ID)
	}
	if order.PayoutConversationID != nil {
		return nil, fmt.Errorf("%w: disbursement %s already accepted by the gateway",
			domainErrors.ErrInvalidTransition, *order.PayoutConversationID)
	}

	reference := *order.PayoutReference
	if err := u.orders.ReleasePayout(ctx, order.ID, reference); err != nil {
		return nil, err
	}
	u.logger.Warn("payout claim released by operator",
		slog.Int64("order_id", order.ID),
		slog.Int64("admin_id", actor.UserID()),
		slog.String("payout_reference", reference),
		slog.String("status", string(order.Status)),
	)
	return u.orders.GetByID(ctx, order.ID)
}

// payout claims the order, asks the gateway to disburse the total to the
// payee and moves the order on once the gateway accepted the request.
//
// A definitive gateway refusal releases the claim so the action can be
// retried. An ambiguous outcome keeps the claim: the money may already be
// on its way, and only the B2C result or timeout callback can tell, or an
// operator through ReleasePayoutClaim.
func (u *OrderUseCase) payout(ctx context.Context, actor model.Actor, order *model.Order, event model.Event, kind model.PayoutKind, payeeID int64) (*model.Order, error) {
	to, err := lifecycle.Next(order.Status, event)
	if err != nil {
		return nil, err
	}
	if order.PayoutClaimed() {
		return nil, domainErrors.ErrPayoutPending
	}

	payee, err := u.users.GetByID(ctx, payeeID)
	if err != nil {
		return nil, err
	}
	if payee.Phone == "" {
		return nil, domainErrors.ErrPhoneRequired
	}
	msisdn, err := phone.Normalize(payee.Phone)
	if err != nil {
		return nil, domainErrors.ErrInvalidPhone
	}
	amount := order.TotalPrice.IntPart()
	if amount < 1 {
		return nil, domainErrors.ErrInvalidAmount
	}

	from := lifecycle.Sources(event)
	reference := u.newReference()
	if _, err := u.orders.ClaimPayout(ctx, order.ID, from, reference, kind); err != nil {
		if errors.Is(err, domainErrors.ErrInvalidTransition) {
			return nil, u.classifyClaimRace(ctx, order.ID)
		}
		return nil, err
	}

	log := u.logger.With(
		slog.Int64("order_id", order.ID),
		slog.String("payout_reference", reference),
		slog.String("payout_kind", string(kind)),
	)

	// The claim is held from here on; the rest must run even if the caller goes away.
	callCtx := context.WithoutCancel(ctx)
	remarks := releaseRemarks
	if kind == model.PayoutRefund {
		remarks = refundRemarks
	}
	receipt, err := u.disburser.InitiateDisbursement(callCtx, model.Disbursement{
		Phone:     msisdn,
		Amount:    amount,
		Reference: reference,
		Remarks:   remarks,
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrPaymentOutcomeUnknown) {
			log.Warn("disbursement outcome unknown, keeping payout claim", slog.Any("error", err))
			return nil, fmt.Errorf("%w: %w", domainErrors.ErrPayoutPending, err)
		}
		if rerr := u.orders.ReleasePayout(callCtx, order.ID, reference); rerr != nil {
			log.Error("release payout claim", slog.Any("error", rerr))
		}
		log.Warn("disbursement refused", slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrPaymentUnavailable, err)
	}

	updated, err := u.orders.CompletePayout(callCtx, order.ID, reference, from, to, receipt.ConversationID)
	if err != nil {
		log.Error("disbursement accepted but order not updated",
			slog.String("conversation_id", receipt.ConversationID),
			slog.Any("error", err),
		)
		return nil, err
	}

	log.Info("disbursement accepted", slog.String("conversation_id", receipt.ConversationID))
	u.publish(ctx, event, order.Status, updated, actor.UserID())
	return updated, nil
}

func (u *OrderUseCase) classifyClaimRace(ctx context.Context, orderID int64) error {
	current, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if current.PayoutClaimed() {
		return domainErrors.ErrPayoutPending
	}
	return domainErrors.ErrInvalidTransition
}

// ApplyPayoutResult settles a payout from its B2C result callback.
func (u *OrderUseCase) ApplyPayoutResult(ctx context.Context, res model.PayoutResult) (CallbackOutcome, error) {
	order, log, outcome, err := u.payoutOrder(ctx, res)
	if order == nil {
		return outcome, err
	}

	if rerr := u.orders.RecordPayoutResult(ctx, order.ID, res.ResultCode); rerr != nil {
		log.Warn("store payout result code", slog.Any("error", rerr))
	}

	if !res.Succeeded() {
		if order.PayoutConversationID == nil {
			if err := u.orders.ReleasePayout(ctx, order.ID, *order.PayoutReference); err != nil && !errors.Is(err, domainErrors.ErrInvalidTransition) {
				return "", err
			}
			log.Warn("disbursement failed before acceptance, payout claim released",
				slog.Int("result_code", res.ResultCode),
				slog.String("result_desc", res.ResultDesc),
			)
			return OutcomeReleased, nil
		}
		log.Error("disbursement failed after acceptance, operator action required",
			slog.String("status", string(order.Status)),
			slog.Int("result_code", res.ResultCode),
			slog.String("result_desc", res.ResultDesc),
		)
		return OutcomeAnomaly, nil
	}

	if order.PayoutConversationID == nil {
		// The acceptance response was lost; the result proves the gateway took it.
		completed, err := u.completeLatePayout(ctx, order, res.ConversationID)
		if err != nil {
			return "", err
		}
		order = completed
	}

	if order.PayoutKind == nil || *order.PayoutKind != model.PayoutRelease || order.Status != model.OrderStatusPaidOut {
		log.Info("payout result recorded", slog.String("status", string(order.Status)))
		if order.Status == model.OrderStatusCompleted {
			return OutcomeDuplicate, nil
		}
		return OutcomeApplied, nil
	}

	settled, err := u.orders.UpdateStatus(ctx, order.ID, lifecycle.Sources(model.EventSettlePayout), model.OrderStatusCompleted)
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidTransition) {
			return OutcomeDuplicate, nil
		}
		return "", err
	}
	log.Info("payout settled", slog.String("transaction_id", res.TransactionID))
	u.publish(ctx, model.EventSettlePayout, order.Status, settled, 0)
	return OutcomeApplied, nil
}

func (u *OrderUseCase) completeLatePayout(ctx context.Context, order *model.Order, conversationID string) (*model.Order, error) {
	event := lifecycle.PayoutEvent(*order.PayoutKind, order.Status == model.OrderStatusDisputed)
	to, err := lifecycle.Next(order.Status, event)
	if err != nil {
		return order, nil
	}
	completed, err := u.orders.CompletePayout(ctx, order.ID, *order.PayoutReference, lifecycle.Sources(event), to, conversationID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidTransition) {
			return u.orders.GetByID(ctx, order.ID)
		}
		return nil, err
	}
	u.publish(ctx, event, order.Status, completed, 0)
	return completed, nil
}

// ApplyPayoutTimeout releases a claim the gateway never accepted, so the
// payout can be retried.
func (u *OrderUseCase) ApplyPayoutTimeout(ctx context.Context, res model.PayoutResult) (CallbackOutcome, error) {
	order, log, outcome, err := u.payoutOrder(ctx, res)
	if order == nil {
		return outcome, err
	}

	if order.PayoutConversationID != nil {
		log.Error("disbursement timed out after acceptance, operator action required",
			slog.String("status", string(order.Status)),
		)
		return OutcomeAnomaly, nil
	}
	if err := u.orders.ReleasePayout(ctx, order.ID, *order.PayoutReference); err != nil {
		if errors.Is(err, domainErrors.ErrInvalidTransition) {
			return OutcomeDuplicate, nil
		}
		return "", err
	}
	log.Warn("disbursement timed out, payout claim released")
	return OutcomeReleased, nil
}

// payoutOrder finds the order a B2C callback refers to. A nil order means
// the callback is already handled and outcome says how.
func (u *OrderUseCase) payoutOrder(ctx context.Context, res model.PayoutResult) (*model.Order, *slog.Logger, CallbackOutcome, error) {
	log := u.logger.With(
		slog.String("originator_conversation_id", res.OriginatorConversationID),
		slog.String("conversation_id", res.ConversationID),
	)

	order, err := u.lookupPayout(ctx, res)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			log.Warn("payout callback for unknown disbursement")
			return nil, log, OutcomeUnmatched, nil
		}
		return nil, log, "", err
	}
	log = log.With(slog.Int64("order_id", order.ID))
	if !order.PayoutClaimed() || order.PayoutKind == nil {
		log.Warn("payout callback for order without payout claim")
		return nil, log, OutcomeUnmatched, nil
	}
	return order, log, "", nil
}

func (u *OrderUseCase) lookupPayout(ctx context.Context, res model.PayoutResult) (*model.Order, error) {
	if res.OriginatorConversationID != "" {
		order, err := u.orders.GetByPayoutReference(ctx, res.OriginatorConversationID)
		if err == nil || !errors.Is(err, domainErrors.ErrNotFound) {
			return order, err
		}
	}
	if res.ConversationID != "" {
		return u.orders.GetByPayoutConversationID(ctx, res.ConversationID)
	}
	return nil, domainErrors.ErrNotFound
}
