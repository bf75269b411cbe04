package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/domain/repository"
)

// NotificationUseCase exposes a user's in-app notifications.
type NotificationUseCase struct {
	notifications repository.NotificationRepository
}

func NewNotificationUseCase(notifications repository.NotificationRepository) *NotificationUseCase {
	return &NotificationUseCase{notifications: notifications}
}

func (u *NotificationUseCase) List(ctx context.Context, actor model.Actor) ([]model.Notification, error) {
	return u.notifications.ListByUser(ctx, actor.UserID())
}

func (u *NotificationUseCase) MarkRead(ctx context.Context, actor model.Actor, id int64) error {
	return u.notifications.MarkRead(ctx, actor.UserID(), id)
}

// MarkAllRead returns how many notifications changed.
func (u *NotificationUseCase) MarkAllRead(ctx context.Context, actor model.Actor) (int64, error) {
	return u.notifications.MarkAllRead(ctx, actor.UserID())
}

// NotificationHook tells the parties of an order about its transitions.
type NotificationHook struct {
	notifications repository.NotificationRepository
}

func NewNotificationHook(notifications repository.NotificationRepository) *NotificationHook {
	return &NotificationHook{notifications: notifications}
}

type notice struct {
	userID  int64
	kind    model.NotificationType
	message string
}

// HandleTransition stores one notification per interested party.
func (h *NotificationHook) HandleTransition(ctx context.Context, ev model.TransitionEvent) error {
	var errs []error
	for _, n := range notices(ev) {
		orderID := ev.Order.ID
		_, err := h.notifications.Create(ctx, model.Notification{
			UserID:  n.userID,
			Type:    n.kind,
			OrderID: &orderID,
			Message: n.message,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("notify user %d: %w", n.userID, err))
		}
	}
	return errors.Join(errs...)
}

func notices(ev model.TransitionEvent) []notice {
	o := ev.Order
	id := o.ID
	switch ev.Event {
	case model.EventPlace:
		return []notice{
			{o.BuyerID, model.NotificationOrderPlaced, fmt.Sprintf("Your order #%d has been placed.", id)},
			{o.SellerID, model.NotificationOrderPlaced, fmt.Sprintf("New order #%d for %d unit(s).", id, o.Quantity)},
		}
	case model.EventAccept:
		return []notice{{o.BuyerID, model.NotificationOrderAccepted, fmt.Sprintf("Order #%d was accepted. You can now pay.", id)}}
	case model.EventReject:
		return []notice{{o.BuyerID, model.NotificationOrderRejected, fmt.Sprintf("Order #%d was rejected by the seller.", id)}}
	case model.EventConfirmPayment:
		return []notice{
			{o.BuyerID, model.NotificationPaymentReceived, fmt.Sprintf("Payment for order #%d received and held in escrow.", id)},
			{o.SellerID, model.NotificationPaymentReceived, fmt.Sprintf("Order #%d is paid. Funds are held in escrow.", id)},
		}
	case model.EventAssignRider:
		out := []notice{
			{o.BuyerID, model.NotificationOrderUpdate, fmt.Sprintf("A rider was assigned to order #%d.", id)},
			{o.SellerID, model.NotificationOrderUpdate, fmt.Sprintf("A rider was assigned to order #%d.", id)},
		}
		if o.AssignedRiderID != nil {
			out = append([]notice{{*o.AssignedRiderID, model.NotificationOrderAssigned, fmt.Sprintf("You were assigned order #%d.", id)}}, out...)
		}
		return out
	case model.EventStartDelivery:
		return []notice{{o.BuyerID, model.NotificationOrderUpdate, fmt.Sprintf("Order #%d is on its way.", id)}}
	case model.EventMarkDelivered:
		return []notice{
			{o.BuyerID, model.NotificationOrderDelivered, fmt.Sprintf("Order #%d was delivered. Please confirm receipt.", id)},
			{o.SellerID, model.NotificationOrderDelivered, fmt.Sprintf("Order #%d was delivered.", id)},
		}
	case model.EventMarkReady:
		return []notice{{o.BuyerID, model.NotificationOrderUpdate, fmt.Sprintf("Order #%d is ready for pickup.", id)}}
	case model.EventConfirmDelivery, model.EventRelease:
		return []notice{{o.SellerID, model.NotificationFundsReleased, fmt.Sprintf("Escrow for order #%d was released to you.", id)}}
	case model.EventSettlePayout:
		return []notice{{o.SellerID, model.NotificationFundsReleased, fmt.Sprintf("Payout for order #%d completed.", id)}}
	case model.EventCancel:
		return []notice{{o.SellerID, model.NotificationOrderCancelled, fmt.Sprintf("Order #%d was cancelled by the buyer.", id)}}
	case model.EventDispute:
		out := []notice{{o.SellerID, model.NotificationOrderDisputed, fmt.Sprintf("Order #%d is under dispute.", id)}}
		if o.AssignedRiderID != nil {
			out = append(out, notice{*o.AssignedRiderID, model.NotificationOrderDisputed, fmt.Sprintf("Order #%d is under dispute.", id)})
		}
		return out
	case model.EventRefund:
		return []notice{
			{o.BuyerID, model.NotificationOrderRefunded, fmt.Sprintf("Order #%d was refunded to you.", id)},
			{o.SellerID, model.NotificationOrderRefunded, fmt.Sprintf("Order #%d was refunded to the buyer.", id)},
		}
	case model.EventChangeQuantity:
		return []notice{{o.SellerID, model.NotificationOrderUpdate, fmt.Sprintf("Order #%d quantity changed to %d.", id, o.Quantity)}}
	}
	return nil
}
