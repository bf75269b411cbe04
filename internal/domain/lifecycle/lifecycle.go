// Package lifecycle holds the order transition table.
package lifecycle

import (
	"fmt"

	domainErrors "github.com/polkiloo/agristar/internal/domain/errors"
	"github.com/polkiloo/agristar/internal/domain/model"
)

type rule struct {
	from []model.OrderStatus
	// to is empty when the event leaves the status unchanged.
	to model.OrderStatus
}

var rules = map[model.Event]rule{
	model.EventAccept:          {from: statuses(model.OrderStatusPending), to: model.OrderStatusAccepted},
	model.EventReject:          {from: statuses(model.OrderStatusPending), to: model.OrderStatusRejected},
	model.EventInitiatePayment: {from: statuses(model.OrderStatusAccepted)},
	model.EventConfirmPayment:  {from: statuses(model.OrderStatusPending, model.OrderStatusAccepted), to: model.OrderStatusEscrow},
	model.EventAssignRider:     {from: statuses(model.OrderStatusEscrow)},
	model.EventStartDelivery:   {from: statuses(model.OrderStatusAccepted, model.OrderStatusEscrow), to: model.OrderStatusInDelivery},
	model.EventMarkDelivered:   {from: statuses(model.OrderStatusInDelivery, model.OrderStatusEscrow), to: model.OrderStatusDelivered},
	model.EventMarkReady:       {from: statuses(model.OrderStatusEscrow)},
	model.EventConfirmDelivery: {from: statuses(model.OrderStatusEscrow, model.OrderStatusInDelivery, model.OrderStatusDelivered), to: model.OrderStatusPaidOut},
	model.EventCancel:          {from: statuses(model.OrderStatusPending, model.OrderStatusAccepted), to: model.OrderStatusCancelled},
	model.EventDispute:         {from: statuses(model.OrderStatusEscrow, model.OrderStatusInDelivery, model.OrderStatusDelivered), to: model.OrderStatusDisputed},
	model.EventRefund:          {from: statuses(model.OrderStatusDisputed), to: model.OrderStatusRefunded},
	model.EventRelease:         {from: statuses(model.OrderStatusDisputed), to: model.OrderStatusPaidOut},
	model.EventSettlePayout:    {from: statuses(model.OrderStatusPaidOut), to: model.OrderStatusCompleted},
	model.EventChangeQuantity:  {from: statuses(model.OrderStatusPending, model.OrderStatusAccepted)},
}

func statuses(s ...model.OrderStatus) []model.OrderStatus { return s }

// Sources lists the statuses from which the event may fire.
func Sources(event model.Event) []model.OrderStatus {
	r, ok := rules[event]
	if !ok {
		return nil
	}
	out := make([]model.OrderStatus, len(r.from))
	copy(out, r.from)
	return out
}

// Allowed reports whether the event may fire from the given status.
func Allowed(from model.OrderStatus, event model.Event) bool {
	r, ok := rules[event]
	if !ok {
		return false
	}
	for _, s := range r.from {
		if s == from {
			return true
		}
	}
	return false
}

// Next returns the status the order moves to when the event fires from
// the given status. Events that keep the status return from unchanged.
func Next(from model.OrderStatus, event model.Event) (model.OrderStatus, error) {
	if !Allowed(from, event) {
		return "", fmt.Errorf("%w: %s from %s", domainErrors.ErrInvalidTransition, event, from)
	}
	if to := rules[event].to; to != "" {
		return to, nil
	}
	return from, nil
}

// PayoutEvent maps a payout kind to the event its completion represents.
func PayoutEvent(kind model.PayoutKind, disputed bool) model.Event {
	switch {
	case kind == model.PayoutRefund:
		return model.EventRefund
	case disputed:
		return model.EventRelease
	default:
		return model.EventConfirmDelivery
	}
}
