package model

import "time"

// Event names an order action.
type Event string

const (
	EventPlace           Event = "place"
	EventAccept          Event = "accept"
	EventReject          Event = "reject"
	EventInitiatePayment Event = "initiate_payment"
	EventConfirmPayment  Event = "confirm_payment"
	EventAssignRider     Event = "assign_rider"
	EventStartDelivery   Event = "start_delivery"
	EventMarkDelivered   Event = "mark_delivered"
	EventMarkReady       Event = "mark_ready"
	EventConfirmDelivery Event = "confirm_delivery"
	EventCancel          Event = "cancel"
	EventDispute         Event = "dispute"
	EventRefund          Event = "refund"
	EventRelease         Event = "release"
	EventSettlePayout    Event = "settle_payout"
	EventChangeQuantity  Event = "change_quantity"
)

// TransitionEvent is emitted after an order action commits.
type TransitionEvent struct {
	Event   Event
	From    OrderStatus
	Order   Order
	ActorID int64
	At      time.Time
}
