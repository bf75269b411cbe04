package model

import "time"

type NotificationType string

const (
	NotificationOrderPlaced     NotificationType = "ORDER_PLACED"
	NotificationOrderAccepted   NotificationType = "ORDER_ACCEPTED"
	NotificationOrderRejected   NotificationType = "ORDER_REJECTED"
	NotificationPaymentReceived NotificationType = "PAYMENT_RECEIVED"
	NotificationOrderAssigned   NotificationType = "ORDER_ASSIGNED"
	NotificationOrderUpdate     NotificationType = "ORDER_UPDATE"
	NotificationOrderDelivered  NotificationType = "ORDER_DELIVERED"
	NotificationFundsReleased   NotificationType = "FUNDS_RELEASED"
	NotificationOrderCancelled  NotificationType = "ORDER_CANCELLED"
	NotificationOrderDisputed   NotificationType = "ORDER_DISPUTED"
	NotificationOrderRefunded   NotificationType = "ORDER_REFUNDED"
)

// Notification is an in-app message for a user.
type Notification struct {
	ID        int64
	UserID    int64
	Type      NotificationType
	OrderID   *int64
	Message   string
	IsRead    bool
	CreatedAt time.Time
}
