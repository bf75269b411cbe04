package handlers

import (
	"context"

	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/usecase"
)

// AuthFacade describes authentication capabilities required by handlers.
type AuthFacade interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*model.User, string, error)
	Authenticate(ctx context.Context, username, password string) (*model.User, string, error)
	ParseToken(token string) (model.Actor, error)
}

// OrderFacade encapsulates order actions exposed via HTTP.
type OrderFacade interface {
	PlaceOrder(ctx context.Context, actor model.Actor, in usecase.PlaceOrderInput) (*model.Order, error)
	Order(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	Orders(ctx context.Context, actor model.Actor) ([]model.Order, error)
	AcceptOrder(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	RejectOrder(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	PayOrder(ctx context.Context, actor model.Actor, orderID int64, phone string) (*model.Order, error)
	AssignRider(ctx context.Context, actor model.Actor, orderID, riderID int64) (*model.Order, error)
	ReportProgress(ctx context.Context, actor model.Actor, orderID int64, status model.OrderStatus) (*model.Order, error)
	MarkReadyForPickup(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	ConfirmDelivery(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	CancelOrder(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	OpenDispute(ctx context.Context, actor model.Actor, orderID int64, reason string) (*model.Order, error)
	ResolveDispute(ctx context.Context, actor model.Actor, orderID int64, outcome model.PayoutKind) (*model.Order, error)
	ChangeQuantity(ctx context.Context, actor model.Actor, orderID, quantity int64) (*model.Order, error)
	ReleasePayoutClaim(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
}

// PaymentCallbackFacade applies gateway callbacks.
type PaymentCallbackFacade interface {
	ApplyPaymentResult(ctx context.Context, res model.PaymentResult) (usecase.CallbackOutcome, error)
	ApplyPayoutResult(ctx context.Context, res model.PayoutResult) (usecase.CallbackOutcome, error)
	ApplyPayoutTimeout(ctx context.Context, res model.PayoutResult) (usecase.CallbackOutcome, error)
}

// RiderFacade provides rider dispatch operations.
type RiderFacade interface {
	NearbyRiders(ctx context.Context, actor model.Actor, lat, lon float64, radiusKm *float64) ([]model.NearbyRider, error)
	SetRiderAvailability(ctx context.Context, actor model.Actor, available bool) (*model.RiderProfile, error)
	UpdateRiderLocation(ctx context.Context, actor model.Actor, lat, lon float64) (*model.RiderProfile, error)
	VerifyRider(ctx context.Context, actor model.Actor, riderID int64, status model.VerificationStatus) (*model.RiderProfile, error)
}

// CatalogFacade provides product listing.
type CatalogFacade interface {
	CreateProduct(ctx context.Context, actor model.Actor, in usecase.CreateProductInput) (*model.Product, error)
	Product(ctx context.Context, id int64) (*model.Product, error)
}

// NotificationFacade exposes in-app notifications.
type NotificationFacade interface {
	Notifications(ctx context.Context, actor model.Actor) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, actor model.Actor, id int64) error
	MarkAllNotificationsRead(ctx context.Context, actor model.Actor) (int64, error)
}

// HealthFacade reports dependency health.
type HealthFacade interface {
	HealthCheck(ctx context.Context) error
}

// MarketFacade aggregates the full set of operations used across handlers.
type MarketFacade interface {
	AuthFacade
	OrderFacade
	PaymentCallbackFacade
	RiderFacade
	CatalogFacade
	NotificationFacade
	HealthFacade
}
