package app

import (
	"context"

	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/usecase"
)

type authService interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*model.User, string, error)
	Authenticate(ctx context.Context, username, password string) (*model.User, string, error)
	ParseToken(token string) (model.Actor, error)
}

type orderService interface {
	PlaceOrder(ctx context.Context, actor model.Actor, in usecase.PlaceOrderInput) (*model.Order, error)
	Get(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	ListForActor(ctx context.Context, actor model.Actor) ([]model.Order, error)
	Accept(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	Reject(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	InitiatePayment(ctx context.Context, actor model.Actor, orderID int64, phoneNumber string) (*model.Order, error)
	AssignRider(ctx context.Context, actor model.Actor, orderID, riderID int64) (*model.Order, error)
	ReportProgress(ctx context.Context, actor model.Actor, orderID int64, status model.OrderStatus) (*model.Order, error)
	MarkReadyForPickup(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	ConfirmDelivery(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	Cancel(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	OpenDispute(ctx context.Context, actor model.Actor, orderID int64, reason string) (*model.Order, error)
	ResolveDispute(ctx context.Context, actor model.Actor, orderID int64, outcome model.PayoutKind) (*model.Order, error)
	ChangeQuantity(ctx context.Context, actor model.Actor, orderID, quantity int64) (*model.Order, error)
	ReleasePayoutClaim(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)
	ApplyPaymentResult(ctx context.Context, res model.PaymentResult) (usecase.CallbackOutcome, error)
	ApplyPayoutResult(ctx context.Context, res model.PayoutResult) (usecase.CallbackOutcome, error)
	ApplyPayoutTimeout(ctx context.Context, res model.PayoutResult) (usecase.CallbackOutcome, error)
}

type riderService interface {
	FindNearbyRiders(ctx context.Context, actor model.Actor, lat, lon float64, radiusKm *float64) ([]model.NearbyRider, error)
	SetAvailability(ctx context.Context, actor model.Actor, available bool) (*model.RiderProfile, error)
	UpdateLocation(ctx context.Context, actor model.Actor, lat, lon float64) (*model.RiderProfile, error)
	Verify(ctx context.Context, actor model.Actor, riderID int64, status model.VerificationStatus) (*model.RiderProfile, error)
}

type catalogService interface {
	CreateProduct(ctx context.Context, actor model.Actor, in usecase.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
}

type notificationService interface {
	List(ctx context.Context, actor model.Actor) ([]model.Notification, error)
	MarkRead(ctx context.Context, actor model.Actor, id int64) error
	MarkAllRead(ctx context.Context, actor model.Actor) (int64, error)
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// MarketFacade exposes the use cases to the HTTP layer.
type MarketFacade struct {
	auth          authService
	orders        orderService
	riders        riderService
	catalog       catalogService
	notifications notificationService
	health        HealthChecker
}

func NewMarketFacade(
	auth *usecase.AuthUseCase,
	orders *usecase.OrderUseCase,
	riders *usecase.RiderUseCase,
	catalog *usecase.CatalogUseCase,
	notifications *usecase.NotificationUseCase,
	health HealthChecker,
) *MarketFacade {
	return &MarketFacade{
		auth:          auth,
		orders:        orders,
		riders:        riders,
		catalog:       catalog,
		notifications: notifications,
		health:        health,
	}
}

func (f *MarketFacade) Register(ctx context.Context, in usecase.RegisterInput) (*model.User, string, error) {
	return f.auth.Register(ctx, in)
}

func (f *MarketFacade) Authenticate(ctx context.Context, username, password string) (*model.User, string, error) {
	return f.auth.Authenticate(ctx, username, password)
}

func (f *MarketFacade) ParseToken(token string) (model.Actor, error) {
	return f.auth.ParseToken(token)
}

func (f *MarketFacade) PlaceOrder(ctx context.Context, actor model.Actor, in usecase.PlaceOrderInput) (*model.Order, error) {
	return f.orders.PlaceOrder(ctx, actor, in)
}

func (f *MarketFacade) Order(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	return f.orders.Get(ctx, actor, orderID)
}

func (f *MarketFacade) Orders(ctx context.Context, actor model.Actor) ([]model.Order, error) {
	return f.orders.ListForActor(ctx, actor)
}

func (f *MarketFacade) AcceptOrder(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	return f.orders.Accept(ctx, actor, orderID)
}

func (f *MarketFacade) RejectOrder(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	return f.orders.Reject(ctx, actor, orderID)
}

func (f *MarketFacade) PayOrder(ctx context.Context, actor model.Actor, orderID int64, phoneNumber string) (*model.Order, error) {
	return f.orders.InitiatePayment(ctx, actor, orderID, phoneNumber)
}

func (f *MarketFacade) AssignRider(ctx context.Context, actor model.Actor, orderID, riderID int64) (*model.Order, error) {
	return f.orders.AssignRider(ctx, actor, orderID, riderID)
}

func (f *MarketFacade) ReportProgress(ctx context.Context, actor model.Actor, orderID int64, status model.OrderStatus) (*model.Order, error) {
	return f.orders.ReportProgress(ctx, actor, orderID, status)
}

func (f *MarketFacade) MarkReadyForPickup(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	return f.orders.MarkReadyForPickup(ctx, actor, orderID)
}

func (f *MarketFacade) ConfirmDelivery(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	return f.orders.ConfirmDelivery(ctx, actor, orderID)
}

func (f *MarketFacade) CancelOrder(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	return f.orders.Cancel(ctx, actor, orderID)
}

func (f *MarketFacade) OpenDispute(ctx context.Context, actor model.Actor, orderID int64, reason string) (*model.Order, error) {
	return f.orders.OpenDispute(ctx, actor, orderID, reason)
}

func (f *MarketFacade) ResolveDispute(ctx context.Context, actor model.Actor, orderID int64, outcome model.PayoutKind) (*model.Order, error) {
	return f.orders.ResolveDispute(ctx, actor, orderID, outcome)
}

func (f *MarketFacade) ReleasePayoutClaim(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	return f.orders.ReleasePayoutClaim(ctx, actor, orderID)
}

func (f *MarketFacade) ChangeQuantity(ctx context.Context, actor model.Actor, orderID, quantity int64) (*model.Order, error) {
	return f.orders.ChangeQuantity(ctx, actor, orderID, quantity)
}

func (f *MarketFacade) ApplyPaymentResult(ctx context.Context, res model.PaymentResult) (usecase.CallbackOutcome, error) {
	return f.orders.ApplyPaymentResult(ctx, res)
}

func (f *MarketFacade) ApplyPayoutResult(ctx context.Context, res model.PayoutResult) (usecase.CallbackOutcome, error) {
	return f.orders.ApplyPayoutResult(ctx, res)
}

func (f *MarketFacade) ApplyPayoutTimeout(ctx context.Context, res model.PayoutResult) (usecase.CallbackOutcome, error) {
	return f.orders.ApplyPayoutTimeout(ctx, res)
}

func (f *MarketFacade) NearbyRiders(ctx context.Context, actor model.Actor, lat, lon float64, radiusKm *float64) ([]model.NearbyRider, error) {
	return f.riders.FindNearbyRiders(ctx, actor, lat, lon, radiusKm)
}

func (f *MarketFacade) SetRiderAvailability(ctx context.Context, actor model.Actor, available bool) (*model.RiderProfile, error) {
	return f.riders.SetAvailability(ctx, actor, available)
}

func (f *MarketFacade) UpdateRiderLocation(ctx context.Context, actor model.Actor, lat, lon float64) (*model.RiderProfile, error) {
	return f.riders.UpdateLocation(ctx, actor, lat, lon)
}

func (f *MarketFacade) VerifyRider(ctx context.Context, actor model.Actor, riderID int64, status model.VerificationStatus) (*model.RiderProfile, error) {
	return f.riders.Verify(ctx, actor, riderID, status)
}

func (f *MarketFacade) CreateProduct(ctx context.Context, actor model.Actor, in usecase.CreateProductInput) (*model.Product, error) {
	return f.catalog.CreateProduct(ctx, actor, in)
}

func (f *MarketFacade) Product(ctx context.Context, id int64) (*model.Product, error) {
	return f.catalog.GetProduct(ctx, id)
}

func (f *MarketFacade) Notifications(ctx context.Context, actor model.Actor) ([]model.Notification, error) {
	return f.notifications.List(ctx, actor)
}

func (f *MarketFacade) MarkNotificationRead(ctx context.Context, actor model.Actor, id int64) error {
	return f.notifications.MarkRead(ctx, actor, id)
}

func (f *MarketFacade) MarkAllNotificationsRead(ctx context.Context, actor model.Actor) (int64, error) {
	return f.notifications.MarkAllRead(ctx, actor)
}

// HealthCheck pings the store. A facade without a checker is always healthy.
func (f *MarketFacade) HealthCheck(ctx context.Context) error {
	if f.health == nil {
		return nil
	}
	return f.health.HealthCheck(ctx)
}
