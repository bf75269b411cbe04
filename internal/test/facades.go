package test

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/usecase"
)

// AuthFacadeStub simulates authentication facade interactions.
type AuthFacadeStub struct {
	RegisterFn     func(context.Context, usecase.RegisterInput) (*model.User, string, error)
	AuthenticateFn func(context.Context, string, string) (*model.User, string, error)
	TokenParserStub
}

func (s AuthFacadeStub) Register(ctx context.Context, in usecase.RegisterInput) (*model.User, string, error) {
	if s.RegisterFn != nil {
		return s.RegisterFn(ctx, in)
	}
	return &model.User{ID: 1, Username: in.Username, Role: in.Role, Phone: in.Phone}, "token", nil
}

func (s AuthFacadeStub) Authenticate(ctx context.Context, username, password string) (*model.User, string, error) {
	if s.AuthenticateFn != nil {
		return s.AuthenticateFn(ctx, username, password)
	}
	return &model.User{ID: 1, Username: username, Role: model.RoleBuyer}, "token", nil
}

// OrderAction is the shape shared by single-order actions.
type OrderAction func(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)

// OrderFacadeStub provides controllable behaviour for order endpoints.
// Unset actions echo a PENDING order with the requested id.
type OrderFacadeStub struct {
	PlaceFn    func(context.Context, model.Actor, usecase.PlaceOrderInput) (*model.Order, error)
	OrdersFn   func(context.Context, model.Actor) ([]model.Order, error)
	OrderFn    OrderAction
	AcceptFn   OrderAction
	RejectFn   OrderAction
	PayFn      func(context.Context, model.Actor, int64, string) (*model.Order, error)
	AssignFn   func(context.Context, model.Actor, int64, int64) (*model.Order, error)
	ProgressFn func(context.Context, model.Actor, int64, model.OrderStatus) (*model.Order, error)
	ReadyFn    OrderAction
	ConfirmFn  OrderAction
	CancelFn   OrderAction
	DisputeFn  func(context.Context, model.Actor, int64, string) (*model.Order, error)
	ResolveFn  func(context.Context, model.Actor, int64, model.PayoutKind) (*model.Order, error)
	QuantityFn func(context.Context, model.Actor, int64, int64) (*model.Order, error)
	ReleaseFn  OrderAction
}

// SampleOrder returns a PENDING order bought by user 1 from user 2.
func SampleOrder(id int64) *model.Order {
	return &model.Order{
		ID:             id,
		BuyerID:        1,
		SellerID:       2,
		ProductID:      10,
		Quantity:       3,
		UnitPrice:      decimal.RequireFromString("150.5"),
		TotalPrice:     decimal.RequireFromString("451.5"),
		Status:         model.OrderStatusPending,
		DeliveryMethod: model.DeliveryMethodDelivery,
		PickupCode:     "123456",
		DeliveryCode:   "654321",
	}
}

func runAction(ctx context.Context, fn OrderAction, actor model.Actor, id int64) (*model.Order, error) {
	if fn != nil {
		return fn(ctx, actor, id)
	}
	return SampleOrder(id), nil
}

func (s OrderFacadeStub) PlaceOrder(ctx context.Context, actor model.Actor, in usecase.PlaceOrderInput) (*model.Order, error) {
	if s.PlaceFn != nil {
		return s.PlaceFn(ctx, actor, in)
	}
	o := SampleOrder(1)
	o.ProductID = in.ProductID
	o.Quantity = in.Quantity
	return o, nil
}

func (s OrderFacadeStub) Orders(ctx context.Context, actor model.Actor) ([]model.Order, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, actor)
	}
	return []model.Order{*SampleOrder(1)}, nil
}

func (s OrderFacadeStub) Order(ctx context.Context, actor model.Actor, id int64) (*model.Order, error) {
	return runAction(ctx, s.OrderFn, actor, id)
}

func (s OrderFacadeStub) AcceptOrder(ctx context.Context, actor model.Actor, id int64) (*model.Order, error) {
	return runAction(ctx, s.AcceptFn, actor, id)
}

func (s OrderFacadeStub) RejectOrder(ctx context.Context, actor model.Actor, id int64) (*model.Order, error) {
	return runAction(ctx, s.RejectFn, actor, id)
}

func (s OrderFacadeStub) PayOrder(ctx context.Context, actor model.Actor, id int64, phone string) (*model.Order, error) {
	if s.PayFn != nil {
		return s.PayFn(ctx, actor, id, phone)
	}
	return SampleOrder(id), nil
}

func (s OrderFacadeStub) AssignRider(ctx context.Context, actor model.Actor, id, riderID int64) (*model.Order, error) {
	if s.AssignFn != nil {
		return s.AssignFn(ctx, actor, id, riderID)
	}
	return SampleOrder(id), nil
}

func (s OrderFacadeStub) ReportProgress(ctx context.Context, actor model.Actor, id int64, status model.OrderStatus) (*model.Order, error) {
	if s.ProgressFn != nil {
		return s.ProgressFn(ctx, actor, id, status)
	}
	o := SampleOrder(id)
	o.Status = status
	return o, nil
}

func (s OrderFacadeStub) MarkReadyForPickup(ctx context.Context, actor model.Actor, id int64) (*model.Order, error) {
	return runAction(ctx, s.ReadyFn, actor, id)
}

func (s OrderFacadeStub) ConfirmDelivery(ctx context.Context, actor model.Actor, id int64) (*model.Order, error) {
	return runAction(ctx, s.ConfirmFn, actor, id)
}

func (s OrderFacadeStub) CancelOrder(ctx context.Context, actor model.Actor, id int64) (*model.Order, error) {
	return runAction(ctx, s.CancelFn, actor, id)
}

func (s OrderFacadeStub) OpenDispute(ctx context.Context, actor model.Actor, id int64, reason string) (*model.Order, error) {
	if s.DisputeFn != nil {
		return s.DisputeFn(ctx, actor, id, reason)
	}
	return SampleOrder(id), nil
}

func (s OrderFacadeStub) ResolveDispute(ctx context.Context, actor model.Actor, id int64, outcome model.PayoutKind) (*model.Order, error) {
	if s.ResolveFn != nil {
		return s.ResolveFn(ctx, actor, id, outcome)
	}
	return SampleOrder(id), nil
}

func (s OrderFacadeStub) ChangeQuantity(ctx context.Context, actor model.Actor, id, quantity int64) (*model.Order, error) {
	if s.QuantityFn != nil {
		return s.QuantityFn(ctx, actor, id, quantity)
	}
	o := SampleOrder(id)
	o.Quantity = quantity
	return o, nil
}

func (s OrderFacadeStub) ReleasePayoutClaim(ctx context.Context, actor model.Actor, id int64) (*model.Order, error) {
	return runAction(ctx, s.ReleaseFn, actor, id)
}

// CallbackFacadeStub records gateway callbacks.
type CallbackFacadeStub struct {
	PaymentFn func(context.Context, model.PaymentResult) (usecase.CallbackOutcome, error)
	PayoutFn  func(context.Context, model.PayoutResult) (usecase.CallbackOutcome, error)
	TimeoutFn func(context.Context, model.PayoutResult) (usecase.CallbackOutcome, error)
}

func (s CallbackFacadeStub) ApplyPaymentResult(ctx context.Context, res model.PaymentResult) (usecase.CallbackOutcome, error) {
	if s.PaymentFn != nil {
		return s.PaymentFn(ctx, res)
	}
	return usecase.OutcomeApplied, nil
}

func (s CallbackFacadeStub) ApplyPayoutResult(ctx context.Context, res model.PayoutResult) (usecase.CallbackOutcome, error) {
	if s.PayoutFn != nil {
		return s.PayoutFn(ctx, res)
	}
	return usecase.OutcomeApplied, nil
}

func (s CallbackFacadeStub) ApplyPayoutTimeout(ctx context.Context, res model.PayoutResult) (usecase.CallbackOutcome, error) {
	if s.TimeoutFn != nil {
		return s.TimeoutFn(ctx, res)
	}
	return usecase.OutcomeReleased, nil
}

// RiderFacadeStub simulates rider operations.
type RiderFacadeStub struct {
	NearbyFn       func(context.Context, model.Actor, float64, float64, *float64) ([]model.NearbyRider, error)
	AvailabilityFn func(context.Context, model.Actor, bool) (*model.RiderProfile, error)
	LocationFn     func(context.Context, model.Actor, float64, float64) (*model.RiderProfile, error)
	VerifyFn       func(context.Context, model.Actor, int64, model.VerificationStatus) (*model.RiderProfile, error)
}

func (s RiderFacadeStub) NearbyRiders(ctx context.Context, actor model.Actor, lat, lon float64, radiusKm *float64) ([]model.NearbyRider, error) {
	if s.NearbyFn != nil {
		return s.NearbyFn(ctx, actor, lat, lon, radiusKm)
	}
	return nil, nil
}

func (s RiderFacadeStub) SetRiderAvailability(ctx context.Context, actor model.Actor, available bool) (*model.RiderProfile, error) {
	if s.AvailabilityFn != nil {
		return s.AvailabilityFn(ctx, actor, available)
	}
	return &model.RiderProfile{UserID: actor.UserID(), IsAvailable: available}, nil
}

func (s RiderFacadeStub) UpdateRiderLocation(ctx context.Context, actor model.Actor, lat, lon float64) (*model.RiderProfile, error) {
	if s.LocationFn != nil {
		return s.LocationFn(ctx, actor, lat, lon)
	}
	return &model.RiderProfile{UserID: actor.UserID(), Latitude: &lat, Longitude: &lon}, nil
}

func (s RiderFacadeStub) VerifyRider(ctx context.Context, actor model.Actor, riderID int64, status model.VerificationStatus) (*model.RiderProfile, error) {
	if s.VerifyFn != nil {
		return s.VerifyFn(ctx, actor, riderID, status)
	}
	return &model.RiderProfile{UserID: riderID, Verification: status}, nil
}

// CatalogFacadeStub simulates product listing.
type CatalogFacadeStub struct {
	CreateFn  func(context.Context, model.Actor, usecase.CreateProductInput) (*model.Product, error)
	ProductFn func(context.Context, int64) (*model.Product, error)
}

func (s CatalogFacadeStub) CreateProduct(ctx context.Context, actor model.Actor, in usecase.CreateProductInput) (*model.Product, error) {
	if s.CreateFn != nil {
		return s.CreateFn(ctx, actor, in)
	}
	return &model.Product{ID: 1, SellerID: actor.UserID(), Name: in.Name, Price: in.Price, Unit: in.Unit, Available: true}, nil
}

func (s CatalogFacadeStub) Product(ctx context.Context, id int64) (*model.Product, error) {
	if s.ProductFn != nil {
		return s.ProductFn(ctx, id)
	}
	return &model.Product{ID: id, SellerID: 2, Name: "Sukuma wiki", Price: decimal.RequireFromString("150.5"), Unit: "bunch", Available: true}, nil
}

// NotificationFacadeStub simulates notifications.
type NotificationFacadeStub struct {
	ListFn        func(context.Context, model.Actor) ([]model.Notification, error)
	MarkReadFn    func(context.Context, model.Actor, int64) error
	MarkAllReadFn func(context.Context, model.Actor) (int64, error)
}

func (s NotificationFacadeStub) Notifications(ctx context.Context, actor model.Actor) ([]model.Notification, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, actor)
	}
	return nil, nil
}

func (s NotificationFacadeStub) MarkNotificationRead(ctx context.Context, actor model.Actor, id int64) error {
	if s.MarkReadFn != nil {
		return s.MarkReadFn(ctx, actor, id)
	}
	return nil
}

func (s NotificationFacadeStub) MarkAllNotificationsRead(ctx context.Context, actor model.Actor) (int64, error) {
	if s.MarkAllReadFn != nil {
		return s.MarkAllReadFn(ctx, actor)
	}
	return 0, nil
}

// HealthFacadeStub reports the configured error.
type HealthFacadeStub struct {
	Err error
}

func (s HealthFacadeStub) HealthCheck(context.Context) error { return s.Err }

// MarketFacadeStub aggregates facade dependencies for HTTP layer tests.
type MarketFacadeStub struct {
	AuthFacadeStub
	OrderFacadeStub
	CallbackFacadeStub
	RiderFacadeStub
	CatalogFacadeStub
	NotificationFacadeStub
	HealthFacadeStub
}
