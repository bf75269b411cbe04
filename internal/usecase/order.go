package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"

	domainErrors "github.com/polkiloo/agristar/internal/domain/errors"
	"github.com/polkiloo/agristar/internal/domain/lifecycle"
	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/domain/repository"
)

// PaymentCollector starts customer-to-business collections.
type PaymentCollector interface {
	InitiateCollection(ctx context.Context, req model.Collection) (*model.CollectionReceipt, error)
}

// PaymentDisburser starts business-to-customer payouts.
type PaymentDisburser interface {
	InitiateDisbursement(ctx context.Context, req model.Disbursement) (*model.DisbursementReceipt, error)
}

// OrderDependencies lists the collaborators of OrderUseCase.
type OrderDependencies struct {
	fx.In

	Orders    repository.OrderRepository
	Products  repository.ProductRepository
	Users     repository.UserRepository
	Riders    repository.RiderRepository
	Collector PaymentCollector
	Disburser PaymentDisburser
	Events    EventPublisher
	Logger    *slog.Logger
}

// OrderUseCase coordinates the order lifecycle and escrow settlement.
//
// Every state change goes through a conditional repository update, so the
// use case never trusts the status it read earlier: losing a race surfaces
// as ErrInvalidTransition and nothing is applied twice.
type OrderUseCase struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	users     repository.UserRepository
	riders    repository.RiderRepository
	collector PaymentCollector
	disburser PaymentDisburser
	events    EventPublisher
	logger    *slog.Logger

	newReference func() string
	newCode      func() (string, error)
	now          func() time.Time
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(d OrderDependencies) *OrderUseCase {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderUseCase{
		orders:       d.Orders,
		products:     d.Products,
		users:        d.Users,
		riders:       d.Riders,
		collector:    d.Collector,
		disburser:    d.Disburser,
		events:       d.Events,
		logger:       logger,
		newReference: uuid.NewString,
		newCode:      verificationCode,
		now:          time.Now,
	}
}

// PlaceOrderInput describes a new order.
type PlaceOrderInput struct {
	ProductID      int64
	Quantity       int64
	DeliveryMethod model.DeliveryMethod
}

// PlaceOrder creates a PENDING order priced from the current product price.
func (u *OrderUseCase) PlaceOrder(ctx context.Context, actor model.Actor, in PlaceOrderInput) (*model.Order, error) {
	if !model.CanPurchase(actor) {
		return nil, domainErrors.ErrPermissionDenied
	}
	if in.Quantity < 1 {
		return nil, domainErrors.ErrInvalidQuantity
	}
	method := in.DeliveryMethod
	if method == "" {
		method = model.DeliveryMethodDelivery
	}
	if !method.IsValid() {
		return nil, domainErrors.ErrInvalidDelivery
	}

	product, err := u.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Available {
		return nil, domainErrors.ErrProductUnavailable
	}
	if product.SellerID == actor.UserID() {
		return nil, fmt.Errorf("%w: cannot order own product", domainErrors.ErrPermissionDenied)
	}

	pickupCode, err := u.newCode()
	if err != nil {
		return nil, err
	}
	deliveryCode, err := u.newCode()
	if err != nil {
		return nil, err
	}

	order, err := u.orders.Create(ctx, model.Order{
		BuyerID:        actor.UserID(),
		ProductID:      product.ID,
		SellerID:       product.SellerID,
		Quantity:       in.Quantity,
		UnitPrice:      product.Price,
		TotalPrice:     product.Price.Mul(decimal.NewFromInt(in.Quantity)),
		Status:         model.OrderStatusPending,
		DeliveryMethod: method,
		PickupCode:     pickupCode,
		DeliveryCode:   deliveryCode,
	})
	if err != nil {
		return nil, err
	}

	u.publish(ctx, model.EventPlace, "", order, actor.UserID())
	return order, nil
}

// Accept moves a PENDING order to ACCEPTED on behalf of its seller.
func (u *OrderUseCase) Accept(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	return u.sellerDecision(ctx, actor, orderID, model.EventAccept)
}

// Reject moves a PENDING order to REJECTED on behalf of its seller.
func (u *OrderUseCase) Reject(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	return u.sellerDecision(ctx, actor, orderID, model.EventReject)
}

func (u *OrderUseCase) sellerDecision(ctx context.Context, actor model.Actor, orderID int64, event model.Event) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID != actor.UserID() {
		return nil, domainErrors.ErrPermissionDenied
	}
	return u.transition(ctx, actor, order, event, func(from []model.OrderStatus, to model.OrderStatus) (*model.Order, error) {
		return u.orders.UpdateStatus(ctx, order.ID, from, to)
	})
}

// AssignRider attaches a rider to a funded delivery order. A seller names
// the rider; a rider can only assign themselves. Either way the rider must
// be verified and available.
func (u *OrderUseCase) AssignRider(ctx context.Context, actor model.Actor, orderID, riderID int64) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch a := actor.(type) {
	case model.Rider:
		if riderID != 0 && riderID != a.ID {
			return nil, domainErrors.ErrPermissionDenied
		}
		riderID = a.ID
	default:
		if order.SellerID != actor.UserID() {
			return nil, domainErrors.ErrPermissionDenied
		}
		if riderID <= 0 {
			return nil, domainErrors.ErrRiderUnavailable
		}
	}

	if order.DeliveryMethod != model.DeliveryMethodDelivery {
		return nil, domainErrors.ErrInvalidDelivery
	}
	if order.AssignedRiderID != nil {
		return nil, domainErrors.ErrRiderAlreadyAssigned
	}
	if !lifecycle.Allowed(order.Status, model.EventAssignRider) {
		return nil, fmt.Errorf("%w: %s from %s", domainErrors.ErrInvalidTransition, model.EventAssignRider, order.Status)
	}

	profile, err := u.riders.GetProfile(ctx, riderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, domainErrors.ErrRiderUnavailable
		}
		return nil, err
	}
	if !profile.Dispatchable() {
		return nil, domainErrors.ErrRiderUnavailable
	}

	updated, err := u.orders.AssignRider(ctx, order.ID, riderID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidTransition) {
			return nil, u.classifyAssignRace(ctx, order.ID)
		}
		return nil, err
	}

	u.publish(ctx, model.EventAssignRider, order.Status, updated, actor.UserID())
	return updated, nil
}

func (u *OrderUseCase) classifyAssignRace(ctx context.Context, orderID int64) error {
	current, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if current.AssignedRiderID != nil {
		return domainErrors.ErrRiderAlreadyAssigned
	}
	return domainErrors.ErrInvalidTransition
}

// ReportProgress lets the assigned rider move the order to IN_DELIVERY or
// DELIVERED. Delivering also credits the rider's delivery counters.
func (u *OrderUseCase) ReportProgress(ctx context.Context, actor model.Actor, orderID int64, status model.OrderStatus) (*model.Order, error) {
	rider, ok := actor.(model.Rider)
	if !ok {
		return nil, domainErrors.ErrPermissionDenied
	}
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.AssignedRiderID == nil || *order.AssignedRiderID != rider.ID {
		return nil, domainErrors.ErrPermissionDenied
	}

	switch status {
	case model.OrderStatusInDelivery:
		return u.transition(ctx, actor, order, model.EventStartDelivery, func(from []model.OrderStatus, to model.OrderStatus) (*model.Order, error) {
			return u.orders.UpdateRiderStatus(ctx, order.ID, rider.ID, from, to)
		})
	case model.OrderStatusDelivered:
		return u.transition(ctx, actor, order, model.EventMarkDelivered, func(from []model.OrderStatus, _ model.OrderStatus) (*model.Order, error) {
			return u.orders.CompleteDelivery(ctx, order.ID, rider.ID, from)
		})
	default:
		return nil, fmt.Errorf("%w: riders cannot report %s", domainErrors.ErrInvalidTransition, status)
	}
}

// MarkReadyForPickup flags a funded pickup order as ready for collection.
func (u *OrderUseCase) MarkReadyForPickup(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID != actor.UserID() {
		return nil, domainErrors.ErrPermissionDenied
	}
	if order.DeliveryMethod != model.DeliveryMethodPickup {
		return nil, domainErrors.ErrInvalidDelivery
	}
	return u.transition(ctx, actor, order, model.EventMarkReady, func([]model.OrderStatus, model.OrderStatus) (*model.Order, error) {
		return u.orders.MarkReadyForPickup(ctx, order.ID)
	})
}

// Cancel withdraws an order before any collection was initiated.
func (u *OrderUseCase) Cancel(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	order, err := u.buyerOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentInitiated() {
		return nil, fmt.Errorf("%w: payment already initiated", domainErrors.ErrInvalidTransition)
	}
	return u.transition(ctx, actor, order, model.EventCancel, func(from []model.OrderStatus, _ model.OrderStatus) (*model.Order, error) {
		return u.orders.CancelUnpaid(ctx, order.ID, from)
	})
}

// OpenDispute freezes a funded order until an admin resolves it.
func (u *OrderUseCase) OpenDispute(ctx context.Context, actor model.Actor, orderID int64, reason string) (*model.Order, error) {
	order, err := u.buyerOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.PayoutClaimed() {
		return nil, domainErrors.ErrPayoutPending
	}
	return u.transition(ctx, actor, order, model.EventDispute, func(from []model.OrderStatus, _ model.OrderStatus) (*model.Order, error) {
		return u.orders.OpenDispute(ctx, order.ID, from, reason)
	})
}

// ChangeQuantity updates quantity and total while no payment is in flight.
func (u *OrderUseCase) ChangeQuantity(ctx context.Context, actor model.Actor, orderID, quantity int64) (*model.Order, error) {
	if quantity < 1 {
		return nil, domainErrors.ErrInvalidQuantity
	}
	order, err := u.buyerOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentInitiated() {
		return nil, fmt.Errorf("%w: payment already initiated", domainErrors.ErrInvalidTransition)
	}
	total := order.UnitPrice.Mul(decimal.NewFromInt(quantity))
	return u.transition(ctx, actor, order, model.EventChangeQuantity, func(from []model.OrderStatus, _ model.OrderStatus) (*model.Order, error) {
		return u.orders.UpdateQuantity(ctx, order.ID, from, quantity, total)
	})
}

// Get returns an order visible to the actor.
func (u *OrderUseCase) Get(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, admin := actor.(model.Admin); !admin && !order.IsParticipant(actor.UserID()) {
		return nil, domainErrors.ErrPermissionDenied
	}
	return order, nil
}

// ListForActor returns the orders the actor takes part in, newest first.
// Admins see every order.
func (u *OrderUseCase) ListForActor(ctx context.Context, actor model.Actor) ([]model.Order, error) {
	if _, admin := actor.(model.Admin); admin {
		return u.orders.ListAll(ctx)
	}
	return u.orders.ListByParticipant(ctx, actor.UserID())
}

func (u *OrderUseCase) buyerOrder(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != actor.UserID() {
		return nil, domainErrors.ErrPermissionDenied
	}
	return order, nil
}

// transition checks the event against the order's current status, applies
// it through the conditional update and publishes the result.
func (u *OrderUseCase) transition(
	ctx context.Context,
	actor model.Actor,
	order *model.Order,
	event model.Event,
	apply func(from []model.OrderStatus, to model.OrderStatus) (*model.Order, error),
) (*model.Order, error) {
	to, err := lifecycle.Next(order.Status, event)
	if err != nil {
		return nil, err
	}
	updated, err := apply(lifecycle.Sources(event), to)
	if err != nil {
		return nil, err
	}

	var actorID int64
	if actor != nil {
		actorID = actor.UserID()
	}
	u.publish(ctx, event, order.Status, updated, actorID)
	return updated, nil
}

func (u *OrderUseCase) publish(ctx context.Context, event model.Event, from model.OrderStatus, order *model.Order, actorID int64) {
	if u.events == nil {
		return
	}
	u.events.Publish(ctx, model.TransitionEvent{
		Event:   event,
		From:    from,
		Order:   *order,
		ActorID: actorID,
		At:      u.now(),
	})
}

// verificationCode returns a random six digit code.
func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
