package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/agristar/internal/domain/errors"
	"github.com/polkiloo/agristar/internal/domain/model"
)

var (
	buyer         = model.Buyer{ID: 1}
	farmer        = model.Farmer{ID: 2}
	rider         = model.Rider{ID: 3}
	pendingRider  = model.Rider{ID: 4}
	phonelessUser = model.Buyer{ID: 5}
	admin         = model.Admin{ID: 9}
)

type harness struct {
	uc        *OrderUseCase
	orders    *memOrders
	riders    *memRiders
	collector *fakeCollector
	disburser *fakeDisburser
	events    *recordingPublisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	lat, lon := -1.2921, 36.8219
	riders := newMemRiders(
		model.RiderProfile{UserID: 3, IsAvailable: true, Verification: model.VerificationVerified, Latitude: &lat, Longitude: &lon},
		model.RiderProfile{UserID: 4, IsAvailable: true, Verification: model.VerificationPending},
	)
	users := newMemUsers(
		model.User{ID: 1, Username: "wanjiku", Role: model.RoleBuyer, Phone: "0712345678"},
		model.User{ID: 2, Username: "kamau", Role: model.RoleFarmer, Phone: "254722000000"},
		model.User{ID: 3, Username: "otieno", Role: model.RoleRider, Phone: "254733000000"},
		model.User{ID: 4, Username: "achieng", Role: model.RoleRider},
		model.User{ID: 5, Username: "mutua", Role: model.RoleBuyer},
		model.User{ID: 9, Username: "admin", Role: model.RoleAdmin},
	)
	products := newMemProducts(
		model.Product{ID: 10, SellerID: 2, Name: "Sukuma wiki", Price: decimal.RequireFromString("150.50"), Unit: "bunch", Available: true},
		model.Product{ID: 11, SellerID: 2, Name: "Maize", Price: decimal.RequireFromString("60"), Unit: "kg"},
	)
	orders := newMemOrders(riders)
	h := &harness{
		orders:    orders,
		riders:    riders,
		collector: &fakeCollector{},
		disburser: &fakeDisburser{},
		events:    &recordingPublisher{},
	}
	h.uc = NewOrderUseCase(OrderDependencies{
		Orders:    orders,
		Products:  products,
		Users:     users,
		Riders:    riders,
		Collector: h.collector,
		Disburser: h.disburser,
		Events:    h.events,
		Logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	var refs atomic.Int64
	h.uc.newReference = func() string { return fmt.Sprintf("ref-%d", refs.Add(1)) }
	return h
}

func (h *harness) order(t *testing.T, id int64) *model.Order {
	t.Helper()
	o, err := h.orders.GetByID(context.Background(), id)
	require.NoError(t, err)
	return o
}

// seed stores an order of three bunches at 150.50 in the given state.
func (h *harness) seed(status model.OrderStatus, method model.DeliveryMethod) *model.Order {
	o := model.Order{
		BuyerID: 1, ProductID: 10, SellerID: 2, Quantity: 3,
		UnitPrice: decimal.RequireFromString("150.50"), TotalPrice: decimal.RequireFromString("451.50"),
		Status: status, DeliveryMethod: method, PickupCode: "111111", DeliveryCode: "222222",
	}
	if status.IsFunded() {
		now := time.Now()
		checkout := fmt.Sprintf("ws_seed_%d", time.Now().UnixNano())
		o.FundedAt = &now
		o.CheckoutRequestID = &checkout
	}
	return h.orders.put(o)
}

func TestPlaceOrderSnapshotsPriceAndIssuesCodes(t *testing.T) {
	h := newHarness(t)

	order, err := h.uc.PlaceOrder(context.Background(), buyer, PlaceOrderInput{ProductID: 10, Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, int64(2), order.SellerID)
	assert.Equal(t, model.DeliveryMethodDelivery, order.DeliveryMethod)
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("451.50")), order.TotalPrice.String())
	assert.Regexp(t, `^\d{6}$`, order.PickupCode)
	assert.Regexp(t, `^\d{6}$`, order.DeliveryCode)
	assert.Equal(t, []model.Event{model.EventPlace}, h.events.names())
}

func TestPlaceOrderGuards(t *testing.T) {
	tests := []struct {
		name  string
		actor model.Actor
		in    PlaceOrderInput
		want  error
	}{
		{"rider cannot purchase", rider, PlaceOrderInput{ProductID: 10, Quantity: 1}, domainErrors.ErrPermissionDenied},
		{"zero quantity", buyer, PlaceOrderInput{ProductID: 10}, domainErrors.ErrInvalidQuantity},
		{"unknown method", buyer, PlaceOrderInput{ProductID: 10, Quantity: 1, DeliveryMethod: "DRONE"}, domainErrors.ErrInvalidDelivery},
		{"unavailable product", buyer, PlaceOrderInput{ProductID: 11, Quantity: 1}, domainErrors.ErrProductUnavailable},
		{"missing product", buyer, PlaceOrderInput{ProductID: 99, Quantity: 1}, domainErrors.ErrNotFound},
		{"seller buying own product", farmer, PlaceOrderInput{ProductID: 10, Quantity: 1}, domainErrors.ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.uc.PlaceOrder(context.Background(), tt.actor, tt.in)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, h.events.names())
		})
	}
}

func TestAcceptAndReject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusPending, model.DeliveryMethodDelivery)

	_, err := h.uc.Accept(ctx, buyer, o.ID)
	require.ErrorIs(t, err, domainErrors.ErrPermissionDenied)

	accepted, err := h.uc.Accept(ctx, farmer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusAccepted, accepted.Status)

	_, err = h.uc.Reject(ctx, farmer, o.ID)
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)

	other := h.seed(model.OrderStatusPending, model.DeliveryMethodDelivery)
	rejected, err := h.uc.Reject(ctx, farmer, other.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRejected, rejected.Status)
	assert.Equal(t, []model.Event{model.EventAccept, model.EventReject}, h.events.names())
}

func TestInitiatePaymentUsesProfilePhone(t *testing.T) {
	h := newHarness(t)
	o := h.seed(model.OrderStatusAccepted, model.DeliveryMethodDelivery)

	updated, err := h.uc.InitiatePayment(context.Background(), buyer, o.ID, "")
	require.NoError(t, err)

	require.Len(t, h.collector.calls, 1)
	call := h.collector.calls[0]
	assert.Equal(t, "254712345678", call.Phone)
	assert.Equal(t, int64(451), call.Amount)
	assert.Equal(t, fmt.Sprintf("Order-%d", o.ID), call.Reference)
	assert.Equal(t, collectionDescription, call.Description)

	require.NotNil(t, updated.CheckoutRequestID)
	assert.Equal(t, "ws_CO_1", *updated.CheckoutRequestID)
	assert.Equal(t, model.OrderStatusAccepted, updated.Status)
}

func TestInitiatePaymentPhoneOverride(t *testing.T) {
	h := newHarness(t)
	o := h.seed(model.OrderStatusAccepted, model.DeliveryMethodDelivery)

	_, err := h.uc.InitiatePayment(context.Background(), buyer, o.ID, "+254 799 000 111")
	require.NoError(t, err)
	assert.Equal(t, "254799000111", h.collector.calls[0].Phone)
}

func TestInitiatePaymentPhoneErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	o := h.orders.put(model.Order{BuyerID: 5, SellerID: 2, ProductID: 10, Quantity: 1,
		UnitPrice: decimal.NewFromInt(100), TotalPrice: decimal.NewFromInt(100), Status: model.OrderStatusAccepted})
	_, err := h.uc.InitiatePayment(ctx, phonelessUser, o.ID, "")
	require.ErrorIs(t, err, domainErrors.ErrPhoneRequired)

	_, err = h.uc.InitiatePayment(ctx, phonelessUser, o.ID, "12345")
	require.ErrorIs(t, err, domainErrors.ErrInvalidPhone)
	assert.Empty(t, h.collector.calls)
}

func TestInitiatePaymentGatewayFailure(t *testing.T) {
	h := newHarness(t)
	h.collector.err = fmt.Errorf("%w: read timeout", domainErrors.ErrPaymentOutcomeUnknown)
	o := h.seed(model.OrderStatusAccepted, model.DeliveryMethodDelivery)

	_, err := h.uc.InitiatePayment(context.Background(), buyer, o.ID, "")
	require.ErrorIs(t, err, domainErrors.ErrPaymentUnavailable)
	assert.Nil(t, h.order(t, o.ID).CheckoutRequestID)
	assert.Empty(t, h.events.names())
}

func TestInitiatePaymentRequiresAcceptedOrder(t *testing.T) {
	h := newHarness(t)
	o := h.seed(model.OrderStatusPending, model.DeliveryMethodDelivery)

	_, err := h.uc.InitiatePayment(context.Background(), buyer, o.ID, "")
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)

	_, err = h.uc.InitiatePayment(context.Background(), farmer, o.ID, "")
	require.ErrorIs(t, err, domainErrors.ErrPermissionDenied)
	assert.Empty(t, h.collector.calls)
}

func (h *harness) initiated(t *testing.T) (*model.Order, string) {
	t.Helper()
	o := h.seed(model.OrderStatusAccepted, model.DeliveryMethodDelivery)
	updated, err := h.uc.InitiatePayment(context.Background(), buyer, o.ID, "")
	require.NoError(t, err)
	return updated, *updated.CheckoutRequestID
}

func TestInitiatePaymentLosesRaceWithCancel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	var logs bytes.Buffer
	h.uc.logger = slog.New(slog.NewJSONHandler(&logs, nil))
	o := h.seed(model.OrderStatusAccepted, model.DeliveryMethodDelivery)
	h.collector.onCall = func() {
		_, err := h.uc.Cancel(ctx, buyer, o.ID)
		require.NoError(t, err)
	}

	_, err := h.uc.InitiatePayment(ctx, buyer, o.ID, "")
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)
	assert.Contains(t, logs.String(), "collection prompt sent for order that left ACCEPTED")
	assert.Contains(t, logs.String(), `"checkout_request_id":"ws_CO_1"`)

	traced, err := h.orders.GetByCheckoutRequestID(ctx, "ws_CO_1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, traced.ID)

	outcome, err := h.uc.ApplyPaymentResult(ctx, model.PaymentResult{CheckoutRequestID: "ws_CO_1", ReceiptNumber: "QK7"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAnomaly, outcome)
	assert.Equal(t, model.OrderStatusCancelled, h.order(t, o.ID).Status)
}

func TestApplyPaymentResultIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o, checkout := h.initiated(t)

	res := model.PaymentResult{CheckoutRequestID: checkout, ReceiptNumber: "QK12ABC"}
	outcome, err := h.uc.ApplyPaymentResult(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	funded := h.order(t, o.ID)
	assert.Equal(t, model.OrderStatusEscrow, funded.Status)
	require.NotNil(t, funded.MpesaReceiptNumber)
	assert.Equal(t, "QK12ABC", *funded.MpesaReceiptNumber)
	require.NotNil(t, funded.FundedAt)

	outcome, err = h.uc.ApplyPaymentResult(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, 1, h.events.count(model.EventConfirmPayment))
	assert.Equal(t, *funded.FundedAt, *h.order(t, o.ID).FundedAt)
}

func TestApplyPaymentResultConcurrentCallbacks(t *testing.T) {
	h := newHarness(t)
	o, checkout := h.initiated(t)

	var (
		wg      sync.WaitGroup
		applied atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := h.uc.ApplyPaymentResult(context.Background(), model.PaymentResult{CheckoutRequestID: checkout, ReceiptNumber: "QK"})
			assert.NoError(t, err)
			if outcome == OutcomeApplied {
				applied.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), applied.Load())
	assert.Equal(t, 1, h.events.count(model.EventConfirmPayment))
	assert.Equal(t, model.OrderStatusEscrow, h.order(t, o.ID).Status)
}

func TestApplyPaymentResultUnknownCheckout(t *testing.T) {
	h := newHarness(t)

	outcome, err := h.uc.ApplyPaymentResult(context.Background(), model.PaymentResult{CheckoutRequestID: "ws_CO_nope"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnmatched, outcome)
	assert.Empty(t, h.events.names())
}

func TestApplyPaymentResultFailureLeavesOrder(t *testing.T) {
	h := newHarness(t)
	o, checkout := h.initiated(t)

	outcome, err := h.uc.ApplyPaymentResult(context.Background(), model.PaymentResult{
		CheckoutRequestID: checkout, ResultCode: 1032, ResultDesc: "Request cancelled by user",
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, outcome)
	assert.Equal(t, model.OrderStatusAccepted, h.order(t, o.ID).Status)
	assert.Nil(t, h.order(t, o.ID).FundedAt)
}

func TestApplyPaymentResultLateCallbackForEarlierAttempt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o, first := h.initiated(t)

	_, err := h.uc.InitiatePayment(ctx, buyer, o.ID, "")
	require.NoError(t, err)
	assert.NotEqual(t, first, *h.order(t, o.ID).CheckoutRequestID)

	outcome, err := h.uc.ApplyPaymentResult(ctx, model.PaymentResult{CheckoutRequestID: first, ReceiptNumber: "QK1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, model.OrderStatusEscrow, h.order(t, o.ID).Status)
}

func TestApplyPaymentResultSecondCollectionIsAnomaly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o, first := h.initiated(t)

	again, err := h.uc.InitiatePayment(ctx, buyer, o.ID, "")
	require.NoError(t, err)
	second := *again.CheckoutRequestID
	require.NotEqual(t, first, second)

	outcome, err := h.uc.ApplyPaymentResult(ctx, model.PaymentResult{CheckoutRequestID: first, ReceiptNumber: "R-A"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	outcome, err = h.uc.ApplyPaymentResult(ctx, model.PaymentResult{CheckoutRequestID: second, ReceiptNumber: "R-B"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAnomaly, outcome)

	outcome, err = h.uc.ApplyPaymentResult(ctx, model.PaymentResult{CheckoutRequestID: first, ReceiptNumber: "R-A"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)

	funded := h.order(t, o.ID)
	require.NotNil(t, funded.CheckoutRequestID)
	assert.Equal(t, first, *funded.CheckoutRequestID)
	require.NotNil(t, funded.MpesaReceiptNumber)
	assert.Equal(t, "R-A", *funded.MpesaReceiptNumber)
	assert.Equal(t, 1, h.events.count(model.EventConfirmPayment))
}

func TestApplyPaymentResultForClosedOrderIsAnomaly(t *testing.T) {
	h := newHarness(t)
	checkout := "ws_CO_closed"
	o := h.orders.put(model.Order{BuyerID: 1, SellerID: 2, ProductID: 10, Quantity: 1,
		UnitPrice: decimal.NewFromInt(100), TotalPrice: decimal.NewFromInt(100),
		Status: model.OrderStatusCancelled, CheckoutRequestID: &checkout})

	outcome, err := h.uc.ApplyPaymentResult(context.Background(), model.PaymentResult{CheckoutRequestID: checkout, ReceiptNumber: "QK9"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAnomaly, outcome)
	assert.Equal(t, model.OrderStatusCancelled, h.order(t, o.ID).Status)
	assert.Nil(t, h.order(t, o.ID).FundedAt)
}

func TestAssignRider(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusEscrow, model.DeliveryMethodDelivery)

	_, err := h.uc.AssignRider(ctx, buyer, o.ID, 3)
	require.ErrorIs(t, err, domainErrors.ErrPermissionDenied)

	_, err = h.uc.AssignRider(ctx, pendingRider, o.ID, 0)
	require.ErrorIs(t, err, domainErrors.ErrRiderUnavailable)

	_, err = h.uc.AssignRider(ctx, farmer, o.ID, 4)
	require.ErrorIs(t, err, domainErrors.ErrRiderUnavailable)

	assigned, err := h.uc.AssignRider(ctx, farmer, o.ID, 3)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedRiderID)
	assert.Equal(t, int64(3), *assigned.AssignedRiderID)
	assert.Equal(t, model.OrderStatusEscrow, assigned.Status)

	_, err = h.uc.AssignRider(ctx, rider, o.ID, 0)
	require.ErrorIs(t, err, domainErrors.ErrRiderAlreadyAssigned)
}

func TestAssignRiderGuards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	pickup := h.seed(model.OrderStatusEscrow, model.DeliveryMethodPickup)
	_, err := h.uc.AssignRider(ctx, rider, pickup.ID, 0)
	require.ErrorIs(t, err, domainErrors.ErrInvalidDelivery)

	unpaid := h.seed(model.OrderStatusAccepted, model.DeliveryMethodDelivery)
	_, err = h.uc.AssignRider(ctx, rider, unpaid.ID, 0)
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)

	funded := h.seed(model.OrderStatusEscrow, model.DeliveryMethodDelivery)
	_, err = h.uc.AssignRider(ctx, rider, funded.ID, 4)
	require.ErrorIs(t, err, domainErrors.ErrPermissionDenied)

	self, err := h.uc.AssignRider(ctx, rider, funded.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), *self.AssignedRiderID)
}

func TestReportProgressCreditsRider(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusEscrow, model.DeliveryMethodDelivery)
	_, err := h.uc.AssignRider(ctx, rider, o.ID, 0)
	require.NoError(t, err)

	_, err = h.uc.ReportProgress(ctx, pendingRider, o.ID, model.OrderStatusInDelivery)
	require.ErrorIs(t, err, domainErrors.ErrPermissionDenied)
	_, err = h.uc.ReportProgress(ctx, farmer, o.ID, model.OrderStatusInDelivery)
	require.ErrorIs(t, err, domainErrors.ErrPermissionDenied)
	_, err = h.uc.ReportProgress(ctx, rider, o.ID, model.OrderStatusCompleted)
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)

	moving, err := h.uc.ReportProgress(ctx, rider, o.ID, model.OrderStatusInDelivery)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusInDelivery, moving.Status)

	delivered, err := h.uc.ReportProgress(ctx, rider, o.ID, model.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, delivered.Status)

	profile, err := h.riders.GetProfile(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.CompletedDeliveries)
	assert.Equal(t, 1, profile.TotalDeliveries)

	_, err = h.uc.ReportProgress(ctx, rider, o.ID, model.OrderStatusDelivered)
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)
}

func TestMarkReadyForPickup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	pickup := h.seed(model.OrderStatusEscrow, model.DeliveryMethodPickup)
	ready, err := h.uc.MarkReadyForPickup(ctx, farmer, pickup.ID)
	require.NoError(t, err)
	assert.True(t, ready.ReadyForPickup)
	assert.Equal(t, model.OrderStatusEscrow, ready.Status)

	delivery := h.seed(model.OrderStatusEscrow, model.DeliveryMethodDelivery)
	_, err = h.uc.MarkReadyForPickup(ctx, farmer, delivery.ID)
	require.ErrorIs(t, err, domainErrors.ErrInvalidDelivery)

	_, err = h.uc.MarkReadyForPickup(ctx, buyer, pickup.ID)
	require.ErrorIs(t, err, domainErrors.ErrPermissionDenied)
}

func TestConfirmDeliveryReleasesEscrow(t *testing.T) {
	h := newHarness(t)
	o := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)

	paid, err := h.uc.ConfirmDelivery(context.Background(), buyer, o.ID)
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPaidOut, paid.Status)
	require.NotNil(t, paid.PayoutConversationID)
	assert.Equal(t, "AG_ref-1", *paid.PayoutConversationID)
	require.NotNil(t, paid.PayoutKind)
	assert.Equal(t, model.PayoutRelease, *paid.PayoutKind)

	require.Len(t, h.disburser.calls, 1)
	call := h.disburser.calls[0]
	assert.Equal(t, "254722000000", call.Phone)
	assert.Equal(t, int64(451), call.Amount)
	assert.Equal(t, "ref-1", call.Reference)
	assert.Equal(t, releaseRemarks, call.Remarks)
	assert.Equal(t, []model.Event{model.EventConfirmDelivery}, h.events.names())
}

func TestConfirmDeliveryFromPickupEscrow(t *testing.T) {
	h := newHarness(t)
	o := h.seed(model.OrderStatusEscrow, model.DeliveryMethodPickup)

	paid, err := h.uc.ConfirmDelivery(context.Background(), buyer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaidOut, paid.Status)
}

func TestConfirmDeliveryDefinitiveFailureIsRetryable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)
	h.disburser.err = fmt.Errorf("%w: insufficient float", domainErrors.ErrPaymentUnavailable)

	_, err := h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.ErrorIs(t, err, domainErrors.ErrPaymentUnavailable)

	unchanged := h.order(t, o.ID)
	assert.Equal(t, model.OrderStatusDelivered, unchanged.Status)
	assert.Nil(t, unchanged.PayoutReference)
	assert.Empty(t, h.events.names())

	h.disburser.err = nil
	paid, err := h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaidOut, paid.Status)
	assert.Equal(t, 2, h.disburser.count())
}

func TestConfirmDeliveryAmbiguousOutcomeBlocksSecondPayout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)
	h.disburser.err = fmt.Errorf("%w: connection reset", domainErrors.ErrPaymentOutcomeUnknown)

	_, err := h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.ErrorIs(t, err, domainErrors.ErrPayoutPending)

	claimed := h.order(t, o.ID)
	assert.Equal(t, model.OrderStatusDelivered, claimed.Status)
	require.NotNil(t, claimed.PayoutReference)
	assert.Equal(t, "ref-1", *claimed.PayoutReference)

	h.disburser.err = nil
	_, err = h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.ErrorIs(t, err, domainErrors.ErrPayoutPending)
	assert.Equal(t, 1, h.disburser.count())
}

func TestConfirmDeliveryOutsideAllowedStates(t *testing.T) {
	for _, status := range []model.OrderStatus{model.OrderStatusPending, model.OrderStatusAccepted, model.OrderStatusPaidOut, model.OrderStatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			h := newHarness(t)
			o := h.seed(status, model.DeliveryMethodDelivery)

			_, err := h.uc.ConfirmDelivery(context.Background(), buyer, o.ID)
			require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)
			assert.Equal(t, status, h.order(t, o.ID).Status)
			assert.Zero(t, h.disburser.count())
		})
	}
}

func TestConfirmDeliveryByOthersIsDenied(t *testing.T) {
	h := newHarness(t)
	o := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)

	_, err := h.uc.ConfirmDelivery(context.Background(), farmer, o.ID)
	require.ErrorIs(t, err, domainErrors.ErrPermissionDenied)
}

func TestConfirmDeliverySurvivesCallerCancellation(t *testing.T) {
	h := newHarness(t)
	o := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paid, err := h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaidOut, paid.Status)
}

func TestApplyPayoutResultSettlesRelease(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)
	_, err := h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.NoError(t, err)

	res := model.PayoutResult{OriginatorConversationID: "ref-1", ConversationID: "AG_ref-1", TransactionID: "TX1"}
	outcome, err := h.uc.ApplyPayoutResult(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	settled := h.order(t, o.ID)
	assert.Equal(t, model.OrderStatusCompleted, settled.Status)
	require.NotNil(t, settled.PayoutResultCode)
	assert.Equal(t, 0, *settled.PayoutResultCode)

	outcome, err = h.uc.ApplyPayoutResult(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, 1, h.events.count(model.EventSettlePayout))
}

func TestApplyPayoutResultByConversationID(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)
	_, err := h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.NoError(t, err)

	outcome, err := h.uc.ApplyPayoutResult(ctx, model.PayoutResult{ConversationID: "AG_ref-1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, model.OrderStatusCompleted, h.order(t, o.ID).Status)
}

func TestApplyPayoutResultAfterAmbiguousOutcome(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)
	h.disburser.err = fmt.Errorf("%w: timeout", domainErrors.ErrPaymentOutcomeUnknown)
	_, err := h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.ErrorIs(t, err, domainErrors.ErrPayoutPending)

	outcome, err := h.uc.ApplyPayoutResult(ctx, model.PayoutResult{OriginatorConversationID: "ref-1", ConversationID: "AG_late"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	settled := h.order(t, o.ID)
	assert.Equal(t, model.OrderStatusCompleted, settled.Status)
	require.NotNil(t, settled.PayoutConversationID)
	assert.Equal(t, "AG_late", *settled.PayoutConversationID)
	assert.Equal(t, []model.Event{model.EventConfirmDelivery, model.EventSettlePayout}, h.events.names())
}

func TestApplyPayoutResultFailureReleasesUnacceptedClaim(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)
	h.disburser.err = fmt.Errorf("%w: timeout", domainErrors.ErrPaymentOutcomeUnknown)
	_, err := h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.ErrorIs(t, err, domainErrors.ErrPayoutPending)

	outcome, err := h.uc.ApplyPayoutResult(ctx, model.PayoutResult{OriginatorConversationID: "ref-1", ResultCode: 2001, ResultDesc: "invalid initiator"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReleased, outcome)

	released := h.order(t, o.ID)
	assert.Equal(t, model.OrderStatusDelivered, released.Status)
	assert.Nil(t, released.PayoutReference)

	h.disburser.err = nil
	paid, err := h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaidOut, paid.Status)
}

func TestApplyPayoutResultFailureAfterAcceptance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)
	_, err := h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.NoError(t, err)

	outcome, err := h.uc.ApplyPayoutResult(ctx, model.PayoutResult{OriginatorConversationID: "ref-1", ResultCode: 1, ResultDesc: "insufficient funds"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAnomaly, outcome)

	current := h.order(t, o.ID)
	assert.Equal(t, model.OrderStatusPaidOut, current.Status)
	require.NotNil(t, current.PayoutResultCode)
	assert.Equal(t, 1, *current.PayoutResultCode)
	assert.NotNil(t, current.PayoutReference)
}

func TestApplyPayoutResultUnknown(t *testing.T) {
	h := newHarness(t)

	outcome, err := h.uc.ApplyPayoutResult(context.Background(), model.PayoutResult{OriginatorConversationID: "nope", ConversationID: "AG_nope"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnmatched, outcome)
}

func TestApplyPayoutTimeoutReleasesClaim(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)
	h.disburser.err = fmt.Errorf("%w: timeout", domainErrors.ErrPaymentOutcomeUnknown)
	_, err := h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.ErrorIs(t, err, domainErrors.ErrPayoutPending)

	outcome, err := h.uc.ApplyPayoutTimeout(ctx, model.PayoutResult{OriginatorConversationID: "ref-1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeReleased, outcome)
	assert.Nil(t, h.order(t, o.ID).PayoutReference)

	outcome, err = h.uc.ApplyPayoutTimeout(ctx, model.PayoutResult{OriginatorConversationID: "ref-1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnmatched, outcome)
}

func TestApplyPayoutTimeoutAfterAcceptanceKeepsClaim(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)
	_, err := h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.NoError(t, err)

	outcome, err := h.uc.ApplyPayoutTimeout(ctx, model.PayoutResult{OriginatorConversationID: "ref-1", ConversationID: "AG_ref-1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeAnomaly, outcome)
	assert.NotNil(t, h.order(t, o.ID).PayoutReference)
}

func TestReleasePayoutClaimAllowsRetry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)
	h.disburser.err = fmt.Errorf("%w: connection reset", domainErrors.ErrPaymentOutcomeUnknown)
	_, err := h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.ErrorIs(t, err, domainErrors.ErrPayoutPending)

	_, err = h.uc.ReleasePayoutClaim(ctx, buyer, o.ID)
	require.ErrorIs(t, err, domainErrors.ErrPermissionDenied)

	released, err := h.uc.ReleasePayoutClaim(ctx, admin, o.ID)
	require.NoError(t, err)
	assert.Nil(t, released.PayoutReference)
	assert.Equal(t, model.OrderStatusDelivered, released.Status)

	h.disburser.err = nil
	paid, err := h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaidOut, paid.Status)
	require.NotNil(t, paid.PayoutReference)
	assert.Equal(t, "ref-2", *paid.PayoutReference)
	assert.Equal(t, 2, h.disburser.count())
}

func TestReleasePayoutClaimReopensDispute(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)
	h.disburser.err = fmt.Errorf("%w: timeout", domainErrors.ErrPaymentOutcomeUnknown)
	_, err := h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.ErrorIs(t, err, domainErrors.ErrPayoutPending)

	_, err = h.uc.OpenDispute(ctx, buyer, o.ID, "never arrived")
	require.ErrorIs(t, err, domainErrors.ErrPayoutPending)

	_, err = h.uc.ReleasePayoutClaim(ctx, admin, o.ID)
	require.NoError(t, err)

	disputed, err := h.uc.OpenDispute(ctx, buyer, o.ID, "never arrived")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDisputed, disputed.Status)
}

func TestReleasePayoutClaimGuards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	unclaimed := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)
	_, err := h.uc.ReleasePayoutClaim(ctx, admin, unclaimed.ID)
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)

	accepted := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)
	_, err = h.uc.ConfirmDelivery(ctx, buyer, accepted.ID)
	require.NoError(t, err)
	_, err = h.uc.ReleasePayoutClaim(ctx, admin, accepted.ID)
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)
	require.NotNil(t, h.order(t, accepted.ID).PayoutReference)

	_, err = h.uc.ReleasePayoutClaim(ctx, admin, 999)
	require.ErrorIs(t, err, domainErrors.ErrNotFound)
}

func TestCancel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	o := h.seed(model.OrderStatusPending, model.DeliveryMethodDelivery)
	_, err := h.uc.Cancel(ctx, farmer, o.ID)
	require.ErrorIs(t, err, domainErrors.ErrPermissionDenied)

	cancelled, err := h.uc.Cancel(ctx, buyer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)

	paying, _ := h.initiated(t)
	_, err = h.uc.Cancel(ctx, buyer, paying.ID)
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)
	assert.Equal(t, model.OrderStatusAccepted, h.order(t, paying.ID).Status)
}

func TestChangeQuantity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusAccepted, model.DeliveryMethodDelivery)

	_, err := h.uc.ChangeQuantity(ctx, buyer, o.ID, 0)
	require.ErrorIs(t, err, domainErrors.ErrInvalidQuantity)

	changed, err := h.uc.ChangeQuantity(ctx, buyer, o.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), changed.Quantity)
	assert.True(t, changed.TotalPrice.Equal(decimal.RequireFromString("752.50")), changed.TotalPrice.String())

	_, err = h.uc.InitiatePayment(ctx, buyer, o.ID, "")
	require.NoError(t, err)
	_, err = h.uc.ChangeQuantity(ctx, buyer, o.ID, 2)
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)

	funded := h.seed(model.OrderStatusEscrow, model.DeliveryMethodDelivery)
	_, err = h.uc.ChangeQuantity(ctx, buyer, funded.ID, 2)
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)
	assert.True(t, h.order(t, funded.ID).TotalPrice.Equal(decimal.RequireFromString("451.50")))
}

func TestDisputeAndRefund(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusEscrow, model.DeliveryMethodDelivery)

	disputed, err := h.uc.OpenDispute(ctx, buyer, o.ID, "wilted on arrival")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDisputed, disputed.Status)
	require.NotNil(t, disputed.DisputeReason)

	_, err = h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)

	_, err = h.uc.ResolveDispute(ctx, farmer, o.ID, model.PayoutRelease)
	require.ErrorIs(t, err, domainErrors.ErrPermissionDenied)

	_, err = h.uc.ResolveDispute(ctx, admin, o.ID, "SPLIT")
	require.ErrorIs(t, err, domainErrors.ErrInvalidTransition)

	refunded, err := h.uc.ResolveDispute(ctx, admin, o.ID, model.PayoutRefund)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRefunded, refunded.Status)

	require.Len(t, h.disburser.calls, 1)
	assert.Equal(t, "254712345678", h.disburser.calls[0].Phone)
	assert.Equal(t, refundRemarks, h.disburser.calls[0].Remarks)

	outcome, err := h.uc.ApplyPayoutResult(ctx, model.PayoutResult{OriginatorConversationID: "ref-1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, model.OrderStatusRefunded, h.order(t, o.ID).Status)
}

func TestResolveDisputeRelease(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusDisputed, model.DeliveryMethodDelivery)

	released, err := h.uc.ResolveDispute(ctx, admin, o.ID, model.PayoutRelease)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaidOut, released.Status)
	assert.Equal(t, "254722000000", h.disburser.calls[0].Phone)
	assert.Equal(t, []model.Event{model.EventRelease}, h.events.names())
}

func TestOpenDisputeRefusedWhilePayoutPending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	o := h.seed(model.OrderStatusDelivered, model.DeliveryMethodDelivery)
	h.disburser.err = fmt.Errorf("%w: timeout", domainErrors.ErrPaymentOutcomeUnknown)
	_, err := h.uc.ConfirmDelivery(ctx, buyer, o.ID)
	require.ErrorIs(t, err, domainErrors.ErrPayoutPending)

	_, err = h.uc.OpenDispute(ctx, buyer, o.ID, "late")
	require.ErrorIs(t, err, domainErrors.ErrPayoutPending)
	assert.Equal(t, model.OrderStatusDelivered, h.order(t, o.ID).Status)
}

func TestGetAndList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	mine := h.seed(model.OrderStatusPending, model.DeliveryMethodDelivery)
	h.orders.put(model.Order{BuyerID: 5, SellerID: 2, ProductID: 10, Quantity: 1, Status: model.OrderStatusPending})

	_, err := h.uc.Get(ctx, rider, mine.ID)
	require.ErrorIs(t, err, domainErrors.ErrPermissionDenied)

	got, err := h.uc.Get(ctx, admin, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = h.uc.Get(ctx, buyer, 404)
	require.ErrorIs(t, err, domainErrors.ErrNotFound)

	list, err := h.uc.ListForActor(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = h.uc.ListForActor(ctx, farmer)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = h.uc.ListForActor(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestVerificationCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := verificationCode()
		require.NoError(t, err)
		assert.Regexp(t, `^\d{6}$`, code)
	}
}
