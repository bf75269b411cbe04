package usecase

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/agristar/internal/domain/errors"
	"github.com/polkiloo/agristar/internal/domain/model"
)

// memOrders mirrors the conditional updates of the Postgres repository.
type memOrders struct {
	mu       sync.Mutex
	nextID   int64
	orders   map[int64]*model.Order
	attempts map[string]int64
	riders   *memRiders
}

func newMemOrders(riders *memRiders) *memOrders {
	return &memOrders{orders: map[int64]*model.Order{}, attempts: map[string]int64{}, riders: riders}
}

func (m *memOrders) put(o model.Order) *model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == 0 {
		m.nextID++
		o.ID = m.nextID
	} else if o.ID > m.nextID {
		m.nextID = o.ID
	}
	if o.CheckoutRequestID != nil {
		m.attempts[*o.CheckoutRequestID] = o.ID
	}
	m.orders[o.ID] = &o
	return m.copy(&o)
}

func (m *memOrders) copy(o *model.Order) *model.Order {
	c := *o
	return &c
}

func (m *memOrders) Create(_ context.Context, o model.Order) (*model.Order, error) {
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	return m.put(o), nil
}

func (m *memOrders) GetByID(_ context.Context, id int64) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return m.copy(o), nil
}

func (m *memOrders) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*model.Order, error) {
	m.mu.Lock()
	id, ok := m.attempts[checkoutRequestID]
	m.mu.Unlock()
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *memOrders) find(match func(*model.Order) bool) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if match(o) {
			return m.copy(o), nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (m *memOrders) GetByPayoutReference(_ context.Context, reference string) (*model.Order, error) {
	return m.find(func(o *model.Order) bool { return o.PayoutReference != nil && *o.PayoutReference == reference })
}

func (m *memOrders) GetByPayoutConversationID(_ context.Context, conversationID string) (*model.Order, error) {
	return m.find(func(o *model.Order) bool {
		return o.PayoutConversationID != nil && *o.PayoutConversationID == conversationID
	})
}

func (m *memOrders) list(match func(*model.Order) bool) []model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.orders {
		if match(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memOrders) ListByParticipant(_ context.Context, userID int64) ([]model.Order, error) {
	return m.list(func(o *model.Order) bool { return o.IsParticipant(userID) }), nil
}

func (m *memOrders) ListAll(context.Context) ([]model.Order, error) {
	return m.list(func(*model.Order) bool { return true }), nil
}

// update applies fn when the order is in one of from and guard holds.
func (m *memOrders) update(id int64, from []model.OrderStatus, guard func(*model.Order) bool, fn func(*model.Order)) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || (from != nil && !slices.Contains(from, o.Status)) || (guard != nil && !guard(o)) {
		return nil, domainErrors.ErrInvalidTransition
	}
	fn(o)
	o.UpdatedAt = time.Now()
	return m.copy(o), nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id int64, from []model.OrderStatus, to model.OrderStatus) (*model.Order, error) {
	return m.update(id, from, nil, func(o *model.Order) { o.Status = to })
}

func (m *memOrders) CancelUnpaid(_ context.Context, id int64, from []model.OrderStatus) (*model.Order, error) {
	return m.update(id, from, func(o *model.Order) bool { return o.CheckoutRequestID == nil },
		func(o *model.Order) { o.Status = model.OrderStatusCancelled })
}

func (m *memOrders) RecordPaymentAttempt(_ context.Context, id int64, checkoutRequestID string) (*model.Order, error) {
	m.mu.Lock()
	if _, dup := m.attempts[checkoutRequestID]; dup {
		m.mu.Unlock()
		return nil, domainErrors.ErrAlreadyExists
	}
	m.attempts[checkoutRequestID] = id
	m.mu.Unlock()
	return m.update(id, []model.OrderStatus{model.OrderStatusAccepted}, nil, func(o *model.Order) {
		o.CheckoutRequestID = &checkoutRequestID
	})
}

func (m *memOrders) MarkFunded(_ context.Context, id int64, from []model.OrderStatus, checkoutRequestID, receipt string) (*model.Order, error) {
	return m.update(id, from, func(o *model.Order) bool { return o.FundedAt == nil }, func(o *model.Order) {
		now := time.Now()
		o.Status = model.OrderStatusEscrow
		o.FundedAt = &now
		o.CheckoutRequestID = &checkoutRequestID
		if receipt != "" {
			o.MpesaReceiptNumber = &receipt
		}
	})
}

func (m *memOrders) AssignRider(_ context.Context, id, riderID int64) (*model.Order, error) {
	return m.update(id, []model.OrderStatus{model.OrderStatusEscrow}, func(o *model.Order) bool {
		return o.DeliveryMethod == model.DeliveryMethodDelivery && o.AssignedRiderID == nil
	}, func(o *model.Order) { o.AssignedRiderID = &riderID })
}

func assignedTo(riderID int64) func(*model.Order) bool {
	return func(o *model.Order) bool { return o.AssignedRiderID != nil && *o.AssignedRiderID == riderID }
}

func (m *memOrders) UpdateRiderStatus(_ context.Context, id, riderID int64, from []model.OrderStatus, to model.OrderStatus) (*model.Order, error) {
	return m.update(id, from, assignedTo(riderID), func(o *model.Order) { o.Status = to })
}

func (m *memOrders) CompleteDelivery(_ context.Context, id, riderID int64, from []model.OrderStatus) (*model.Order, error) {
	o, err := m.update(id, from, assignedTo(riderID), func(o *model.Order) { o.Status = model.OrderStatusDelivered })
	if err == nil && m.riders != nil {
		m.riders.credit(riderID)
	}
	return o, err
}

func (m *memOrders) MarkReadyForPickup(_ context.Context, id int64) (*model.Order, error) {
	return m.update(id, []model.OrderStatus{model.OrderStatusEscrow},
		func(o *model.Order) bool { return o.DeliveryMethod == model.DeliveryMethodPickup },
		func(o *model.Order) { o.ReadyForPickup = true })
}

func (m *memOrders) OpenDispute(_ context.Context, id int64, from []model.OrderStatus, reason string) (*model.Order, error) {
	return m.update(id, from, func(o *model.Order) bool { return o.PayoutReference == nil }, func(o *model.Order) {
		o.Status = model.OrderStatusDisputed
		if reason != "" {
			o.DisputeReason = &reason
		}
	})
}

func (m *memOrders) UpdateQuantity(_ context.Context, id int64, from []model.OrderStatus, quantity int64, total decimal.Decimal) (*model.Order, error) {
	return m.update(id, from, func(o *model.Order) bool { return o.CheckoutRequestID == nil && o.FundedAt == nil },
		func(o *model.Order) {
			o.Quantity = quantity
			o.TotalPrice = total
		})
}

func (m *memOrders) ClaimPayout(_ context.Context, id int64, from []model.OrderStatus, reference string, kind model.PayoutKind) (*model.Order, error) {
	return m.update(id, from, func(o *model.Order) bool { return o.FundedAt != nil && o.PayoutReference == nil },
		func(o *model.Order) {
			o.PayoutReference = &reference
			o.PayoutKind = &kind
			o.PayoutConversationID = nil
			o.PayoutResultCode = nil
		})
}

func (m *memOrders) CompletePayout(_ context.Context, id int64, reference string, from []model.OrderStatus, to model.OrderStatus, conversationID string) (*model.Order, error) {
	return m.update(id, from, func(o *model.Order) bool { return o.PayoutReference != nil && *o.PayoutReference == reference },
		func(o *model.Order) {
			o.Status = to
			if conversationID != "" {
				o.PayoutConversationID = &conversationID
			}
		})
}

func (m *memOrders) ReleasePayout(_ context.Context, id int64, reference string) error {
	_, err := m.update(id, nil, func(o *model.Order) bool {
		return o.PayoutReference != nil && *o.PayoutReference == reference && o.PayoutConversationID == nil
	}, func(o *model.Order) {
		o.PayoutReference = nil
		o.PayoutKind = nil
	})
	return err
}

func (m *memOrders) RecordPayoutResult(_ context.Context, id int64, resultCode int) error {
	_, err := m.update(id, nil, nil, func(o *model.Order) { o.PayoutResultCode = &resultCode })
	if err != nil {
		return domainErrors.ErrNotFound
	}
	return nil
}

type memRiders struct {
	mu       sync.Mutex
	profiles map[int64]*model.RiderProfile
}

func newMemRiders(profiles ...model.RiderProfile) *memRiders {
	r := &memRiders{profiles: map[int64]*model.RiderProfile{}}
	for i := range profiles {
		p := profiles[i]
		r.profiles[p.UserID] = &p
	}
	return r
}

func (r *memRiders) credit(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[id]; ok {
		p.CompletedDeliveries++
		p.TotalDeliveries++
	}
}

func (r *memRiders) mutate(id int64, fn func(*model.RiderProfile)) (*model.RiderProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	fn(p)
	c := *p
	return &c, nil
}

func (r *memRiders) GetProfile(_ context.Context, id int64) (*model.RiderProfile, error) {
	return r.mutate(id, func(*model.RiderProfile) {})
}

func (r *memRiders) ListDispatchable(context.Context) ([]model.RiderProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.RiderProfile
	for _, p := range r.profiles {
		if p.Dispatchable() && p.Latitude != nil && p.Longitude != nil {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *memRiders) SetAvailability(_ context.Context, id int64, available bool) (*model.RiderProfile, error) {
	return r.mutate(id, func(p *model.RiderProfile) { p.IsAvailable = available })
}

func (r *memRiders) UpdateLocation(_ context.Context, id int64, lat, lon float64) (*model.RiderProfile, error) {
	return r.mutate(id, func(p *model.RiderProfile) {
		p.Latitude = &lat
		p.Longitude = &lon
	})
}

func (r *memRiders) SetVerification(_ context.Context, id int64, status model.VerificationStatus) (*model.RiderProfile, error) {
	return r.mutate(id, func(p *model.RiderProfile) { p.Verification = status })
}

type memUsers struct {
	mu    sync.Mutex
	users map[int64]model.User
}

func newMemUsers(users ...model.User) *memUsers {
	m := &memUsers{users: map[int64]model.User{}}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u model.User) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	u.ID = int64(len(m.users) + 1)
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return &u, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, domainErrors.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &u, nil
}

type memProducts struct {
	mu       sync.Mutex
	products map[int64]model.Product
}

func newMemProducts(products ...model.Product) *memProducts {
	m := &memProducts{products: map[int64]model.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *memProducts) Create(_ context.Context, p model.Product) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = int64(len(m.products) + 1)
	m.products[p.ID] = p
	return &p, nil
}

func (m *memProducts) GetByID(_ context.Context, id int64) (*model.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &p, nil
}

type memNotifications struct {
	mu    sync.Mutex
	items []model.Notification
	err   error
}

func (m *memNotifications) Create(_ context.Context, n model.Notification) (*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	n.ID = int64(len(m.items) + 1)
	m.items = append(m.items, n)
	return &n, nil
}

func (m *memNotifications) ListByUser(_ context.Context, userID int64) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Notification
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memNotifications) MarkRead(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items[i].IsRead = true
			return nil
		}
	}
	return domainErrors.ErrNotFound
}

func (m *memNotifications) MarkAllRead(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.items {
		if m.items[i].UserID == userID && !m.items[i].IsRead {
			m.items[i].IsRead = true
			n++
		}
	}
	return n, nil
}

type fakeCollector struct {
	mu     sync.Mutex
	calls  []model.Collection
	next   int
	err    error
	onCall func()
}

func (f *fakeCollector) InitiateCollection(_ context.Context, req model.Collection) (*model.CollectionReceipt, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		f.mu.Unlock()
		return nil, f.err
	}
	f.next++
	id := fmt.Sprintf("ws_CO_%d", f.next)
	hook := f.onCall
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return &model.CollectionReceipt{CheckoutRequestID: id}, nil
}

type fakeDisburser struct {
	mu    sync.Mutex
	calls []model.Disbursement
	err   error
}

func (f *fakeDisburser) InitiateDisbursement(ctx context.Context, req model.Disbursement) (*model.DisbursementReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &model.DisbursementReceipt{ConversationID: "AG_" + req.Reference, OriginatorConversationID: req.Reference}, nil
}

func (f *fakeDisburser) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.TransitionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev model.TransitionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) names() []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Event, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Event
	}
	return out
}

func (p *recordingPublisher) count(event model.Event) int {
	n := 0
	for _, e := range p.names() {
		if e == event {
			n++
		}
	}
	return n
}
