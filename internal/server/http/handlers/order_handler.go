package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/server/http/dto"
	"github.com/polkiloo/agristar/internal/usecase"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Place handles POST /api/orders.
func (h *OrderHandler) Place(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	actor := CurrentActor(c)
	order, err := h.facade.PlaceOrder(c.Request.Context(), actor, usecase.PlaceOrderInput{
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		DeliveryMethod: model.DeliveryMethod(req.DeliveryMethod),
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, toOrderResponse(*order, actor))
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	actor := CurrentActor(c)
	orders, err := h.facade.Orders(c.Request.Context(), actor)
	if err != nil {
		fail(c, err)
		return
	}
	response := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o, actor))
	}
	respond(c, http.StatusOK, response)
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	h.act(c, h.facade.Order)
}

// Accept handles POST /api/orders/:id/accept.
func (h *OrderHandler) Accept(c *gin.Context) {
	h.act(c, h.facade.AcceptOrder)
}

// Reject handles POST /api/orders/:id/reject.
func (h *OrderHandler) Reject(c *gin.Context) {
	h.act(c, h.facade.RejectOrder)
}

// Ready handles POST /api/orders/:id/ready.
func (h *OrderHandler) Ready(c *gin.Context) {
	h.act(c, h.facade.MarkReadyForPickup)
}

// Confirm handles POST /api/orders/:id/confirm.
func (h *OrderHandler) Confirm(c *gin.Context) {
	h.act(c, h.facade.ConfirmDelivery)
}

// Cancel handles POST /api/orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	h.act(c, h.facade.CancelOrder)
}

// Pay handles POST /api/orders/:id/pay. The body is optional.
func (h *OrderHandler) Pay(c *gin.Context) {
	var req dto.PayRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	h.act(c, func(ctx context.Context, actor model.Actor, id int64) (*model.Order, error) {
		return h.facade.PayOrder(ctx, actor, id, req.PhoneNumber)
	})
}

// Assign handles POST /api/orders/:id/assign.
func (h *OrderHandler) Assign(c *gin.Context) {
	var req dto.AssignRiderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	h.act(c, func(ctx context.Context, actor model.Actor, id int64) (*model.Order, error) {
		return h.facade.AssignRider(ctx, actor, id, req.RiderID)
	})
}

// Progress handles POST /api/orders/:id/progress.
func (h *OrderHandler) Progress(c *gin.Context) {
	var req dto.ProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.act(c, func(ctx context.Context, actor model.Actor, id int64) (*model.Order, error) {
		return h.facade.ReportProgress(ctx, actor, id, model.OrderStatus(req.Status))
	})
}

// Dispute handles POST /api/orders/:id/dispute.
func (h *OrderHandler) Dispute(c *gin.Context) {
	var req dto.DisputeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	h.act(c, func(ctx context.Context, actor model.Actor, id int64) (*model.Order, error) {
		return h.facade.OpenDispute(ctx, actor, id, req.Reason)
	})
}

// Quantity handles PATCH /api/orders/:id/quantity.
func (h *OrderHandler) Quantity(c *gin.Context) {
	var req dto.QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.act(c, func(ctx context.Context, actor model.Actor, id int64) (*model.Order, error) {
		return h.facade.ChangeQuantity(ctx, actor, id, req.Quantity)
	})
}

// Resolve handles POST /api/admin/orders/:id/resolve.
func (h *OrderHandler) Resolve(c *gin.Context) {
	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.act(c, func(ctx context.Context, actor model.Actor, id int64) (*model.Order, error) {
		return h.facade.ResolveDispute(ctx, actor, id, model.PayoutKind(req.Outcome))
	})
}

// ReleasePayout handles POST /api/admin/orders/:id/payout/release.
func (h *OrderHandler) ReleasePayout(c *gin.Context) {
	h.act(c, h.facade.ReleasePayoutClaim)
}

type orderAction func(ctx context.Context, actor model.Actor, orderID int64) (*model.Order, error)

func (h *OrderHandler) act(c *gin.Context, action orderAction) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	actor := CurrentActor(c)
	order, err := action(c.Request.Context(), actor, id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toOrderResponse(*order, actor))
}

func toOrderResponse(o model.Order, viewer model.Actor) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:                 o.ID,
		BuyerID:            o.BuyerID,
		SellerID:           o.SellerID,
		ProductID:          o.ProductID,
		AssignedRiderID:    o.AssignedRiderID,
		Quantity:           o.Quantity,
		UnitPrice:          o.UnitPrice.StringFixed(2),
		TotalPrice:         o.TotalPrice.StringFixed(2),
		Status:             string(o.Status),
		DeliveryMethod:     string(o.DeliveryMethod),
		ReadyForPickup:     o.ReadyForPickup,
		CheckoutRequestID:  o.CheckoutRequestID,
		MpesaReceiptNumber: o.MpesaReceiptNumber,
		FundedAt:           o.FundedAt,
		PayoutPending:      o.PayoutClaimed() && o.PayoutConversationID == nil,
		DisputeReason:      o.DisputeReason,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	if o.PayoutKind != nil {
		kind := string(*o.PayoutKind)
		resp.PayoutKind = &kind
	}
	if viewer != nil && viewer.UserID() == o.BuyerID {
		resp.PickupCode = o.PickupCode
		resp.DeliveryCode = o.DeliveryCode
	}
	return resp
}
