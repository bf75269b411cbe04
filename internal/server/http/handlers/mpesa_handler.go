package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/server/http/dto"
	"github.com/polkiloo/agristar/internal/usecase"
)

const (
	callbackSTK        = "stk"
	callbackB2CResult  = "b2c_result"
	callbackB2CTimeout = "b2c_timeout"

	outcomeMalformed = "malformed"
	outcomeError     = "error"
)

// CallbackObserver counts handled gateway callbacks.
type CallbackObserver interface {
	ObserveCallback(kind, outcome string)
}

// MpesaHandler receives gateway callbacks. The gateway retries anything
// other than a 200, so every callback is acknowledged and problems are
// only logged.
type MpesaHandler struct {
	facade   PaymentCallbackFacade
	observer CallbackObserver
	validate *validator.Validate
	logger   *slog.Logger
}

func NewMpesaHandler(facade PaymentCallbackFacade, observer CallbackObserver, logger *slog.Logger) *MpesaHandler {
	return &MpesaHandler{
		facade:   facade,
		observer: observer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// STKCallback handles POST /api/mpesa/callback.
func (h *MpesaHandler) STKCallback(c *gin.Context) {
	var req dto.STKCallbackRequest
	if !h.decode(c, callbackSTK, &req) {
		return
	}
	cb := req.Body.STKCallback
	outcome, err := h.facade.ApplyPaymentResult(c.Request.Context(), model.PaymentResult{
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        *cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
		ReceiptNumber:     cb.CallbackMetadata.Lookup("MpesaReceiptNumber"),
	})
	h.finish(c, callbackSTK, outcome, err, slog.String("checkout_request_id", cb.CheckoutRequestID))
}

// B2CResult handles POST /api/mpesa/b2c/result.
func (h *MpesaHandler) B2CResult(c *gin.Context) {
	var req dto.B2CResultRequest
	if !h.decode(c, callbackB2CResult, &req) {
		return
	}
	outcome, err := h.facade.ApplyPayoutResult(c.Request.Context(), toPayoutResult(req.Result))
	h.finish(c, callbackB2CResult, outcome, err, slog.String("originator_conversation_id", req.Result.OriginatorConversationID))
}

// B2CTimeout handles POST /api/mpesa/b2c/timeout.
func (h *MpesaHandler) B2CTimeout(c *gin.Context) {
	var req dto.B2CResultRequest
	if !h.decode(c, callbackB2CTimeout, &req) {
		return
	}
	outcome, err := h.facade.ApplyPayoutTimeout(c.Request.Context(), toPayoutResult(req.Result))
	h.finish(c, callbackB2CTimeout, outcome, err, slog.String("originator_conversation_id", req.Result.OriginatorConversationID))
}

func (h *MpesaHandler) decode(c *gin.Context, kind string, out any) bool {
	err := c.ShouldBindJSON(out)
	if err == nil {
		err = h.validate.Struct(out)
	}
	if err != nil {
		h.logger.Warn("malformed gateway callback", slog.String("kind", kind), slog.String("error", err.Error()))
		h.observe(kind, outcomeMalformed)
		ack(c)
		return false
	}
	return true
}

func (h *MpesaHandler) finish(c *gin.Context, kind string, outcome usecase.CallbackOutcome, err error, attr slog.Attr) {
	if err != nil {
		h.logger.Error("gateway callback not applied", slog.String("kind", kind), attr, slog.String("error", err.Error()))
		h.observe(kind, outcomeError)
	} else {
		h.observe(kind, string(outcome))
	}
	ack(c)
}

func (h *MpesaHandler) observe(kind, outcome string) {
	if h.observer != nil {
		h.observer.ObserveCallback(kind, outcome)
	}
}

func ack(c *gin.Context) {
	c.JSON(http.StatusOK, dto.Ack{Status: "ok"})
}

func toPayoutResult(r dto.B2CResult) model.PayoutResult {
	return model.PayoutResult{
		OriginatorConversationID: r.OriginatorConversationID,
		ConversationID:           r.ConversationID,
		ResultCode:               int(r.ResultCode),
		ResultDesc:               r.ResultDesc,
		TransactionID:            r.TransactionID,
	}
}
