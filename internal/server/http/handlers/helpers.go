package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/agristar/internal/domain/errors"
	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/server/http/dto"
	"github.com/polkiloo/agristar/internal/server/http/middleware"
)

var errInvalidID = errors.New("invalid id")

// CurrentActor extracts the authenticated actor from context.
func CurrentActor(c *gin.Context) model.Actor {
	return middleware.CurrentActor(c)
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, dto.Envelope{Success: true, Data: data})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, dto.Envelope{Error: err.Error()})
}

// fail writes err with the status its domain error maps to.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, dto.Envelope{Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrPermissionDenied),
		errors.Is(err, domainErrors.ErrRiderUnavailable):
		return http.StatusForbidden
	case errors.Is(err, domainErrors.ErrPayoutPending),
		errors.Is(err, domainErrors.ErrInvalidTransition),
		errors.Is(err, domainErrors.ErrRiderAlreadyAssigned),
		errors.Is(err, domainErrors.ErrProductUnavailable),
		errors.Is(err, domainErrors.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domainErrors.ErrPaymentUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, domainErrors.ErrPhoneRequired),
		errors.Is(err, domainErrors.ErrInvalidPhone),
		errors.Is(err, domainErrors.ErrInvalidQuantity),
		errors.Is(err, domainErrors.ErrInvalidCoordinates),
		errors.Is(err, domainErrors.ErrInvalidDelivery),
		errors.Is(err, domainErrors.ErrInvalidAmount),
		errors.Is(err, domainErrors.ErrInvalidProduct):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainErrors.ErrInvalidCredentials),
		errors.Is(err, domainErrors.ErrInvalidRole):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
