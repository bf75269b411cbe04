package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/geo"
	"github.com/polkiloo/agristar/internal/server/http/dto"
)

// RiderHandler serves rider dispatch endpoints.
type RiderHandler struct {
	facade RiderFacade
}

func NewRiderHandler(facade RiderFacade) *RiderHandler {
	return &RiderHandler{facade: facade}
}

// Nearby handles GET /api/riders/nearby.
func (h *RiderHandler) Nearby(c *gin.Context) {
	var q dto.NearbyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	riders, err := h.facade.NearbyRiders(c.Request.Context(), CurrentActor(c), *q.Latitude, *q.Longitude, q.RadiusKm)
	if err != nil {
		fail(c, err)
		return
	}
	response := make([]dto.NearbyRiderResponse, 0, len(riders))
	for _, r := range riders {
		response = append(response, dto.NearbyRiderResponse{
			Rider:      toRiderResponse(&r.Rider),
			DistanceKm: geo.Round2(r.DistanceKm),
		})
	}
	respond(c, http.StatusOK, response)
}

// Availability handles POST /api/rider/availability.
func (h *RiderHandler) Availability(c *gin.Context) {
	var req dto.AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	profile, err := h.facade.SetRiderAvailability(c.Request.Context(), CurrentActor(c), *req.IsAvailable)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toRiderResponse(profile))
}

// Location handles POST /api/rider/location.
func (h *RiderHandler) Location(c *gin.Context) {
	var req dto.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	profile, err := h.facade.UpdateRiderLocation(c.Request.Context(), CurrentActor(c), *req.Latitude, *req.Longitude)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toRiderResponse(profile))
}

// Verify handles POST /api/admin/riders/:id/verify.
func (h *RiderHandler) Verify(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	var req dto.VerifyRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	profile, err := h.facade.VerifyRider(c.Request.Context(), CurrentActor(c), id, model.VerificationStatus(req.Status))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, toRiderResponse(profile))
}

func toRiderResponse(p *model.RiderProfile) dto.RiderProfileResponse {
	return dto.RiderProfileResponse{
		UserID:              p.UserID,
		Username:            p.Username,
		IsAvailable:         p.IsAvailable,
		Verification:        string(p.Verification),
		Latitude:            p.Latitude,
		Longitude:           p.Longitude,
		VehicleType:         string(p.VehicleType),
		CompletedDeliveries: p.CompletedDeliveries,
		TotalDeliveries:     p.TotalDeliveries,
		UpdatedAt:           p.UpdatedAt,
	}
}
