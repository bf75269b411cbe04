package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/agristar/internal/server/http/dto"
)

type NotificationHandler struct {
	facade NotificationFacade
}

func NewNotificationHandler(facade NotificationFacade) *NotificationHandler {
	return &NotificationHandler{facade: facade}
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	items, err := h.facade.Notifications(c.Request.Context(), CurrentActor(c))
	if err != nil {
		fail(c, err)
		return
	}
	response := make([]dto.NotificationResponse, 0, len(items))
	for _, n := range items {
		response = append(response, dto.NotificationResponse{
			ID:        n.ID,
			Type:      string(n.Type),
			OrderID:   n.OrderID,
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	respond(c, http.StatusOK, response)
}

// MarkRead handles POST /api/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	if err := h.facade.MarkNotificationRead(c.Request.Context(), CurrentActor(c), id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

// MarkAllRead handles POST /api/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.facade.MarkAllNotificationsRead(c.Request.Context(), CurrentActor(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, dto.MarkAllReadResponse{Updated: n})
}
