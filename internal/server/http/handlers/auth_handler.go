package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/agristar/internal/domain/errors"
	"github.com/polkiloo/agristar/internal/domain/model"
	"github.com/polkiloo/agristar/internal/server/http/dto"
	"github.com/polkiloo/agristar/internal/server/http/middleware"
	"github.com/polkiloo/agristar/internal/usecase"
)

// AuthHandler processes registration and login.
type AuthHandler struct {
	facade AuthFacade
}

// NewAuthHandler creates AuthHandler instance.
func NewAuthHandler(facade AuthFacade) *AuthHandler {
	return &AuthHandler{facade: facade}
}

// Register handles POST /api/user/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	usr, token, err := h.facade.Register(c.Request.Context(), usecase.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     model.Role(req.Role),
		Phone:    req.Phone,
	})
	if err != nil {
		fail(c, err)
		return
	}

	middleware.SetAuthCookie(c, token)
	respond(c, http.StatusCreated, dto.AuthResponse{Token: token, User: toUserResponse(usr)})
}

// Login handles POST /api/user/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	usr, token, err := h.facade.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domainErrors.ErrInvalidCredentials) {
			_ = c.Error(err)
			c.JSON(http.StatusUnauthorized, dto.Envelope{Error: err.Error()})
			return
		}
		fail(c, err)
		return
	}

	middleware.SetAuthCookie(c, token)
	respond(c, http.StatusOK, dto.AuthResponse{Token: token, User: toUserResponse(usr)})
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}
