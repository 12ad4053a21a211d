package account

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homecare/homecare/internal/platform/auth"
	"github.com/homecare/homecare/internal/platform/middleware"
	"github.com/homecare/homecare/internal/platform/validate"
)

type Handler struct {
	svc    *Service
	limits middleware.RateLimitConfig
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, limits: middleware.LoginRateLimitConfig()}
}

// RegisterRoutes mounts /auth. Register and login are public and rate
// limited per client IP.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/auth")
	limited := middleware.RateLimit(h.limits)
	g.POST("/register", h.Register, limited)
	g.POST("/login", h.Login, limited)
	g.POST("/logout", h.Logout, auth.Required())
}

func (h *Handler) Register(c echo.Context) error {
	var dto RegisterDTO
	if err := validate.Bind(c, &dto); err != nil {
		return err
	}
	if _, err := h.svc.Register(c.Request().Context(), dto); err != nil {
		var rerr *RegistrationError
		if errors.As(err, &rerr) {
			return c.JSON(http.StatusBadRequest, rerr.Errors)
		}
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "User registered successfully"})
}

func (h *Handler) Login(c echo.Context) error {
	var dto LoginDTO
	if err := validate.Bind(c, &dto); err != nil {
		return err
	}
	token, err := h.svc.Login(c.Request().Context(), dto)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// Logout has no server-side effect; the client discards its token.
func (h *Handler) Logout(c echo.Context) error {
	return c.JSON(http.StatusOK, MessageResponse{Message: "Logout successful"})
}
