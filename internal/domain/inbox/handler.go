package inbox

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/auth"
	"github.com/homecare/homecare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/notification", auth.Required())
	g.GET("", h.ListNotifications)
	g.GET("/unread", h.ListUnread)
	g.GET("/unread-count", h.UnreadCount)
	g.PUT("/mark-all-read", h.MarkAllRead)
	g.PUT("/:id/mark-read", h.MarkRead)
	g.DELETE("/:id", h.DeleteNotification)
}

func pathID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

func (h *Handler) ListNotifications(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()
	items, total, err := h.svc.List(ctx, auth.PrincipalFromContext(ctx), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	pagination.SetTotal(c, total)
	return c.JSON(http.StatusOK, toDTOs(items))
}

func (h *Handler) ListUnread(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.ListUnread(ctx, auth.PrincipalFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDTOs(items))
}

// UnreadCount responds with a bare number for the bell badge.
func (h *Handler) UnreadCount(c echo.Context) error {
	ctx := c.Request().Context()
	n, err := h.svc.UnreadCount(ctx, auth.PrincipalFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) MarkRead(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.MarkRead(ctx, auth.PrincipalFromContext(ctx), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) MarkAllRead(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := h.svc.MarkAllRead(ctx, auth.PrincipalFromContext(ctx)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteNotification(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.Delete(ctx, auth.PrincipalFromContext(ctx), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
