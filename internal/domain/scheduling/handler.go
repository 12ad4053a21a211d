package scheduling

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/homecare/homecare/internal/platform/apperr"
	"github.com/homecare/homecare/internal/platform/auth"
	"github.com/homecare/homecare/internal/platform/validate"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts /appointment. Listing and single reads are open to
// anonymous callers; everything else requires a token.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/appointment")
	g.GET("", h.ListAppointments)
	g.GET("/:id", h.GetAppointment)

	authed := g.Group("", auth.Required())
	authed.GET("/patient/:patientId", h.ListByPatient)
	authed.GET("/employee/:employeeId", h.ListByEmployee)
	authed.POST("", h.CreateAppointment)
	authed.PUT("/:id", h.UpdateAppointment)
	authed.PUT("/:id/confirm", h.ConfirmAppointment, auth.RequireRole(auth.RoleEmployee))
	authed.DELETE("/:id", h.DeleteAppointment)
}

func pathID(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, apperr.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

func (h *Handler) ListAppointments(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDTOs(items))
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AppointmentDTOFromEntity(a))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	id, err := pathID(c, "patientId")
	if err != nil {
		return err
	}
	items, err := h.svc.ListByPatient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDTOs(items))
}

func (h *Handler) ListByEmployee(c echo.Context) error {
	id, err := pathID(c, "employeeId")
	if err != nil {
		return err
	}
	items, err := h.svc.ListByEmployee(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDTOs(items))
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var dto AppointmentDTO
	if err := validate.Bind(c, &dto); err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.Create(ctx, auth.PrincipalFromContext(ctx), dto)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, "/api/appointment/"+strconv.Itoa(a.ID))
	return c.JSON(http.StatusCreated, AppointmentDTOFromEntity(a))
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var dto AppointmentDTO
	if err := validate.Bind(c, &dto); err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.Update(ctx, auth.PrincipalFromContext(ctx), id, dto)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AppointmentDTOFromEntity(a))
}

func (h *Handler) ConfirmAppointment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	a, err := h.svc.Confirm(ctx, auth.PrincipalFromContext(ctx), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AppointmentDTOFromEntity(a))
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.svc.Delete(ctx, auth.PrincipalFromContext(ctx), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
