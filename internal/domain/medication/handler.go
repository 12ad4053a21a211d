package medication

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/medication", auth.Required())
	g.GET("", h.ListMedications)
	g.GET("/my", h.ListMyMedications)
	g.GET("/patient/:patientId", h.ListByPatient)
	g.GET("/:id", h.GetMedication)
	g.POST("", h.CreateMedication)
	g.PUT("/:id", h.UpdateMedication)
	g.DELETE("/:id", h.DeleteMedication)
}

func pathID(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, apperr.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

func (h *Handler) ListMedications(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.List(ctx, auth.PrincipalFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDTOs(items))
}

func (h *Handler) ListMyMedications(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.ListMine(ctx, auth.PrincipalFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDTOs(items))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := pathID(c, "patientId")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	items, err := h.svc.ListByPatient(ctx, auth.PrincipalFromContext(ctx), patientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDTOs(items))
}

func (h *Handler) GetMedication(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	m, err := h.svc.Get(ctx, auth.PrincipalFromContext(ctx), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MedicationDTOFromEntity(m))
}

func (h *Handler) CreateMedication(c echo.Context) error {
	var dto MedicationDTO
	if err := validate.Bind(c, &dto); err != nil {
		return err
	}
	ctx := c.Request().Context()
	m, err := h.svc.Create(ctx, auth.PrincipalFromContext(ctx), dto)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, "/api/medication/"+strconv.Itoa(m.ID))
	return c.JSON(http.StatusCreated, MedicationDTOFromEntity(m))
}

func (h *Handler) UpdateMedication(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var dto MedicationDTO
	if err := validate.Bind(c, &dto); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := h.svc.Update(ctx, auth.PrincipalFromContext(ctx), id, dto); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteMedication(c echo.Context) error {
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
