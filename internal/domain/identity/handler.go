package identity

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

// RegisterRoutes mounts /patient and /employee. api must already resolve the
// caller via auth.Optional.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	patients := api.Group("/patient", auth.Required())
	patients.GET("", h.ListPatients, auth.RequireRole(auth.RoleEmployee))
	patients.GET("/:id", h.GetPatient)
	patients.GET("/user/:userId", h.GetPatientByUserID)
	patients.PUT("/:id", h.UpdatePatient)

	employees := api.Group("/employee", auth.Required())
	employees.GET("", h.ListEmployees)
	employees.GET("/:id", h.GetEmployee)
	employees.GET("/user/:userId", h.GetEmployeeByUserID)
	employees.PUT("/:id", h.UpdateEmployee)
}

func pathID(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, apperr.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

// -- Patient Handlers --

func (h *Handler) ListPatients(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.ListPatients(ctx, auth.PrincipalFromContext(ctx))
	if err != nil {
		return err
	}
	out := make([]PatientDTO, 0, len(items))
	for _, p := range items {
		out = append(out, PatientDTOFromEntity(p))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := h.svc.GetPatient(ctx, auth.PrincipalFromContext(ctx), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, PatientDTOFromEntity(p))
}

func (h *Handler) GetPatientByUserID(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := h.svc.GetPatientByUserID(ctx, auth.PrincipalFromContext(ctx), c.Param("userId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, PatientDTOFromEntity(p))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var dto PatientDTO
	if err := validate.Bind(c, &dto); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := h.svc.UpdatePatient(ctx, auth.PrincipalFromContext(ctx), id, dto); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Employee Handlers --

func (h *Handler) ListEmployees(c echo.Context) error {
	items, err := h.svc.ListEmployees(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]EmployeeDTO, 0, len(items))
	for _, e := range items {
		out = append(out, EmployeeDTOFromEntity(e))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetEmployee(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	e, err := h.svc.GetEmployee(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, EmployeeDTOFromEntity(e))
}

func (h *Handler) GetEmployeeByUserID(c echo.Context) error {
	e, err := h.svc.GetEmployeeByUserID(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, EmployeeDTOFromEntity(e))
}

func (h *Handler) UpdateEmployee(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var dto EmployeeDTO
	if err := validate.Bind(c, &dto); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := h.svc.UpdateEmployee(ctx, auth.PrincipalFromContext(ctx), id, dto); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
