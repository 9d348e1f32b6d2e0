package pin

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medrec/gateway/internal/platform/identity"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type pinRequest struct {
	PIN string `json:"pin"`
}

// RegisterRoutes wires the app-lock endpoints. They require authentication
// but not an approved profile: the lock screen shows before any KYC gate.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/pin", h.Exists)
	api.PUT("/pin", h.Set)
	api.POST("/pin/verify", h.Verify)
	api.DELETE("/pin", h.Clear)
}

func (h *Handler) Exists(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)
	if principal == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	exists, err := h.svc.Exists(ctx, principal)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "pin lookup failed")
	}
	return c.JSON(http.StatusOK, map[string]bool{"configured": exists})
}

func (h *Handler) Set(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)
	if principal == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req pinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Set(ctx, principal, req.PIN); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)
	if principal == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req pinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	switch err := h.svc.Verify(ctx, principal, req.PIN); {
	case err == nil:
		return c.JSON(http.StatusOK, map[string]bool{"verified": true})
	case errors.Is(err, ErrNotSet):
		return echo.NewHTTPError(http.StatusNotFound, "no pin configured")
	case errors.Is(err, ErrMismatch):
		return echo.NewHTTPError(http.StatusForbidden, "pin mismatch")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "pin verification failed")
	}
}

func (h *Handler) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)
	if principal == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	if err := h.svc.Clear(ctx, principal); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "pin clear failed")
	}
	return c.NoContent(http.StatusNoContent)
}
