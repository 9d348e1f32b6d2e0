package provider

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medrec/gateway/internal/platform/identity"
	"github.com/medrec/gateway/internal/platform/ledger"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := api.Group("", identity.RequireRole("admin"))
	admin.POST("/providers", h.Register)
	admin.POST("/providers/:id/suspend", h.Suspend)
	admin.POST("/providers/:id/unsuspend", h.Unsuspend)
	admin.GET("/providers/filter", h.Filter)

	api.POST("/providers/batch", h.Batch)

	self := api.Group("", identity.RequireRole("provider"))
	self.GET("/providers/me", h.Me)
}

func (h *Handler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	admin := identity.PrincipalFromContext(ctx)

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Register(ctx, admin, req)
	if err != nil {
		return echo.NewHTTPError(ledger.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Batch(c echo.Context) error {
	var req BatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.IDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one id is required")
	}
	providers, err := h.svc.Batch(c.Request().Context(), req.IDs)
	if err != nil {
		return echo.NewHTTPError(ledger.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  providers,
		"total": len(providers),
	})
}

func (h *Handler) Filter(c echo.Context) error {
	providers := h.svc.Filter(c.QueryParam("q"))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  providers,
		"total": len(providers),
	})
}

func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)

	p, err := h.svc.ByPrincipal(ctx, principal)
	if err != nil {
		if ledger.Structural(err) {
			return echo.NewHTTPError(http.StatusNotFound, "not a registered provider")
		}
		return echo.NewHTTPError(ledger.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Suspend(c echo.Context) error {
	ctx := c.Request().Context()
	admin := identity.PrincipalFromContext(ctx)

	if err := h.svc.Suspend(ctx, admin, c.Param("id")); err != nil {
		return echo.NewHTTPError(ledger.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Unsuspend(c echo.Context) error {
	ctx := c.Request().Context()
	admin := identity.PrincipalFromContext(ctx)

	if err := h.svc.Unsuspend(ctx, admin, c.Param("id")); err != nil {
		return echo.NewHTTPError(ledger.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
