package adminops

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medrec/gateway/internal/platform/identity"
	"github.com/medrec/gateway/internal/platform/ledger"
	"github.com/medrec/gateway/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type bindRequest struct {
	Principal string `json:"principal"`
}

type reviewRequest struct {
	Verified bool   `json:"verified"`
	Message  string `json:"message"`
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := api.Group("/admin", identity.RequireRole("admin"))
	admin.POST("/bind", h.BindAdmin)
	admin.GET("/logs", h.Logs)
	admin.GET("/kyc/:user", h.Application)
	admin.PUT("/kyc/:user", h.Review)
}

func (h *Handler) BindAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	caller := identity.PrincipalFromContext(ctx)

	var req bindRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Principal == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "principal is required")
	}
	if err := h.svc.BindAdmin(ctx, caller, req.Principal); err != nil {
		return echo.NewHTTPError(ledger.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Logs(c echo.Context) error {
	ctx := c.Request().Context()
	caller := identity.PrincipalFromContext(ctx)
	pg := pagination.FromContext(c)

	entries, total, err := h.svc.Logs(ctx, caller, pg.Page, pg.Limit)
	if err != nil {
		return echo.NewHTTPError(ledger.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg))
}

func (h *Handler) Application(c echo.Context) error {
	record, err := h.svc.Application(c.Request().Context(), c.Param("user"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, record)
}

func (h *Handler) Review(c echo.Context) error {
	ctx := c.Request().Context()
	caller := identity.PrincipalFromContext(ctx)

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Review(ctx, caller, c.Param("user"), req.Verified, req.Message); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
