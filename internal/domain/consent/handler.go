package consent

import (
	"net/http"
	"strconv"

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

// RegisterRoutes wires the consent endpoints. Patient operations sit on the
// guarded group; claiming is a provider operation and bypasses the patient
// guard.
func (h *Handler) RegisterRoutes(guarded, api *echo.Group) {
	guarded.POST("/consents", h.Generate)
	guarded.GET("/consents", h.List)
	guarded.GET("/consents/filter", h.Filter)
	guarded.POST("/consents/revoke", h.Revoke)
	guarded.GET("/consents/audit", h.Audit)

	provider := api.Group("", identity.RequireRole("provider"))
	provider.POST("/consents/claim", h.Claim)
	provider.GET("/sessions/:sessionID/profile", h.SessionProfile)
}

func (h *Handler) Generate(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)

	code, err := h.svc.Generate(ctx, principal)
	if err != nil {
		return echo.NewHTTPError(ledger.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, code)
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)

	views, err := h.svc.List(ctx, principal)
	if err != nil {
		return echo.NewHTTPError(ledger.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  views,
		"total": len(views),
	})
}

func (h *Handler) Filter(c echo.Context) error {
	principal := identity.PrincipalFromContext(c.Request().Context())
	views := h.svc.Filter(principal, c.QueryParam("q"))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  views,
		"total": len(views),
	})
}

func (h *Handler) Revoke(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)

	var req RevokeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Codes) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "at least one code is required")
	}
	if err := h.svc.Revoke(ctx, principal, req.Codes); err != nil {
		return echo.NewHTTPError(ledger.HTTPStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Audit(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, err := h.svc.Audit(ctx, principal, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "audit lookup failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  entries,
		"total": len(entries),
	})
}

func (h *Handler) Claim(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)

	var req ClaimRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}
	session, err := h.svc.Claim(ctx, principal, req.Code)
	if err != nil {
		return echo.NewHTTPError(ledger.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) SessionProfile(c echo.Context) error {
	sessionID := c.Param("sessionID")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id required")
	}
	p, err := h.svc.SessionProfile(c.Request().Context(), sessionID)
	if err != nil {
		return echo.NewHTTPError(ledger.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, p)
}
