package emr

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

// RegisterRoutes wires the record endpoints. Own-record reads go on the
// guarded group so only callers with an approved profile reach them; the
// session read is the provider side of a claimed consent.
func (h *Handler) RegisterRoutes(guarded, api *echo.Group) {
	guarded.GET("/emr", h.ListOwn)
	guarded.GET("/emr/filter", h.Filter)

	provider := api.Group("", identity.RequireRole("provider"))
	provider.GET("/sessions/:sessionID/emr", h.ListWithSession)
}

func (h *Handler) ListOwn(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)
	pg := pagination.FromContext(c)

	records, total, err := h.svc.ListOwn(ctx, principal, pg.Page, pg.Limit)
	if err != nil {
		return echo.NewHTTPError(ledger.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, pg))
}

// Filter serves the locally cached record list, narrowed by ?q=. It never
// talks to the registry, so it stays responsive when the ledger is slow.
func (h *Handler) Filter(c echo.Context) error {
	principal := identity.PrincipalFromContext(c.Request().Context())
	records := h.svc.Filter(principal, c.QueryParam("q"))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  records,
		"total": len(records),
	})
}

func (h *Handler) ListWithSession(c echo.Context) error {
	sessionID := c.Param("sessionID")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id required")
	}
	pg := pagination.FromContext(c)

	records, total, err := h.svc.ListWithSession(c.Request().Context(), sessionID, pg.Page, pg.Limit)
	if err != nil {
		return echo.NewHTTPError(ledger.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, pg))
}
