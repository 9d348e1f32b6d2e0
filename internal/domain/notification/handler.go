package notification

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medrec/gateway/internal/platform/identity"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/notifications", h.List)
	api.GET("/notifications/unread", h.UnreadCount)
	api.POST("/notifications/:id/read", h.MarkRead)
	api.POST("/notifications/read-all", h.MarkAllRead)
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)
	if principal == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items, err := h.svc.List(ctx, principal, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "notification lookup failed")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  items,
		"total": len(items),
	})
}

func (h *Handler) UnreadCount(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)
	if principal == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	count, err := h.svc.UnreadCount(ctx, principal)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "notification lookup failed")
	}
	return c.JSON(http.StatusOK, map[string]int{"unread": count})
}

func (h *Handler) MarkRead(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)
	if principal == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	if err := h.svc.MarkRead(ctx, principal, c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "mark read failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) MarkAllRead(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)
	if principal == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	if err := h.svc.MarkAllRead(ctx, principal); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "mark read failed")
	}
	return c.NoContent(http.StatusNoContent)
}
