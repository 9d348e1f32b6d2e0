package patient

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medrec/gateway/internal/guard"
	"github.com/medrec/gateway/internal/platform/identity"
	"github.com/medrec/gateway/internal/platform/kyc"
	"github.com/medrec/gateway/internal/platform/ledger"
)

// Verifier is the slice of the verification service the registration flow
// uses. *kyc.Client satisfies it.
type Verifier interface {
	Submit(ctx context.Context, s kyc.Submission) error
	Status(ctx context.Context, nik string) (*kyc.StatusReply, error)
}

type Handler struct {
	svc      *Service
	verifier Verifier
}

func NewHandler(svc *Service, verifier Verifier) *Handler {
	return &Handler{svc: svc, verifier: verifier}
}

// RegisterRoutes wires the patient endpoints. Registration, document
// submission, and the profile read sit OUTSIDE the guard: a caller with no
// profile yet must be able to register, and the profile read is what the
// waiting screen polls while kyc_status is still Pending.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients", h.Register)
	api.GET("/patients/me", h.GetProfile)
	api.POST("/patients/me/logout", h.Logout)
	api.POST("/patients/kyc", h.SubmitKYC)
	api.GET("/patients/kyc/status", h.KYCStatus)
}

func (h *Handler) Register(c echo.Context) error {
	principal := identity.PrincipalFromContext(c.Request().Context())
	if principal == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Register(c.Request().Context(), principal, req); err != nil {
		if _, ok := err.(*ledger.Error); ok {
			return echo.NewHTTPError(ledger.HTTPStatus(err), err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]string{"status": "registered"})
}

func (h *Handler) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)
	if principal == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	// A guarded route has already fetched the profile; reuse it.
	if p := guard.ProfileFromContext(ctx); p != nil {
		return c.JSON(http.StatusOK, toProfileResponse(p))
	}

	p, err := h.svc.Profile(ctx, principal)
	if err != nil {
		if ledger.Structural(err) {
			return echo.NewHTTPError(http.StatusNotFound, "no profile registered")
		}
		return echo.NewHTTPError(ledger.HTTPStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, toProfileResponse(p))
}

// SubmitKYC forwards the identity documents to the verification service.
// The plaintext NIK goes only to the verifier; the ledger ever sees the
// hash.
func (h *Handler) SubmitKYC(c echo.Context) error {
	ctx := c.Request().Context()
	principal := identity.PrincipalFromContext(ctx)
	if principal == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	nik := c.FormValue("nik")
	if len(nik) != 16 {
		return echo.NewHTTPError(http.StatusBadRequest, "nik must be 16 digits")
	}
	fileHeader, err := c.FormFile("card")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "card image is required")
	}
	card, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "card image unreadable")
	}
	defer card.Close()

	sub := kyc.Submission{
		NIKHash:    HashNIK(nik),
		FullName:   c.FormValue("full_name"),
		NIK:        nik,
		Address:    c.FormValue("address"),
		Gender:     c.FormValue("gender"),
		PlaceBirth: c.FormValue("place_of_birth"),
		DateBirth:  c.FormValue("date_of_birth"),
		Marital:    c.FormValue("marital_status"),
		CardName:   fileHeader.Filename,
		Card:       card,
	}
	if err := h.verifier.Submit(ctx, sub); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "verification submission failed")
	}
	return c.NoContent(http.StatusAccepted)
}

// KYCStatus polls the verification decision for a NIK. Used by the waiting
// screen alongside the profile poll.
func (h *Handler) KYCStatus(c echo.Context) error {
	ctx := c.Request().Context()
	if identity.PrincipalFromContext(ctx) == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	nik := c.QueryParam("nik")
	if nik == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "nik is required")
	}
	reply, err := h.verifier.Status(ctx, nik)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "verification status lookup failed")
	}
	return c.JSON(http.StatusOK, reply)
}

// Logout drops the cached profile so a later session starts from a clean
// registry read.
func (h *Handler) Logout(c echo.Context) error {
	principal := identity.PrincipalFromContext(c.Request().Context())
	if principal == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	h.svc.Invalidate(principal)
	return c.NoContent(http.StatusNoContent)
}
