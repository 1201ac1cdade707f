package billing

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/httperr"
	"github.com/clinicore/clinicore/pkg/apperr"
	"github.com/clinicore/clinicore/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/invoices", h.Create)
	api.GET("/invoices", h.List)
	api.GET("/invoices/:id", h.Get)
	api.PUT("/invoices/:id/payment", h.RecordPayment)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.POST("/invoices/:id/cancel", h.Cancel)
	adminGroup.DELETE("/invoices/:id", h.Delete)
	adminGroup.GET("/invoices/:id/reminder", h.Reminder)
}

func (h *Handler) Create(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return httperr.Respond(c, apperr.Validation("invalid request body"))
	}
	inv, err := h.svc.Create(c.Request().Context(), ident, in)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) Get(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Respond(c, apperr.Validation("invalid id"))
	}
	inv, err := h.svc.Get(c.Request().Context(), ident, id)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) List(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	pg := pagination.FromContext(c)

	var f SearchFilter
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return httperr.Respond(c, apperr.Validation("invalid patient_id"))
		}
		f.PatientID = &id
	}
	f.Status = c.QueryParam("status")
	if v := c.QueryParam("from"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return httperr.Respond(c, apperr.Validation("invalid from timestamp, want RFC 3339"))
		}
		f.From = &ts
	}
	if v := c.QueryParam("to"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return httperr.Respond(c, apperr.Validation("invalid to timestamp, want RFC 3339"))
		}
		f.To = &ts
	}

	items, total, err := h.svc.List(c.Request().Context(), ident, f, pg.Limit, pg.Offset)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) RecordPayment(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Respond(c, apperr.Validation("invalid id"))
	}
	var in PaymentInput
	if err := c.Bind(&in); err != nil {
		return httperr.Respond(c, apperr.Validation("invalid request body"))
	}
	inv, err := h.svc.RecordPayment(c.Request().Context(), ident, id, in)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) Cancel(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Respond(c, apperr.Validation("invalid id"))
	}
	inv, err := h.svc.Cancel(c.Request().Context(), ident, id)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) Delete(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Respond(c, apperr.Validation("invalid id"))
	}
	if err := h.svc.Delete(c.Request().Context(), ident, id); err != nil {
		return httperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Reminder(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Respond(c, apperr.Validation("invalid id"))
	}
	payload, err := h.svc.Reminder(c.Request().Context(), ident, id)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, payload)
}
