package scheduling

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
	api.POST("/appointments", h.Create)
	api.GET("/appointments", h.List)
	api.GET("/appointments/calendar", h.Calendar)
	api.GET("/appointments/:id", h.Get)
	api.PUT("/appointments/:id", h.Update)
	api.POST("/appointments/:id/cancel", h.Cancel)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.GET("/appointments/reminder-candidates", h.ReminderCandidates)
	adminGroup.POST("/appointments/:id/reminder-sent", h.MarkReminderSent)
}

func (h *Handler) Create(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return httperr.Respond(c, apperr.Validation("invalid request body"))
	}
	a, err := h.svc.Create(c.Request().Context(), ident, in)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) Get(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Respond(c, apperr.Validation("invalid id"))
	}
	a, err := h.svc.Get(c.Request().Context(), ident, id)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	pg := pagination.FromContext(c)

	var f SearchFilter
	if v := c.QueryParam("doctor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return httperr.Respond(c, apperr.Validation("invalid doctor_id"))
		}
		f.DoctorID = &id
	}
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return httperr.Respond(c, apperr.Validation("invalid patient_id"))
		}
		f.PatientID = &id
	}
	f.Status = c.QueryParam("status")
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return httperr.Respond(c, apperr.Validation("invalid from timestamp"))
		}
		f.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return httperr.Respond(c, apperr.Validation("invalid to timestamp"))
		}
		f.To = &t
	}

	items, total, err := h.svc.List(c.Request().Context(), ident, f, pg.Limit, pg.Offset)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Respond(c, apperr.Validation("invalid id"))
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return httperr.Respond(c, apperr.Validation("invalid request body"))
	}
	a, err := h.svc.Update(c.Request().Context(), ident, id, in)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Cancel(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Respond(c, apperr.Validation("invalid id"))
	}
	a, err := h.svc.Cancel(c.Request().Context(), ident, id)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Calendar(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())

	var doctorID *uuid.UUID
	if v := c.QueryParam("doctor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return httperr.Respond(c, apperr.Validation("invalid doctor_id"))
		}
		doctorID = &id
	}
	from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
	if err != nil {
		return httperr.Respond(c, apperr.Validation("from is required (RFC 3339)"))
	}
	to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
	if err != nil {
		return httperr.Respond(c, apperr.Validation("to is required (RFC 3339)"))
	}

	entries, err := h.svc.Calendar(c.Request().Context(), ident, doctorID, from, to)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) ReminderCandidates(c echo.Context) error {
	at := time.Now()
	if v := c.QueryParam("at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return httperr.Respond(c, apperr.Validation("invalid at timestamp"))
		}
		at = t
	}
	items, err := h.svc.ReminderCandidates(c.Request().Context(), at)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) MarkReminderSent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Respond(c, apperr.Validation("invalid id"))
	}
	if err := h.svc.MarkReminderSent(c.Request().Context(), id); err != nil {
		return httperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
