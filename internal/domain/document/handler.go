package document

import (
	"net/http"

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
	api.POST("/files", h.Create)
	api.GET("/files", h.List)
	api.GET("/files/:id", h.Get)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.DELETE("/files/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return httperr.Respond(c, apperr.Validation("invalid request body"))
	}
	f, err := h.svc.Create(c.Request().Context(), ident, in)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, f)
}

func (h *Handler) Get(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Respond(c, apperr.Validation("invalid id"))
	}
	f, err := h.svc.Get(c.Request().Context(), ident, id)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, f)
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

	items, total, err := h.svc.List(c.Request().Context(), ident, f, pg.Limit, pg.Offset)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
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
