package staff

import (
	"net/http"
	"strconv"

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
	// The directory is readable by any signed-in role; booking UIs use it to
	// list dentists.
	api.GET("/staff", h.List)
	api.GET("/staff/:id", h.Get)
	api.GET("/me", h.GetMe)
	api.PUT("/me", h.UpdateMe)

	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.POST("/staff", h.Create)
	adminGroup.PUT("/staff/:id", h.Update)
	adminGroup.DELETE("/staff/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var u User
	if err := c.Bind(&u); err != nil {
		return httperr.Respond(c, apperr.Validation("invalid request body"))
	}
	if err := h.svc.Create(c.Request().Context(), &u); err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Respond(c, apperr.Validation("invalid id"))
	}
	u, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := SearchFilter{
		Role:  c.QueryParam("role"),
		Query: c.QueryParam("q"),
	}
	if v := c.QueryParam("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return httperr.Respond(c, apperr.Validation("invalid active filter"))
		}
		f.Active = &active
	}
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Respond(c, apperr.Validation("invalid id"))
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return httperr.Respond(c, apperr.Validation("invalid request body"))
	}
	u, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httperr.Respond(c, apperr.Validation("invalid id"))
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetMe(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	if ident.IsZero() {
		return httperr.Respond(c, apperr.Authorization("authentication required"))
	}
	u, err := h.svc.Get(c.Request().Context(), ident.ID)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateMe(c echo.Context) error {
	ident := auth.IdentityFromContext(c.Request().Context())
	if ident.IsZero() {
		return httperr.Respond(c, apperr.Authorization("authentication required"))
	}
	var in ProfileInput
	if err := c.Bind(&in); err != nil {
		return httperr.Respond(c, apperr.Validation("invalid request body"))
	}
	u, err := h.svc.UpdateProfile(c.Request().Context(), ident.ID, in)
	if err != nil {
		return httperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
