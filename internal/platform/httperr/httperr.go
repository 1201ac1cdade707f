// Package httperr maps service errors onto the wire. Every handler funnels
// failures through Respond so the API emits one error shape everywhere.
package httperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinicore/pkg/apperr"
)

// statusByKind maps each error kind to its HTTP status.
var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:    http.StatusBadRequest,
	apperr.KindNotFound:      http.StatusNotFound,
	apperr.KindAuthorization: http.StatusForbidden,
	apperr.KindConflict:      http.StatusConflict,
	apperr.KindInternal:      http.StatusInternalServerError,
}

// Body is the uniform JSON error payload.
type Body struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Respond writes the error body and status derived from err's kind. Internal
// faults are logged with their cause and presented without detail; unclassified
// errors count as internal.
func Respond(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		kind = apperr.KindInternal
		status = http.StatusInternalServerError
	}

	message := messageOf(err)
	if kind == apperr.KindInternal {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Msg("request failed")
		message = "internal error"
	}

	return c.JSON(status, Body{Kind: string(kind), Message: message})
}

func messageOf(err error) string {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
