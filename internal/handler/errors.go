package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/milpoint/milpoint/internal/authz"
	"github.com/milpoint/milpoint/internal/permission"
	"github.com/milpoint/milpoint/internal/point"
	"github.com/milpoint/milpoint/internal/repository"
)

// writeError maps domain errors onto HTTP responses.  Guard failures carry
// their reason to the client; everything unexpected collapses to a plain
// 500 so persistence details never leak.
func writeError(c echo.Context, err error) error {
	var authzErr *authz.Error
	if errors.As(err, &authzErr) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": authzErr.Reason})
	}
	switch {
	case errors.Is(err, point.ErrZeroValue),
		errors.Is(err, point.ErrCounterpartyRequired),
		errors.Is(err, point.ErrCounterpartyNotFound),
		errors.Is(err, point.ErrSelfGiver),
		errors.Is(err, permission.ErrUnknown):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, point.ErrNotGiver),
		errors.Is(err, point.ErrEnlistedResolve),
		errors.Is(err, point.ErrRejectReasonRequired),
		errors.Is(err, point.ErrCadreDelete),
		errors.Is(err, point.ErrNotReceiver),
		errors.Is(err, point.ErrAlreadyResolved):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, point.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, point.ErrConflict), errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting update"})
	case errors.Is(err, repository.ErrSoldierExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "soldier already exists"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
