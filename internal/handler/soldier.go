package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/milpoint/milpoint/internal/authz"
	"github.com/milpoint/milpoint/internal/middleware"
	"github.com/milpoint/milpoint/internal/model"
	"github.com/milpoint/milpoint/internal/permission"
	"github.com/milpoint/milpoint/internal/repository"
)

// SoldierHandler bundles dependencies for identity-management endpoints.
type SoldierHandler struct {
	Soldiers SoldierStore
	Perms    PermissionStore
}

func NewSoldierHandler(s SoldierStore, p PermissionStore) *SoldierHandler {
	return &SoldierHandler{Soldiers: s, Perms: p}
}

// ----- DTOs -----

type reviewSoldierReq struct {
	SN    string `json:"sn"`
	Value bool   `json:"value"` // true approves, false rejects
}
type updatePermissionsReq struct {
	SN          string   `json:"sn"`
	Permissions []string `json:"permissions"`
}
type soldierResp struct {
	SN          string     `json:"sn"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`
	VerifiedAt  *time.Time `json:"verifiedAt"`
	Permissions []string   `json:"permissions"`
}

// Fetch returns one soldier with their grants.  Without ?sn= it returns the
// caller.  An absent soldier yields an empty object, not an error.
func (h *SoldierHandler) Fetch(c echo.Context) error {
	caller := middleware.CallerClaims(c)
	sn := c.QueryParam("sn")
	if sn == "" {
		sn = caller.Sub
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Soldiers.GetActive(ctx, sn)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusOK, echo.Map{})
	}
	if err != nil {
		return writeError(c, err)
	}
	perms, err := h.Perms.ListBySoldier(ctx, sn)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, soldierResp{
		SN:          s.SN,
		Name:        s.Name,
		Type:        s.Type,
		VerifiedAt:  s.VerifiedAt,
		Permissions: perms,
	})
}

// pointGranting is the capability filter for the autocomplete flow: an
// enlisted soldier requesting points only needs cadre who can actually give
// them.
var pointGranting = []string{
	permission.GiveMeritPoint, permission.GiveLargeMeritPoint,
	permission.GiveDemeritPoint, permission.GiveLargeDemeritPoint,
	permission.PointAdmin, permission.Admin,
}

// Search finds reviewed soldiers.  Three modes:
//   - autoComplete=true: unguarded; enlisted get point-granting cadre,
//     cadre get enlisted (counterparty pickers on the point form).
//   - unverifiedOnly=true: pending sign-ups, guarded by the review/list set.
//   - default: guarded general search with optional type filter, pagination
//     and count.
func (h *SoldierHandler) Search(c echo.Context) error {
	caller := middleware.CallerClaims(c)
	query := c.QueryParam("query")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if ok, _ := strconv.ParseBool(c.QueryParam("autoComplete")); ok {
		p := repository.SearchParams{Query: query}
		if caller.Type == model.TypeEnlisted {
			p.Type = model.TypeCadre
			p.Permissions = pointGranting
		} else {
			p.Type = model.TypeEnlisted
		}
		soldiers, err := h.Soldiers.Search(ctx, p)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, soldiers)
	}

	if ok, _ := strconv.ParseBool(c.QueryParam("unverifiedOnly")); ok {
		if err := authz.CanListUnverified(caller); err != nil {
			return writeError(c, err)
		}
		soldiers, err := h.Soldiers.SearchUnverified(ctx)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, soldiers)
	}

	if err := authz.CanListSoldiers(caller); err != nil {
		return writeError(c, err)
	}

	p := repository.SearchParams{Query: query}
	if t := c.QueryParam("type"); t == model.TypeEnlisted || t == model.TypeCadre {
		p.Type = t
		soldiers, err := h.Soldiers.Search(ctx, p)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, soldiers)
	}

	if pageStr := c.QueryParam("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil {
			p.Page = &page
		}
	}
	soldiers, err := h.Soldiers.Search(ctx, p)
	if err != nil {
		return writeError(c, err)
	}
	if ok, _ := strconv.ParseBool(c.QueryParam("count")); ok {
		count, err := h.Soldiers.SearchCount(ctx, p)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"soldiers": soldiers, "count": count})
	}
	return c.JSON(http.StatusOK, soldiers)
}

// Review approves or rejects a pending sign-up.  The repository predicate
// keeps the two review timestamps mutually exclusive: whoever resolves the
// sign-up second gets a conflict, never a silent overwrite.
func (h *SoldierHandler) Review(c echo.Context) error {
	caller := middleware.CallerClaims(c)
	var req reviewSoldierReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SN == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sn required"})
	}
	if err := authz.CanReviewSoldier(caller); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Soldiers.Review(ctx, req.SN, req.Value); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdatePermissions replaces a soldier's grant set.  Requested tokens are
// validated against the closed vocabulary, then normalized so redundant
// grants never reach the database.
func (h *SoldierHandler) UpdatePermissions(c echo.Context) error {
	caller := middleware.CallerClaims(c)
	var req updatePermissionsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SN == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sn required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Soldiers.GetActive(ctx, req.SN); err != nil {
		return writeError(c, err)
	}
	targetScope, err := h.Perms.ListBySoldier(ctx, req.SN)
	if err != nil {
		return writeError(c, err)
	}
	if err := authz.CanUpdatePermissions(caller, req.SN, targetScope, req.Permissions); err != nil {
		return writeError(c, err)
	}
	if err := permission.ValidateAll(req.Permissions); err != nil {
		return writeError(c, err)
	}
	if err := h.Perms.Replace(ctx, req.SN, permission.Normalize(req.Permissions)); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete soft deletes (value=true) or restores (value=false) a soldier.  The
// row is kept so the soldier's point history stays auditable.
func (h *SoldierHandler) Delete(c echo.Context) error {
	caller := middleware.CallerClaims(c)
	sn := c.QueryParam("sn")
	if sn == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sn required"})
	}
	valueStr := c.QueryParam("value")
	if valueStr == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "value required"})
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "value must be a boolean"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Soldiers.Get(ctx, sn); err != nil {
		return writeError(c, err)
	}
	targetScope, err := h.Perms.ListBySoldier(ctx, sn)
	if err != nil {
		return writeError(c, err)
	}
	if err := authz.CanDeleteSoldier(caller, sn, targetScope); err != nil {
		return writeError(c, err)
	}
	if err := h.Soldiers.SetDeleted(ctx, sn, value); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
