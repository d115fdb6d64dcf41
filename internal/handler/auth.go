package handler

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/milpoint/milpoint/internal/authz"
	"github.com/milpoint/milpoint/internal/config"
	"github.com/milpoint/milpoint/internal/middleware"
	"github.com/milpoint/milpoint/internal/model"
	"github.com/milpoint/milpoint/internal/permission"
	"github.com/milpoint/milpoint/internal/repository"
	"github.com/milpoint/milpoint/internal/utils"
)

// snPattern validates service numbers: two digits, hyphen, five to eight digits.
var snPattern = regexp.MustCompile(`^[0-9]{2}-[0-9]{5,8}$`)

// AuthHandler bundles dependencies for the authentication endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Soldiers SoldierStore
	Perms    PermissionStore
}

func NewAuthHandler(cfg config.Config, s SoldierStore, p PermissionStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Soldiers: s, Perms: p}
}

// ----- DTOs -----

type signInReq struct {
	SN       string `json:"sn"`
	Password string `json:"password"`
}
type signUpReq struct {
	SN       string `json:"sn"`
	Name     string `json:"name"`
	Type     string `json:"type"` // enlisted | cadre
	Password string `json:"password"`
}
type updatePasswordReq struct {
	Password    string `json:"password"`
	NewPassword string `json:"newPassword"`
}
type resetPasswordReq struct {
	SN string `json:"sn"`
}
type tokenResp struct {
	AccessToken string    `json:"accessToken"`
	Expires     time.Time `json:"expires"`
}

// SignIn verifies credentials and returns a fresh claim bundle.  Unknown,
// deleted and wrong-password callers all collapse to 401 so the endpoint
// does not reveal which soldiers exist.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SN == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sn/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Soldiers.GetActive(ctx, req.SN)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return writeError(c, err)
	}
	if !utils.VerifyPassword(req.Password, s.PasswordDigest) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	perms, err := h.Perms.ListBySoldier(ctx, s.SN)
	if err != nil {
		return writeError(c, err)
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, utils.Claims{
		Sub:      s.SN,
		Name:     s.Name,
		Type:     s.Type,
		Scope:    permission.Normalize(perms),
		Verified: utils.VerifiedState(s.VerifiedAt, s.RejectedAt),
	}, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, tokenResp{AccessToken: access.Token, Expires: access.Exp})
}

// SignUp registers a new soldier awaiting review.  Cadre sign-ups are seeded
// with the default point-granting capabilities; everything else is granted
// later by an administrator.  The returned token carries verified=null until
// the sign-up is approved and the soldier signs in again.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !snPattern.MatchString(req.SN) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service number"})
	}
	if req.Name == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/password required"})
	}
	if req.Type != model.TypeEnlisted && req.Type != model.TypeCadre {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be enlisted or cadre"})
	}

	digest, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Soldiers.Create(ctx, req.SN, req.Name, req.Type, digest); err != nil {
		return writeError(c, err)
	}

	scope := []string{}
	if req.Type == model.TypeCadre {
		scope = []string{permission.GiveMeritPoint, permission.GiveDemeritPoint}
		if err := h.Perms.Insert(ctx, req.SN, scope); err != nil {
			return writeError(c, err)
		}
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, utils.Claims{
		Sub:   req.SN,
		Name:  req.Name,
		Type:  req.Type,
		Scope: scope,
		// review pending: verified stays null
	}, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusCreated, tokenResp{AccessToken: access.Token, Expires: access.Exp})
}

// UpdatePassword lets an authenticated soldier rotate their own password
// after proving they know the current one.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	caller := middleware.CallerClaims(c)
	var req updatePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Password == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password/newPassword required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Soldiers.GetActive(ctx, caller.Sub)
	if err != nil {
		return writeError(c, err)
	}
	if !utils.VerifyPassword(req.Password, s.PasswordDigest) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	digest, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	if err := h.Soldiers.UpdatePassword(ctx, caller.Sub, digest); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ResetPassword generates a new random password for another soldier.  Guarded
// by the reset capability; resetting yourself is always refused.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	caller := middleware.CallerClaims(c)
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SN == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sn required"})
	}
	if err := authz.CanResetPassword(caller, req.SN); err != nil {
		return writeError(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Soldiers.GetActive(ctx, req.SN); err != nil {
		return writeError(c, err)
	}

	password, err := utils.RandomPassword(6)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate password failed"})
	}
	digest, err := utils.HashPassword(password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	if err := h.Soldiers.UpdatePassword(ctx, req.SN, digest); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"password": password})
}
