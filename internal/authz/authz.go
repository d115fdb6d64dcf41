// Package authz holds the guard predicates applied at every workflow entry
// point.  Guards are pure functions over the caller's claim bundle and the
// domain parameters of the request; they either allow the operation or
// return an *Error carrying a human-readable reason for the 403 response.
// Authentication endpoints never consult this package.
package authz

import (
	"github.com/milpoint/milpoint/internal/permission"
	"github.com/milpoint/milpoint/internal/utils"
)

// Error is an authorization failure.  Reason is safe to show to the caller.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return e.Reason }

func deny(reason string) error { return &Error{Reason: reason} }

// CanListSoldiers guards listing/searching reviewed soldiers.
func CanListSoldiers(caller utils.Claims) error {
	if !permission.HasAny(caller.Scope, permission.Admin, permission.UserAdmin, permission.ListUser) {
		return deny("not allowed to list soldiers")
	}
	return nil
}

// CanListUnverified guards listing soldiers whose sign-up is still pending.
// VerifyUser joins the allowed set because reviewers need the pending list.
func CanListUnverified(caller utils.Claims) error {
	if !permission.HasAny(caller.Scope,
		permission.Admin, permission.UserAdmin, permission.VerifyUser, permission.ListUser) {
		return deny("not allowed to list unverified soldiers")
	}
	return nil
}

// CanReviewSoldier guards approving or rejecting a sign-up.
func CanReviewSoldier(caller utils.Claims) error {
	if !permission.HasAny(caller.Scope, permission.Admin, permission.UserAdmin, permission.VerifyUser) {
		return deny("not allowed to review sign-ups")
	}
	return nil
}

// CanUpdatePermissions guards replacing another soldier's grants.  Editing
// yourself, editing an admin, and handing out Admin are all forbidden no
// matter the caller's scope.
func CanUpdatePermissions(caller utils.Claims, targetSN string, targetScope, requested []string) error {
	if caller.Sub == targetSN {
		return deny("cannot edit your own permissions")
	}
	if permission.HasAny(targetScope, permission.Admin) {
		return deny("cannot edit an admin")
	}
	if !permission.HasAny(caller.Scope,
		permission.Admin, permission.UserAdmin, permission.GivePermissionUser) {
		return deny("not allowed to edit permissions")
	}
	if permission.HasAny(requested, permission.Admin) {
		return deny("the Admin permission cannot be granted")
	}
	return nil
}

// CanDeleteSoldier guards soft deleting (or restoring) a soldier.
func CanDeleteSoldier(caller utils.Claims, targetSN string, targetScope []string) error {
	if caller.Sub == targetSN {
		return deny("cannot delete yourself")
	}
	if permission.HasAny(targetScope, permission.Admin) {
		return deny("cannot delete an admin")
	}
	if !permission.HasAny(caller.Scope, permission.Admin, permission.UserAdmin, permission.DeleteUser) {
		return deny("not allowed to delete soldiers")
	}
	return nil
}

// CanResetPassword guards the admin-driven password reset.
func CanResetPassword(caller utils.Claims, targetSN string) error {
	if !permission.HasAny(caller.Scope,
		permission.Admin, permission.UserAdmin, permission.ResetPasswordUser) {
		return deny("not allowed to reset passwords")
	}
	if caller.Sub == targetSN {
		return deny("cannot reset your own password")
	}
	return nil
}

// CanViewPoints guards reading another soldier's point history.  Reading
// your own is always allowed.
func CanViewPoints(caller utils.Claims, targetSN string) error {
	if targetSN == "" || targetSN == caller.Sub {
		return nil
	}
	if !permission.HasAny(caller.Scope, permission.Admin, permission.PointAdmin, permission.ViewPoint) {
		return deny("not allowed to view another soldier's points")
	}
	return nil
}

// CheckPointValue enforces the value thresholds on granting or approving a
// point record.  Admin and PointAdmin bypass every check.  Thresholds are
// strict: 5 merit points need only GiveMeritPoint, 6 need GiveLargeMeritPoint
// on top, and symmetrically for demerits.  A zero value never reaches this
// guard; it is rejected as malformed input upstream.
func CheckPointValue(value int, scope []string) error {
	if permission.HasAny(scope, permission.Admin, permission.PointAdmin) {
		return nil
	}
	if value > 0 && !permission.HasAny(scope, permission.GiveMeritPoint) {
		return deny("not allowed to give merit points")
	}
	if value > 5 && !permission.HasAny(scope, permission.GiveLargeMeritPoint) {
		return deny("not allowed to give more than 5 merit points")
	}
	if value < 0 && !permission.HasAny(scope, permission.GiveDemeritPoint) {
		return deny("not allowed to give demerit points")
	}
	if value < -5 && !permission.HasAny(scope, permission.GiveLargeDemeritPoint) {
		return deny("not allowed to give more than 5 demerit points")
	}
	return nil
}
