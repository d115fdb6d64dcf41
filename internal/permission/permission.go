// Package permission defines the closed capability vocabulary and the rules
// that collapse redundant grants.
package permission

import (
	"errors"
	"sort"
)

// Capability tokens.  The vocabulary is closed: anything else is rejected at
// the boundary.
const (
	Admin                 = "Admin"
	UserAdmin             = "UserAdmin"
	ListUser              = "ListUser"
	DeleteUser            = "DeleteUser"
	VerifyUser            = "VerifyUser"
	GivePermissionUser    = "GivePermissionUser"
	ResetPasswordUser     = "ResetPasswordUser"
	PointAdmin            = "PointAdmin"
	ViewPoint             = "ViewPoint"
	GiveMeritPoint        = "GiveMeritPoint"
	GiveLargeMeritPoint   = "GiveLargeMeritPoint"
	GiveDemeritPoint      = "GiveDemeritPoint"
	GiveLargeDemeritPoint = "GiveLargeDemeritPoint"
)

// ErrUnknown is returned when a token outside the vocabulary is presented.
var ErrUnknown = errors.New("unknown permission")

var vocabulary = map[string]bool{
	Admin:                 true,
	UserAdmin:             true,
	ListUser:              true,
	DeleteUser:            true,
	VerifyUser:            true,
	GivePermissionUser:    true,
	ResetPasswordUser:     true,
	PointAdmin:            true,
	ViewPoint:             true,
	GiveMeritPoint:        true,
	GiveLargeMeritPoint:   true,
	GiveDemeritPoint:      true,
	GiveLargeDemeritPoint: true,
}

// subsumes maps a top-level capability to the grants it makes redundant.
// Admin subsumes everything; the two scoped admins each subsume their own
// family.  The collapses are applied in sequence and are independent, so a
// soldier may end up holding both UserAdmin and PointAdmin.
var subsumes = map[string][]string{
	Admin: {
		UserAdmin, ListUser, DeleteUser, VerifyUser, GivePermissionUser,
		ResetPasswordUser, PointAdmin, ViewPoint, GiveMeritPoint,
		GiveLargeMeritPoint, GiveDemeritPoint, GiveLargeDemeritPoint,
	},
	UserAdmin: {
		ListUser, DeleteUser, VerifyUser, GivePermissionUser, ResetPasswordUser,
	},
	PointAdmin: {
		ViewPoint, GiveMeritPoint, GiveLargeMeritPoint,
		GiveDemeritPoint, GiveLargeDemeritPoint,
	},
}

// Validate reports whether the token belongs to the closed vocabulary.
func Validate(token string) error {
	if !vocabulary[token] {
		return ErrUnknown
	}
	return nil
}

// ValidateAll validates every token in the slice.
func ValidateAll(tokens []string) error {
	for _, t := range tokens {
		if err := Validate(t); err != nil {
			return err
		}
	}
	return nil
}

// Normalize drops grants subsumed by a held top-level capability.  The result
// is sorted, duplicate-free, order-insensitive in its input, and idempotent:
// Normalize(Normalize(s)) == Normalize(s).  Holding Admin collapses the set
// to exactly {Admin}.
func Normalize(scopes []string) []string {
	held := make(map[string]bool, len(scopes))
	for _, s := range scopes {
		held[s] = true
	}
	for top, redundant := range subsumes {
		if !held[top] {
			continue
		}
		for _, r := range redundant {
			delete(held, r)
		}
		held[top] = true // Admin removes PointAdmin/UserAdmin before their turn
	}
	out := make([]string, 0, len(held))
	for s := range held {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// HasAny reports whether scope contains at least one of the wanted tokens.
func HasAny(scope []string, wanted ...string) bool {
	for _, s := range scope {
		for _, w := range wanted {
			if s == w {
				return true
			}
		}
	}
	return false
}
