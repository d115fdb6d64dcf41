package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/milpoint/milpoint/internal/permission"
	"github.com/milpoint/milpoint/internal/utils"
)

func claims(sub string, scope ...string) utils.Claims {
	return utils.Claims{Sub: sub, Type: "cadre", Scope: scope}
}

func TestCheckPointValueThresholds(t *testing.T) {
	cases := []struct {
		name  string
		value int
		scope []string
		allow bool
	}{
		{"merit within limit", 5, []string{permission.GiveMeritPoint}, true},
		{"merit above limit needs large grant", 6, []string{permission.GiveMeritPoint}, false},
		{"large merit with grant", 6, []string{permission.GiveMeritPoint, permission.GiveLargeMeritPoint}, true},
		{"merit without any grant", 1, nil, false},
		{"demerit within limit", -5, []string{permission.GiveDemeritPoint}, true},
		{"demerit above limit needs large grant", -6, []string{permission.GiveDemeritPoint}, false},
		{"large demerit with grant", -6, []string{permission.GiveDemeritPoint, permission.GiveLargeDemeritPoint}, true},
		{"admin bypasses everything", 100, []string{permission.Admin}, true},
		{"point admin bypasses everything", -100, []string{permission.PointAdmin}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckPointValue(tc.value, tc.scope)
			if tc.allow {
				assert.NoError(t, err)
			} else {
				var authzErr *Error
				assert.ErrorAs(t, err, &authzErr)
			}
		})
	}
}

func TestCanUpdatePermissions(t *testing.T) {
	caller := claims("11-11111", permission.UserAdmin)

	assert.NoError(t, CanUpdatePermissions(caller, "22-22222", nil, []string{permission.ListUser}))

	// self-target is refused before anything else
	assert.Error(t, CanUpdatePermissions(caller, "11-11111", nil, nil))

	// an admin target is untouchable
	assert.Error(t, CanUpdatePermissions(caller, "22-22222", []string{permission.Admin}, nil))

	// Admin can never be handed out
	assert.Error(t, CanUpdatePermissions(caller, "22-22222", nil, []string{permission.Admin}))

	// no capability
	assert.Error(t, CanUpdatePermissions(claims("11-11111", permission.ViewPoint), "22-22222", nil, nil))
}

func TestCanDeleteSoldier(t *testing.T) {
	caller := claims("11-11111", permission.DeleteUser)

	assert.NoError(t, CanDeleteSoldier(caller, "22-22222", nil))
	assert.Error(t, CanDeleteSoldier(caller, "11-11111", nil))
	assert.Error(t, CanDeleteSoldier(caller, "22-22222", []string{permission.Admin}))
	assert.Error(t, CanDeleteSoldier(claims("11-11111"), "22-22222", nil))
}

func TestCanResetPassword(t *testing.T) {
	assert.NoError(t, CanResetPassword(claims("11-11111", permission.ResetPasswordUser), "22-22222"))
	assert.Error(t, CanResetPassword(claims("11-11111", permission.ResetPasswordUser), "11-11111"))
	assert.Error(t, CanResetPassword(claims("11-11111"), "22-22222"))
}

func TestCanViewPoints(t *testing.T) {
	assert.NoError(t, CanViewPoints(claims("11-11111"), ""))
	assert.NoError(t, CanViewPoints(claims("11-11111"), "11-11111"))
	assert.NoError(t, CanViewPoints(claims("11-11111", permission.ViewPoint), "22-22222"))
	assert.Error(t, CanViewPoints(claims("11-11111"), "22-22222"))
}

func TestListAndReviewGuards(t *testing.T) {
	assert.NoError(t, CanListSoldiers(claims("x", permission.ListUser)))
	assert.Error(t, CanListSoldiers(claims("x", permission.ViewPoint)))

	// ListUser alone may see the pending list, VerifyUser alone may too
	assert.NoError(t, CanListUnverified(claims("x", permission.ListUser)))
	assert.NoError(t, CanListUnverified(claims("x", permission.VerifyUser)))
	assert.Error(t, CanListUnverified(claims("x")))

	assert.NoError(t, CanReviewSoldier(claims("x", permission.VerifyUser)))
	assert.Error(t, CanReviewSoldier(claims("x", permission.ListUser)))
}
