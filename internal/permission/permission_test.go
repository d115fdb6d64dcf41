package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Admin))
	assert.NoError(t, Validate(GiveLargeDemeritPoint))
	assert.ErrorIs(t, Validate("SuperUser"), ErrUnknown)
	assert.ErrorIs(t, Validate(""), ErrUnknown)
	assert.ErrorIs(t, ValidateAll([]string{ViewPoint, "Root"}), ErrUnknown)
}

func TestNormalizeAdminCollapsesEverything(t *testing.T) {
	got := Normalize([]string{UserAdmin, Admin, PointAdmin, GiveMeritPoint, ListUser})
	assert.Equal(t, []string{Admin}, got)
}

func TestNormalizeUserAdminDropsUserFamily(t *testing.T) {
	got := Normalize([]string{UserAdmin, ResetPasswordUser, ListUser, GiveMeritPoint})
	assert.ElementsMatch(t, []string{UserAdmin, GiveMeritPoint}, got)
}

func TestNormalizePointAdminDropsPointFamily(t *testing.T) {
	got := Normalize([]string{PointAdmin, ViewPoint, GiveLargeMeritPoint, DeleteUser})
	assert.ElementsMatch(t, []string{PointAdmin, DeleteUser}, got)
}

func TestNormalizeCollapsesAreIndependent(t *testing.T) {
	// A soldier may hold both scoped admins at once.
	got := Normalize([]string{UserAdmin, PointAdmin, ListUser, ViewPoint, GiveDemeritPoint})
	assert.ElementsMatch(t, []string{UserAdmin, PointAdmin}, got)
}

func TestNormalizeIdempotentAndOrderInsensitive(t *testing.T) {
	inputs := [][]string{
		{Admin},
		{UserAdmin, PointAdmin, ViewPoint},
		{GiveMeritPoint, GiveDemeritPoint},
		{ListUser, UserAdmin, GiveLargeMeritPoint, PointAdmin},
		{},
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "normalize must be idempotent for %v", in)

		// reversed input gives the same set
		rev := make([]string, len(in))
		for i, s := range in {
			rev[len(in)-1-i] = s
		}
		assert.Equal(t, once, Normalize(rev))
	}
}

func TestNormalizeDeduplicates(t *testing.T) {
	got := Normalize([]string{GiveMeritPoint, GiveMeritPoint})
	assert.Equal(t, []string{GiveMeritPoint}, got)
}

func TestHasAny(t *testing.T) {
	scope := []string{GiveMeritPoint, ViewPoint}
	assert.True(t, HasAny(scope, Admin, ViewPoint))
	assert.False(t, HasAny(scope, Admin, UserAdmin))
	assert.False(t, HasAny(nil, Admin))
}
