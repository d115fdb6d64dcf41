package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milpoint/milpoint/internal/config"
	"github.com/milpoint/milpoint/internal/middleware"
	"github.com/milpoint/milpoint/internal/model"
	"github.com/milpoint/milpoint/internal/permission"
	"github.com/milpoint/milpoint/internal/repository"
	"github.com/milpoint/milpoint/internal/utils"
)

// fakeStore backs the handlers in memory.  Review and SetDeleted mirror the
// conditional-update semantics of the SQL repository: a write whose predicate
// no longer holds affects zero rows and surfaces as ErrConflict.
type fakeStore struct {
	soldiers map[string]model.Soldier
	grants   map[string][]string
	now      time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		soldiers: map[string]model.Soldier{},
		grants:   map[string][]string{},
		now:      time.Now().UTC(),
	}
}

func (f *fakeStore) Create(_ context.Context, sn, name, typ, digest string) error {
	if _, ok := f.soldiers[sn]; ok {
		return repository.ErrSoldierExists
	}
	f.soldiers[sn] = model.Soldier{SN: sn, Name: name, Type: typ, PasswordDigest: digest, CreatedAt: f.now}
	return nil
}

func (f *fakeStore) Get(_ context.Context, sn string) (model.Soldier, error) {
	s, ok := f.soldiers[sn]
	if !ok {
		return model.Soldier{}, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) GetActive(ctx context.Context, sn string) (model.Soldier, error) {
	s, err := f.Get(ctx, sn)
	if err != nil || s.DeletedAt != nil {
		return model.Soldier{}, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) Search(context.Context, repository.SearchParams) ([]repository.SoldierSummary, error) {
	return nil, nil
}

func (f *fakeStore) SearchCount(context.Context, repository.SearchParams) (int64, error) {
	return 0, nil
}

func (f *fakeStore) SearchUnverified(context.Context) ([]repository.SoldierSummary, error) {
	return nil, nil
}

func (f *fakeStore) Review(_ context.Context, sn string, approve bool) error {
	s, ok := f.soldiers[sn]
	if !ok || s.VerifiedAt != nil || s.RejectedAt != nil {
		return repository.ErrConflict
	}
	ts := f.now
	if approve {
		s.VerifiedAt = &ts
	} else {
		s.RejectedAt = &ts
	}
	f.soldiers[sn] = s
	return nil
}

func (f *fakeStore) SetDeleted(_ context.Context, sn string, deleted bool) error {
	s, ok := f.soldiers[sn]
	if !ok || (deleted && s.DeletedAt != nil) || (!deleted && s.DeletedAt == nil) {
		return repository.ErrConflict
	}
	if deleted {
		ts := f.now
		s.DeletedAt = &ts
	} else {
		s.DeletedAt = nil
	}
	f.soldiers[sn] = s
	return nil
}

func (f *fakeStore) UpdatePassword(_ context.Context, sn, digest string) error {
	s, ok := f.soldiers[sn]
	if !ok {
		return repository.ErrNotFound
	}
	s.PasswordDigest = digest
	f.soldiers[sn] = s
	return nil
}

func (f *fakeStore) ListBySoldier(_ context.Context, sn string) ([]string, error) {
	return append([]string{}, f.grants[sn]...), nil
}

func (f *fakeStore) Insert(_ context.Context, sn string, perms []string) error {
	f.grants[sn] = append(f.grants[sn], perms...)
	return nil
}

func (f *fakeStore) Replace(_ context.Context, sn string, perms []string) error {
	f.grants[sn] = append([]string{}, perms...)
	return nil
}

const handlerTestSecret = "handler-test-secret"

func testCfg() config.Config {
	return config.Config{JWTSecret: handlerTestSecret, AccessTTLMin: 60}
}

// invoke runs one handler against a JSON request, optionally authenticated.
func invoke(t *testing.T, h echo.HandlerFunc, method, body string, caller *utils.Claims) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if caller != nil {
		c.Set(middleware.ClaimsKey, *caller)
	}
	require.NoError(t, h(c))
	return rec
}

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) utils.Claims {
	t.Helper()
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	cl, err := utils.ParseAccessToken(handlerTestSecret, resp.AccessToken)
	require.NoError(t, err)
	return cl
}

func TestSignUpCadreSeedsPointGrants(t *testing.T) {
	store := newFakeStore()
	h := NewAuthHandler(testCfg(), store, store)

	rec := invoke(t, h.SignUp, http.MethodPost,
		`{"sn":"21-70001234","name":"Kim","type":"cadre","password":"hunter22"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	want := []string{permission.GiveMeritPoint, permission.GiveDemeritPoint}
	assert.ElementsMatch(t, want, store.grants["21-70001234"])

	cl := decodeToken(t, rec)
	assert.ElementsMatch(t, want, cl.Scope)
	assert.Nil(t, cl.Verified, "review still pending at sign-up")
}

func TestSignUpEnlistedGetsNoGrants(t *testing.T) {
	store := newFakeStore()
	h := NewAuthHandler(testCfg(), store, store)

	rec := invoke(t, h.SignUp, http.MethodPost,
		`{"sn":"11-12345","name":"Lee","type":"enlisted","password":"hunter22"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, store.grants["11-12345"])
	assert.Empty(t, decodeToken(t, rec).Scope)
}

func TestSignUpDuplicate(t *testing.T) {
	store := newFakeStore()
	h := NewAuthHandler(testCfg(), store, store)

	body := `{"sn":"11-12345","name":"Lee","type":"enlisted","password":"hunter22"}`
	require.Equal(t, http.StatusCreated, invoke(t, h.SignUp, http.MethodPost, body, nil).Code)
	assert.Equal(t, http.StatusConflict, invoke(t, h.SignUp, http.MethodPost, body, nil).Code)
}

func TestSignUpRejectsBadServiceNumber(t *testing.T) {
	store := newFakeStore()
	h := NewAuthHandler(testCfg(), store, store)

	rec := invoke(t, h.SignUp, http.MethodPost,
		`{"sn":"nope","name":"Lee","type":"enlisted","password":"hunter22"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignInInvalidCredentials(t *testing.T) {
	store := newFakeStore()
	digest, err := utils.HashPassword("right-password")
	require.NoError(t, err)

	ts := store.now
	store.soldiers["11-12345"] = model.Soldier{
		SN: "11-12345", Name: "Lee", Type: model.TypeEnlisted,
		PasswordDigest: digest, VerifiedAt: &ts,
	}
	store.soldiers["11-99999"] = model.Soldier{
		SN: "11-99999", Name: "Gone", Type: model.TypeEnlisted,
		PasswordDigest: digest, VerifiedAt: &ts, DeletedAt: &ts,
	}
	h := NewAuthHandler(testCfg(), store, store)

	// unknown soldier, wrong password, and a soft-deleted soldier with the
	// right password all collapse to the same 401
	for _, body := range []string{
		`{"sn":"99-00000","password":"right-password"}`,
		`{"sn":"11-12345","password":"wrong-password"}`,
		`{"sn":"11-99999","password":"right-password"}`,
	} {
		rec := invoke(t, h.SignIn, http.MethodPost, body, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid credentials")
	}
}

func TestSignInIssuesNormalizedVerifiedToken(t *testing.T) {
	store := newFakeStore()
	digest, err := utils.HashPassword("right-password")
	require.NoError(t, err)

	ts := store.now
	store.soldiers["21-70001234"] = model.Soldier{
		SN: "21-70001234", Name: "Kim", Type: model.TypeCadre,
		PasswordDigest: digest, VerifiedAt: &ts,
	}
	store.grants["21-70001234"] = []string{permission.Admin, permission.ListUser, permission.GiveMeritPoint}
	h := NewAuthHandler(testCfg(), store, store)

	rec := invoke(t, h.SignIn, http.MethodPost,
		`{"sn":"21-70001234","password":"right-password"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cl := decodeToken(t, rec)
	assert.Equal(t, []string{permission.Admin}, cl.Scope, "redundant grants collapse under Admin")
	require.NotNil(t, cl.Verified)
	assert.True(t, *cl.Verified)
}
