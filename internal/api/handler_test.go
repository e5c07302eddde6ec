package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundtrack/internal/db"
	"fundtrack/internal/db/repository"
	"fundtrack/internal/directory"
	"fundtrack/internal/domain"
	"fundtrack/internal/service"
)

// testServer wires the real service stack behind the HTTP handler, with a
// header-based identity middleware standing in for JWT auth.
type testServer struct {
	router *chi.Mux
	users  *repository.UserRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	writeDB, _ := db.OpenTestSQLite(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := repository.NewUserRepo(writeDB)
	centres := repository.NewCentreRepo(writeDB)
	records := repository.NewAccessRecordRepo(writeDB)
	items := repository.NewFundingItemRepo(writeDB)

	dir := directory.NewStaticValidator(map[string]string{"dora": "Dora Directory"})

	access := service.NewAccessService(centres, users, records)
	permissions := service.NewPermissionService(centres, users, records, access, dir, logger)
	centreSvc := service.NewCentreService(centres, users, access, logger)
	funding := service.NewFundingItemService(items, users, access, logger)

	h := NewHandler(centreSvc, permissions, access, funding, logger)

	r := chi.NewRouter()
	r.Use(testIdentity)
	h.Routes(r)

	return &testServer{router: r, users: users}
}

// testIdentity reads the acting identity from the X-Test-User header.
func testIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := domain.ContextIdentity{Username: r.Header.Get("X-Test-User")}
		next.ServeHTTP(w, r.WithContext(domain.WithIdentity(r.Context(), id)))
	})
}

func (s *testServer) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Test-User", user)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst))
}

func (s *testServer) createUser(t *testing.T, username string) *domain.User {
	t.Helper()
	u, err := s.users.Create(context.Background(), &domain.User{Username: username})
	require.NoError(t, err)
	return u
}

func TestCentreEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "alice")

	rr := s.do(t, http.MethodPost, "/centres/", "alice", map[string]string{"name": "Engineering"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created centreBody
	decodeResponse(t, rr, &created)
	assert.Equal(t, "Engineering", created.Name)
	assert.NotEmpty(t, created.ID)

	t.Run("get_as_owner", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/centres/"+created.ID+"/", "alice", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("get_as_stranger", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/centres/"+created.ID+"/", "mallory", nil)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("get_missing", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/centres/nope/", "alice", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("malformed_body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/centres/", bytes.NewBufferString("{"))
		req.Header.Set("X-Test-User", "alice")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("effective_access", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/centres/"+created.ID+"/access", "alice", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var body map[string]any
		decodeResponse(t, rr, &body)
		assert.Equal(t, true, body["has_access"])
		assert.Equal(t, domain.LevelOwner, body["access_level"])
	})
}

func TestPermissionEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "alice")
	s.createUser(t, "bob")

	rr := s.do(t, http.MethodPost, "/centres/", "alice", map[string]string{"name": "Engineering"})
	require.Equal(t, http.StatusCreated, rr.Code)
	var centre centreBody
	decodeResponse(t, rr, &centre)
	base := "/centres/" + centre.ID

	grantBody := map[string]string{"principal_identifier": "bob", "access_level": domain.LevelReadWrite}

	rr = s.do(t, http.MethodPost, base+"/permissions/users", "alice", grantBody)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var granted accessRecordBody
	decodeResponse(t, rr, &granted)
	assert.Equal(t, domain.LevelReadWrite, granted.AccessLevel)

	t.Run("duplicate_grant_conflicts", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, base+"/permissions/users", "alice", grantBody)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("unknown_identifier_rejected", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, base+"/permissions/users", "alice",
			map[string]string{"principal_identifier": "ghost", "access_level": domain.LevelReadOnly})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("non_owner_cannot_grant", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, base+"/permissions/users", "bob",
			map[string]string{"principal_identifier": "dora", "access_level": domain.LevelReadOnly})
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("group_grant", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, base+"/permissions/groups", "alice", map[string]string{
			"principal_identifier":   "CN=Finance",
			"principal_display_name": "Finance Team",
			"principal_type":         domain.PrincipalGroup,
			"access_level":           domain.LevelReadOnly,
		})
		assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	})

	t.Run("list_includes_implicit_owner", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, base+"/permissions", "alice", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			Data []accessRecordBody `json:"data"`
		}
		decodeResponse(t, rr, &body)
		require.NotEmpty(t, body.Data)
		assert.True(t, body.Data[0].Implicit)
		assert.Equal(t, domain.LevelOwner, body.Data[0].AccessLevel)
	})

	t.Run("update_and_revoke", func(t *testing.T) {
		rr := s.do(t, http.MethodPatch, "/permissions/"+granted.ID+"/", "alice",
			map[string]string{"access_level": domain.LevelReadOnly})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var updated accessRecordBody
		decodeResponse(t, rr, &updated)
		assert.Equal(t, domain.LevelReadOnly, updated.AccessLevel)
		assert.Equal(t, granted.Version+1, updated.Version)

		rr = s.do(t, http.MethodDelete, "/permissions/"+granted.ID+"/", "alice", nil)
		assert.Equal(t, http.StatusNoContent, rr.Code)

		rr = s.do(t, http.MethodDelete, "/permissions/"+granted.ID+"/", "alice", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestFundingItemEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "alice")

	rr := s.do(t, http.MethodPost, "/centres/", "alice", map[string]string{"name": "Engineering"})
	require.Equal(t, http.StatusCreated, rr.Code)
	var centre centreBody
	decodeResponse(t, rr, &centre)

	rr = s.do(t, http.MethodPost, "/centres/"+centre.ID+"/funding-items", "alice", map[string]any{
		"fiscal_year":  2026,
		"description":  "Laptops",
		"amount_cents": 250000,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var item fundingItemBody
	decodeResponse(t, rr, &item)

	rr = s.do(t, http.MethodGet, "/centres/"+centre.ID+"/funding-items", "alice", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, http.MethodPatch, "/funding-items/"+item.ID+"/", "alice", map[string]any{
		"description":  "Laptops (refresh)",
		"amount_cents": 300000,
		"version":      item.Version,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Stale version maps to 409.
	rr = s.do(t, http.MethodPatch, "/funding-items/"+item.ID+"/", "alice", map[string]any{
		"description":  "Stale",
		"amount_cents": 1,
		"version":      item.Version,
	})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = s.do(t, http.MethodDelete, "/funding-items/"+item.ID+"/", "alice", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}
