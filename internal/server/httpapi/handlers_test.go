package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dpavlenko/authd/internal/logging"
	"github.com/dpavlenko/authd/internal/server/auth"
	"github.com/dpavlenko/authd/internal/server/principals"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := principals.NewMemoryRepository()
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	issuer := auth.NewIssuer([]byte("access-secret"), []byte("refresh-secret"), time.Hour, 7*24*time.Hour)
	service := auth.NewService(repo, hasher, issuer)
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	return NewRouter(service, issuer, logger)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body map[string]any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signupAndSignin(t *testing.T, r *gin.Engine) (accessToken, refreshToken string) {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/auth/signup", map[string]any{
		"name": "Alice", "email": "a@x.com", "password": "password1", "phone": "+100",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/auth/signin", map[string]any{
		"email": "a@x.com", "password": "password1",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tokens map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
	require.NotEmpty(t, tokens["access_token"])
	require.NotEmpty(t, tokens["refresh_token"])
	return tokens["access_token"], tokens["refresh_token"]
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestSignup(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/auth/signup", map[string]any{
		"name": "Alice", "email": "a@x.com", "password": "password1",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var profile map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "a@x.com", profile["email"])
	assert.NotEmpty(t, profile["id"])

	body := strings.ToLower(w.Body.String())
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "hash")
}

func TestSignup_Validation(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{name: "missing email", body: map[string]any{"name": "A", "password": "password1"}},
		{name: "bad email", body: map[string]any{"name": "A", "email": "nope", "password": "password1"}},
		{name: "short password", body: map[string]any{"name": "A", "email": "a@x.com", "password": "pw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/auth/signup", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestSignup_Conflict(t *testing.T) {
	r := newTestRouter(t)

	body := map[string]any{"name": "Alice", "email": "a@x.com", "password": "password1"}
	w := doJSON(t, r, http.MethodPost, "/api/auth/signup", body, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/auth/signup", body, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"email"`)
}

func TestSignin_FailuresAreUniform(t *testing.T) {
	r := newTestRouter(t)
	signupAndSignin(t, r)

	wrongPw := doJSON(t, r, http.MethodPost, "/api/auth/signin", map[string]any{
		"email": "a@x.com", "password": "wrong-password",
	}, nil)
	unknown := doJSON(t, r, http.MethodPost, "/api/auth/signin", map[string]any{
		"email": "ghost@x.com", "password": "wrong-password",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrongPw.Body.String(), unknown.Body.String(),
		"wrong password and unknown email must be indistinguishable")
}

func TestRefresh_Rotation(t *testing.T) {
	r := newTestRouter(t)
	_, refresh1 := signupAndSignin(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/auth/refresh", map[string]any{"refresh_token": refresh1}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tokens map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
	refresh2 := tokens["refresh_token"]
	assert.NotEqual(t, refresh1, refresh2)

	// The superseded token is rejected, the fresh one still works.
	w = doJSON(t, r, http.MethodPost, "/api/auth/refresh", map[string]any{"refresh_token": refresh1}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/auth/refresh", map[string]any{"refresh_token": refresh2}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefresh_GarbageToken(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/auth/refresh", map[string]any{"refresh_token": "not.a.jwt"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	r := newTestRouter(t)
	access, refresh := signupAndSignin(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/auth/logout", nil, bearer(access))
	require.Equal(t, http.StatusNoContent, w.Code)

	// Logout is idempotent.
	w = doJSON(t, r, http.MethodPost, "/api/auth/logout", nil, bearer(access))
	require.Equal(t, http.StatusNoContent, w.Code)

	// The refresh token died with the session.
	w = doJSON(t, r, http.MethodPost, "/api/auth/refresh", map[string]any{"refresh_token": refresh}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfile_RequiresToken(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/profile", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/profile", nil, map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/profile", nil, bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfile_RejectsRefreshTokenAsAccess(t *testing.T) {
	r := newTestRouter(t)
	_, refresh := signupAndSignin(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/profile", nil, bearer(refresh))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "refresh token must not pass the access guard")
}

func TestProfile_GetUpdateDelete(t *testing.T) {
	r := newTestRouter(t)
	access, _ := signupAndSignin(t, r)

	w := doJSON(t, r, http.MethodGet, "/api/profile", nil, bearer(access))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var profile map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "Alice", profile["name"])
	body := strings.ToLower(w.Body.String())
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "hash")

	w = doJSON(t, r, http.MethodPatch, "/api/profile", map[string]any{"name": "Alice B."}, bearer(access))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "Alice B.", profile["name"])
	assert.Equal(t, "+100", profile["phone"], "unset fields keep their values")

	w = doJSON(t, r, http.MethodDelete, "/api/profile", nil, bearer(access))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/profile", nil, bearer(access))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
