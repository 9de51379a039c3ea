package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/brightpath-lms/assess/internal/rbac"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewAuthService("test-secret")
	tok, err := svc.IssueJWT("lena", "learner")
	require.NoError(t, err)

	claims, err := svc.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "lena", claims.Sub)
	assert.Equal(t, "learner", claims.Role)

	_, err = NewAuthService("other-secret").Parse(tok)
	assert.Error(t, err, "wrong secret must not verify")
}

func TestLoginHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := NewAuthService("test-secret")
	creds := ParseCredentials([]string{"lena:learner:" + string(hash), "malformed-entry"})
	require.Len(t, creds, 1)

	do := func(user, pass string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{"username": user, "password": pass})
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
		w := httptest.NewRecorder()
		LoginHandler(svc, creds)(w, req)
		return w
	}

	w := do("lena", "s3cret")
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	claims, err := svc.Parse(resp["access_token"])
	require.NoError(t, err)
	assert.Equal(t, "lena", claims.Sub)

	assert.Equal(t, http.StatusUnauthorized, do("lena", "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, do("nobody", "s3cret").Code)
}

func TestJWTMiddleware(t *testing.T) {
	svc := NewAuthService("test-secret")
	tok, err := svc.IssueJWT("lena", "learner")
	require.NoError(t, err)

	var gotSub, gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSub = rbac.SubjectFromContext(r.Context())
		gotRole = rbac.RoleFromContext(r.Context())
	})
	h := JWTMiddleware(svc)(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lena", gotSub)
	assert.Equal(t, "learner", gotRole)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
