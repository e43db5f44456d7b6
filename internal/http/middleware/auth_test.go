package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakpoint-health/clinic-ops/internal/auth"
)

const testSecret = "test-secret"

func signToken(t *testing.T, subject, role, secret string) string {
	t.Helper()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthContextInjectsActor(t *testing.T) {
	userID := uuid.New()
	var got auth.Actor
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = ActorFromContext(r.Context())
	})

	rr := httptest.NewRecorder()
	AuthContext(testSecret)(next).ServeHTTP(rr, authRequest(signToken(t, userID.String(), "receptionist", testSecret)))

	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, ok)
	assert.Equal(t, userID, got.ID)
	assert.Equal(t, auth.RoleReceptionist, got.Role)
}

func TestAuthContextRejectsMissingHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})
	AuthContext(testSecret)(next).ServeHTTP(rr, authRequest(""))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthContextRejectsWrongSecret(t *testing.T) {
	rr := httptest.NewRecorder()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})
	token := signToken(t, uuid.NewString(), "admin", "other-secret")
	AuthContext(testSecret)(next).ServeHTTP(rr, authRequest(token))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthContextRejectsExpiredToken(t *testing.T) {
	claims := &Claims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})
	AuthContext(testSecret)(next).ServeHTTP(rr, authRequest(token))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthContextRejectsUnknownRole(t *testing.T) {
	rr := httptest.NewRecorder()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})
	token := signToken(t, uuid.NewString(), "superuser", testSecret)
	AuthContext(testSecret)(next).ServeHTTP(rr, authRequest(token))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthContextRejectsBadSubject(t *testing.T) {
	rr := httptest.NewRecorder()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})
	token := signToken(t, "not-a-uuid", "admin", testSecret)
	AuthContext(testSecret)(next).ServeHTTP(rr, authRequest(token))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthContextDisabledWithoutSecret(t *testing.T) {
	rr := httptest.NewRecorder()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})
	token := signToken(t, uuid.NewString(), "admin", testSecret)
	AuthContext("")(next).ServeHTTP(rr, authRequest(token))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
