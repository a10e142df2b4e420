package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/libroteca/library-service/pkg/auth"
	md "github.com/libroteca/library-service/pkg/middleware"
)

var cfg = auth.Config{Key: "test-secret", TTL: time.Hour}

func signToken(t *testing.T, key string, ttl time.Duration, role string) string {
	t.Helper()
	now := time.Now()
	claims := &auth.Claims{
		UserID: 7,
		Name:   "Ann",
		Email:  "ann@example.com",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func echoIdentity(c echo.Context) error {
	id, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusOK, auth.Identity{})
	}
	return c.JSON(http.StatusOK, id)
}

func TestJwtAuthentication(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{
			name:     "ok",
			header:   "Bearer " + signToken(t, cfg.Key, time.Hour, auth.RoleUser),
			wantCode: http.StatusOK,
			wantBody: `"UserID":7`,
		},
		{
			name:     "missing header",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "not a bearer token",
			header:   "Basic abc",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "wrong key",
			header:   "Bearer " + signToken(t, "other-secret", time.Hour, auth.RoleUser),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "expired",
			header:   "Bearer " + signToken(t, cfg.Key, -time.Minute, auth.RoleUser),
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := echo.New()
			e.GET("/whoami", echoIdentity, md.JwtAuthentication(cfg))

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(md.AuthorizationHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				require.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestOptionalJwtAuthentication(t *testing.T) {
	t.Parallel()
	e := echo.New()
	e.GET("/whoami", echoIdentity, md.OptionalJwtAuthentication(cfg))

	// anonymous request passes through with no identity
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"UserID":0`)

	// a present token still has to be valid
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(md.AuthorizationHeader, "Bearer garbage")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminOnly(t *testing.T) {
	t.Parallel()
	e := echo.New()
	e.GET("/admin", echoIdentity, md.JwtAuthentication(cfg), md.AdminOnly)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(md.AuthorizationHeader, "Bearer "+signToken(t, cfg.Key, time.Hour, auth.RoleUser))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(md.AuthorizationHeader, "Bearer "+signToken(t, cfg.Key, time.Hour, auth.RoleAdmin))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
