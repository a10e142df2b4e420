package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/libroteca/library-service/internal/errs"
	service_mocks "github.com/libroteca/library-service/internal/handler/mocks"
	"github.com/libroteca/library-service/internal/model"
	"github.com/libroteca/library-service/pkg/auth"
	"github.com/libroteca/library-service/pkg/validate"
)

func TestHandler_Register(t *testing.T) {
	t.Parallel()

	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockAuthService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"name":"Ana","email":"ana@example.com","password":"sup3rsecret"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					Register(gomock.Any(), model.RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "sup3rsecret"}).
					Return(model.AuthResponse{
						Token: "signed-token",
						User:  model.User{ID: 7, Name: "Ana", Email: "ana@example.com", Role: auth.RoleUser},
					}, nil)
			},
			response: response{expectedCode: http.StatusCreated},
		},
		{
			name: "err. email taken",
			body: `{"name":"Ana","email":"ana@example.com","password":"sup3rsecret"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					Register(gomock.Any(), gomock.Any()).
					Return(model.AuthResponse{}, errs.ErrEmailTaken)
			},
			response: response{
				expectedCode: http.StatusUnprocessableEntity,
				expectedBody: `{"message":"email already registered"}`,
			},
		},
		{
			name:         "err. short password",
			body:         `{"name":"Ana","email":"ana@example.com","password":"short"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {},
			response:     response{expectedCode: http.StatusBadRequest},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, authSvc, _, _ := newTestHandler(t)
			tt.mockBehavior(authSvc)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/api/v1/auth/register", h.Register)

			r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
			if w.Code == http.StatusCreated {
				var resp model.AuthResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				require.NotEmpty(t, resp.Token)
				require.Equal(t, auth.RoleUser, resp.User.Role)
			}
		})
	}
}

func TestHandler_Login(t *testing.T) {
	t.Parallel()

	h, authSvc, _, _ := newTestHandler(t)
	authSvc.EXPECT().
		Login(gomock.Any(), model.LoginRequest{Email: "ana@example.com", Password: "wrong-password"}).
		Return(model.AuthResponse{}, errs.ErrInvalidCredentials)

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	e.POST("/api/v1/auth/login", h.Login)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"email":"ana@example.com","password":"wrong-password"}`))
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, `{"message":"invalid credentials"}`, strings.Trim(w.Body.String(), "\n"))
}

func TestHandler_CurrentUser(t *testing.T) {
	t.Parallel()

	h, authSvc, _, _ := newTestHandler(t)
	authSvc.EXPECT().
		User(gomock.Any(), 7).
		Return(model.User{ID: 7, Name: "Ana", Email: "ana@example.com", Role: auth.RoleUser}, nil)

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	e.GET("/api/v1/auth/user", h.CurrentUser, withIdentity(auth.Identity{UserID: 7, Role: auth.RoleUser}))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/auth/user", http.NoBody)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var user model.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	require.Equal(t, "ana@example.com", user.Email)
}
