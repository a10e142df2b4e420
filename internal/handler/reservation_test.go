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
	"go.uber.org/zap"

	"github.com/libroteca/library-service/internal/errs"
	"github.com/libroteca/library-service/internal/handler"
	service_mocks "github.com/libroteca/library-service/internal/handler/mocks"
	"github.com/libroteca/library-service/internal/model"
	"github.com/libroteca/library-service/pkg/auth"
	"github.com/libroteca/library-service/pkg/validate"
)

func withIdentity(id auth.Identity) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(auth.SetAuthContext(req.Context(), id)))
			return next(c)
		}
	}
}

func newTestHandler(t *testing.T) (*handler.Handler, *service_mocks.MockAuthService, *service_mocks.MockCatalogService, *service_mocks.MockReservationService) {
	t.Helper()
	c := gomock.NewController(t)
	t.Cleanup(c.Finish)
	authSvc := service_mocks.NewMockAuthService(c)
	catalogSvc := service_mocks.NewMockCatalogService(c)
	reservationSvc := service_mocks.NewMockReservationService(c)
	log := zap.NewExample().Named("test")
	return handler.New(authSvc, catalogSvc, reservationSvc, log), authSvc, catalogSvc, reservationSvc
}

func TestHandler_CreateReservation(t *testing.T) {
	t.Parallel()
	actor := auth.Identity{UserID: 7, Role: auth.RoleUser}

	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockReservationService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"bookId":3}`,
			mockBehavior: func(r *service_mocks.MockReservationService) {
				r.EXPECT().
					CreateReservation(gomock.Any(), 7, 3).
					Return(model.Reservation{ID: 11, UserID: 7, BookID: 3, Status: model.StatusActive}, nil)
			},
			response: response{expectedCode: http.StatusCreated},
		},
		{
			name: "err. duplicate active reservation",
			body: `{"bookId":3}`,
			mockBehavior: func(r *service_mocks.MockReservationService) {
				r.EXPECT().
					CreateReservation(gomock.Any(), 7, 3).
					Return(model.Reservation{}, errs.ErrDuplicateReservation)
			},
			response: response{
				expectedCode: http.StatusUnprocessableEntity,
				expectedBody: `{"message":"active reservation for this book already exists"}`,
			},
		},
		{
			name: "err. book not found",
			body: `{"bookId":404}`,
			mockBehavior: func(r *service_mocks.MockReservationService) {
				r.EXPECT().
					CreateReservation(gomock.Any(), 7, 404).
					Return(model.Reservation{}, errs.ErrBookNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"book not found"}`,
			},
		},
		{
			name: "err. out of stock",
			body: `{"bookId":3}`,
			mockBehavior: func(r *service_mocks.MockReservationService) {
				r.EXPECT().
					CreateReservation(gomock.Any(), 7, 3).
					Return(model.Reservation{}, errs.ErrOutOfStock)
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"no available copies to reserve"}`,
			},
		},
		{
			name:         "err. missing bookId",
			body:         `{}`,
			mockBehavior: func(r *service_mocks.MockReservationService) {},
			response:     response{expectedCode: http.StatusBadRequest},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, _, _, reservationSvc := newTestHandler(t)
			tt.mockBehavior(reservationSvc)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/api/v1/reservations", h.CreateReservation, withIdentity(actor))

			r := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
			if w.Code == http.StatusCreated {
				var res model.Reservation
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
				require.Equal(t, 11, res.ID)
				require.Equal(t, model.StatusActive, res.Status)
			}
		})
	}
}

func TestHandler_CancelReservation(t *testing.T) {
	t.Parallel()
	owner := auth.Identity{UserID: 7, Role: auth.RoleUser}

	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockReservationService)

	var tests = []struct {
		name         string
		target       string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name:   "ok",
			target: "/api/v1/reservations/11/cancel",
			mockBehavior: func(r *service_mocks.MockReservationService) {
				r.EXPECT().
					CancelReservation(gomock.Any(), owner, 11, false).
					Return(model.Reservation{ID: 11, UserID: 7, BookID: 3, Status: model.StatusCancelled}, nil)
			},
			response: response{expectedCode: http.StatusOK},
		},
		{
			name:   "ok. cancel of already cancelled is a no-op",
			target: "/api/v1/reservations/11/cancel",
			mockBehavior: func(r *service_mocks.MockReservationService) {
				r.EXPECT().
					CancelReservation(gomock.Any(), owner, 11, false).
					Return(model.Reservation{ID: 11, UserID: 7, BookID: 3, Status: model.StatusCancelled}, nil)
			},
			response: response{expectedCode: http.StatusOK},
		},
		{
			name:   "err. not the owner",
			target: "/api/v1/reservations/12/cancel",
			mockBehavior: func(r *service_mocks.MockReservationService) {
				r.EXPECT().
					CancelReservation(gomock.Any(), owner, 12, false).
					Return(model.Reservation{}, errs.ErrForbidden)
			},
			response: response{
				expectedCode: http.StatusForbidden,
				expectedBody: `{"message":"not allowed"}`,
			},
		},
		{
			name:   "err. reservation not found",
			target: "/api/v1/reservations/404/cancel",
			mockBehavior: func(r *service_mocks.MockReservationService) {
				r.EXPECT().
					CancelReservation(gomock.Any(), owner, 404, false).
					Return(model.Reservation{}, errs.ErrReservationNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"reservation not found"}`,
			},
		},
		{
			name:         "err. invalid id",
			target:       "/api/v1/reservations/abc/cancel",
			mockBehavior: func(r *service_mocks.MockReservationService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"invalid id"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, _, _, reservationSvc := newTestHandler(t)
			tt.mockBehavior(reservationSvc)

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.PATCH("/api/v1/reservations/:id/cancel", h.CancelReservation, withIdentity(owner))

			r := httptest.NewRequest(http.MethodPatch, tt.target, http.NoBody)
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

func TestHandler_AdminReservations(t *testing.T) {
	t.Parallel()
	admin := auth.Identity{UserID: 1, Role: auth.RoleAdmin}

	h, _, _, reservationSvc := newTestHandler(t)
	reservationSvc.EXPECT().
		AllReservations(gomock.Any(), true, 2, 10).
		Return(model.ListReservations{
			Paging: model.Paging{Page: 2, PageSize: 10, TotalElements: 21},
			Items:  []model.Reservation{{ID: 31, UserID: 7, BookID: 3, Status: model.StatusActive}},
		}, nil)

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	e.GET("/api/v1/admin/reservations", h.AdminReservations, withIdentity(admin))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/admin/reservations?onlyActive=true&page=2&size=10", http.NoBody)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var list model.ListReservations
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 21, list.TotalElements)
	require.Len(t, list.Items, 1)
	require.Equal(t, 31, list.Items[0].ID)
}

func TestHandler_MyReservations(t *testing.T) {
	t.Parallel()
	actor := auth.Identity{UserID: 7, Role: auth.RoleUser}

	h, _, _, reservationSvc := newTestHandler(t)
	reservationSvc.EXPECT().
		MyReservations(gomock.Any(), 7, 1, 10).
		Return(model.ListReservations{
			Paging: model.Paging{Page: 1, PageSize: 10, TotalElements: 1},
			Items:  []model.Reservation{{ID: 11, UserID: 7, BookID: 3, Status: model.StatusActive}},
		}, nil)

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	e.GET("/api/v1/reservations/me", h.MyReservations, withIdentity(actor))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/me", http.NoBody)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var list model.ListReservations
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.TotalElements)
}
