package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/libroteca/library-service/internal/errs"
	"github.com/libroteca/library-service/pkg/auth"
	md "github.com/libroteca/library-service/pkg/middleware"
	"github.com/libroteca/library-service/pkg/validate"
)

const defaultPageSize = 10

type Handler struct {
	authSvc        AuthService
	catalogSvc     CatalogService
	reservationSvc ReservationService
	log            *zap.Logger
}

func New(authSvc AuthService, catalogSvc CatalogService, reservationSvc ReservationService, log *zap.Logger) *Handler {
	return &Handler{
		authSvc:        authSvc,
		catalogSvc:     catalogSvc,
		reservationSvc: reservationSvc,
		log:            log,
	}
}

func (h *Handler) NewRouter(jwtCfg auth.Config) *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	authRequired := md.JwtAuthentication(jwtCfg)
	authOptional := md.OptionalJwtAuthentication(jwtCfg)

	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.GET("/auth/user", h.CurrentUser, authRequired)

	api.GET("/categories", h.GetCategories)
	api.GET("/categories/:id", h.GetCategory)
	api.POST("/categories", h.CreateCategory, authRequired, md.AdminOnly)
	api.PUT("/categories/:id", h.UpdateCategory, authRequired, md.AdminOnly)
	api.DELETE("/categories/:id", h.DeleteCategory, authRequired, md.AdminOnly)

	api.GET("/books", h.GetBooks, authOptional)
	api.GET("/books/:id", h.GetBook, authOptional)
	api.POST("/books", h.CreateBook, authRequired, md.AdminOnly)
	api.PUT("/books/:id", h.UpdateBook, authRequired, md.AdminOnly)
	api.DELETE("/books/:id", h.DeleteBook, authRequired, md.AdminOnly)

	api.POST("/reservations", h.CreateReservation, authRequired)
	api.GET("/reservations/me", h.MyReservations, authRequired)
	api.PATCH("/reservations/:id/cancel", h.CancelReservation, authRequired)

	admin := api.Group("/admin", authRequired, md.AdminOnly)
	admin.GET("/reservations", h.AdminReservations)
	admin.PATCH("/reservations/:id/cancel", h.AdminCancelReservation)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError maps expected business outcomes onto status codes. Anything
// else is logged and surfaced as a generic 500 so store internals never
// reach the client.
func (h *Handler) httpError(err error) error {
	switch {
	case errors.Is(err, errs.ErrBookNotFound),
		errors.Is(err, errs.ErrReservationNotFound),
		errors.Is(err, errs.ErrCategoryNotFound),
		errors.Is(err, errs.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrDuplicateReservation),
		errors.Is(err, errs.ErrEmailTaken),
		errors.Is(err, errs.ErrCategoryExists):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errs.ErrOutOfStock),
		errors.Is(err, errs.ErrCategoryInUse):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, errs.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	h.log.Error("internal", zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func identity(c echo.Context) (auth.Identity, error) {
	id, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return auth.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return id, nil
}

func pathID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func paging(c echo.Context) (page, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}
	size, _ = strconv.Atoi(c.QueryParam("size"))
	if size <= 0 || size > 100 {
		size = defaultPageSize
	}
	return page, size
}
