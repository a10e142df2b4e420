package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/libroteca/library-service/pkg/auth"
	"github.com/libroteca/library-service/pkg/logger"
)

const (
	AuthorizationHeader = "Authorization"
	bearer              = "Bearer "
)

// JwtAuthentication rejects requests without a valid bearer token.
func JwtAuthentication(cfg auth.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := parseToken(c, cfg)
			if err != nil {
				return err
			}
			setIdentity(c, claims)
			return next(c)
		}
	}
}

// OptionalJwtAuthentication authenticates when a token is present and lets
// anonymous requests through. Catalog pages render for both kinds of viewer.
func OptionalJwtAuthentication(cfg auth.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(AuthorizationHeader) == "" {
				return next(c)
			}
			claims, err := parseToken(c, cfg)
			if err != nil {
				return err
			}
			setIdentity(c, claims)
			return next(c)
		}
	}
}

func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := auth.FromContext(c.Request().Context())
		if !ok || !id.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin role required")
		}
		return next(c)
	}
}

func parseToken(c echo.Context, cfg auth.Config) (*auth.Claims, error) {
	authorization := c.Request().Header.Get(AuthorizationHeader)
	if authorization == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "No Authorization Header")
	}
	if !strings.HasPrefix(authorization, bearer) {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization Header")
	}
	tokenStr := strings.TrimPrefix(authorization, bearer)
	claims := new(auth.Claims)

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Key), nil
	})
	if err != nil || !token.Valid {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "JwtAccessDenied")
	}
	if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "TokenExpired")
	}
	return claims, nil
}

func setIdentity(c echo.Context, claims *auth.Claims) {
	req := c.Request()
	ctx := auth.SetAuthContext(req.Context(), auth.Identity{
		UserID: claims.UserID,
		Name:   claims.Name,
		Email:  claims.Email,
		Role:   claims.Role,
	})
	c.SetRequest(req.WithContext(ctx))
}

func NewRateLimiter(rps rate.Limit) echo.MiddlewareFunc {
	return middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rps))
}

func RequestLoggerConfig() middleware.RequestLoggerConfig {
	cfg := logger.Log{LogLevel: zapcore.DebugLevel, Sink: ""}
	log := logger.NewLogger(cfg, "echo")
	c := middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		HandleError:  true,
		LogError:     true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := zapcore.InfoLevel
			if v.Error != nil {
				level = zapcore.ErrorLevel
			}
			log.Log(level, "request",
				zap.String("URI", v.URI),
				zap.String("Method", v.Method),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}
	return c
}
