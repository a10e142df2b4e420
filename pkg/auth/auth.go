package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type Config struct {
	Key string        `yaml:"key" envconfig:"JWT_KEY" required:"true"`
	TTL time.Duration `yaml:"ttl" envconfig:"JWT_TTL" default:"24h"`
}

// Claims is the payload carried by every issued token.
type Claims struct {
	UserID int    `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the authenticated actor, passed explicitly through context
// into every operation instead of being looked up from global state.
type Identity struct {
	UserID int
	Name   string
	Email  string
	Role   string
}

func (id Identity) IsAdmin() bool {
	return id.Role == RoleAdmin
}

type contextKey int

const identityKey contextKey = iota + 1

func SetAuthContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
