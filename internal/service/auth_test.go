package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/libroteca/library-service/internal/errs"
	"github.com/libroteca/library-service/internal/model"
	repo_mocks "github.com/libroteca/library-service/internal/repository/mocks"
	"github.com/libroteca/library-service/internal/service"
	"github.com/libroteca/library-service/pkg/auth"
)

var jwtCfg = auth.Config{Key: "test-secret", TTL: time.Hour}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()

	repo := repo_mocks.NewMockUserRepository(c)
	repo.EXPECT().
		CreateUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u model.User) (model.User, error) {
			require.Equal(t, "ann@example.com", u.Email)
			require.Equal(t, auth.RoleUser, u.Role)
			require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret-pass")))
			u.ID = 7
			return u, nil
		})

	svc := service.NewAuthService(repo, jwtCfg, zap.NewNop())
	resp, err := svc.Register(context.Background(), model.RegisterRequest{
		Name:     "Ann",
		Email:    "ann@example.com",
		Password: "secret-pass",
	})
	require.NoError(t, err)
	require.Equal(t, 7, resp.User.ID)

	claims := &auth.Claims{}
	_, err = jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(jwtCfg.Key), nil
	})
	require.NoError(t, err)
	require.Equal(t, 7, claims.UserID)
	require.Equal(t, auth.RoleUser, claims.Role)
	require.NotEmpty(t, claims.ID)
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := model.User{
		ID:           7,
		Name:         "Ann",
		Email:        "ann@example.com",
		PasswordHash: string(hash),
		Role:         auth.RoleUser,
	}

	tests := []struct {
		name     string
		email    string
		password string
		mock     func(repo *repo_mocks.MockUserRepository)
		wantErr  error
	}{
		{
			name:     "ok",
			email:    "ann@example.com",
			password: "secret-pass",
			mock: func(repo *repo_mocks.MockUserRepository) {
				repo.EXPECT().UserByEmail(gomock.Any(), "ann@example.com").Return(stored, nil)
			},
		},
		{
			name:     "wrong password",
			email:    "ann@example.com",
			password: "not-the-pass",
			mock: func(repo *repo_mocks.MockUserRepository) {
				repo.EXPECT().UserByEmail(gomock.Any(), "ann@example.com").Return(stored, nil)
			},
			wantErr: errs.ErrInvalidCredentials,
		},
		{
			name:     "unknown email",
			email:    "ghost@example.com",
			password: "secret-pass",
			mock: func(repo *repo_mocks.MockUserRepository) {
				repo.EXPECT().UserByEmail(gomock.Any(), "ghost@example.com").
					Return(model.User{}, errs.ErrUserNotFound)
			},
			wantErr: errs.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()

			repo := repo_mocks.NewMockUserRepository(c)
			tt.mock(repo)

			svc := service.NewAuthService(repo, jwtCfg, zap.NewNop())
			resp, err := svc.Login(context.Background(), model.LoginRequest{
				Email:    tt.email,
				Password: tt.password,
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, resp.Token)
			require.Equal(t, stored.ID, resp.User.ID)
		})
	}
}
