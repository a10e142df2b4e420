package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/libroteca/library-service/internal/errs"
	"github.com/libroteca/library-service/internal/model"
	"github.com/libroteca/library-service/internal/repository"
	"github.com/libroteca/library-service/pkg/auth"
)

type AuthService struct {
	log  *zap.Logger
	repo repository.UserRepository
	cfg  auth.Config
}

func NewAuthService(repo repository.UserRepository, cfg auth.Config, log *zap.Logger) *AuthService {
	return &AuthService{
		log:  log,
		repo: repo,
		cfg:  cfg,
	}
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.AuthResponse{}, errors.Wrap(err, "hash password")
	}
	user, err := s.repo.CreateUser(ctx, model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         auth.RoleUser,
	})
	if err != nil {
		return model.AuthResponse{}, err
	}
	token, err := s.issueToken(user)
	if err != nil {
		return model.AuthResponse{}, err
	}
	s.log.Info("user registered", zap.Int("user_id", user.ID))
	return model.AuthResponse{Token: token, User: user}, nil
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	user, err := s.repo.UserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			return model.AuthResponse{}, errs.ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return model.AuthResponse{}, errs.ErrInvalidCredentials
	}
	token, err := s.issueToken(user)
	if err != nil {
		return model.AuthResponse{}, err
	}
	return model.AuthResponse{Token: token, User: user}, nil
}

func (s *AuthService) User(ctx context.Context, id int) (model.User, error) {
	return s.repo.User(ctx, id)
}

func (s *AuthService) issueToken(user model.User) (string, error) {
	now := time.Now()
	claims := &auth.Claims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Key))
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}
