package handler

import (
	"context"

	"github.com/libroteca/library-service/internal/model"
	"github.com/libroteca/library-service/internal/service"
	"github.com/libroteca/library-service/pkg/auth"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error)
	Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error)
	User(ctx context.Context, id int) (model.User, error)
}

type CatalogService interface {
	ListBooks(ctx context.Context, viewerID int, f model.BookFilter) (model.ListBooks, error)
	Book(ctx context.Context, viewerID, id int) (model.Book, error)
	CreateBook(ctx context.Context, req model.BookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, id int, req model.BookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id int) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	Category(ctx context.Context, id int) (model.Category, error)
	CreateCategory(ctx context.Context, req model.CategoryRequest) (model.Category, error)
	UpdateCategory(ctx context.Context, id int, req model.CategoryRequest) (model.Category, error)
	DeleteCategory(ctx context.Context, id int) error
}

type ReservationService interface {
	CreateReservation(ctx context.Context, userID, bookID int) (model.Reservation, error)
	CancelReservation(ctx context.Context, actor auth.Identity, reservationID int, asAdmin bool) (model.Reservation, error)
	MyReservations(ctx context.Context, userID, page, size int) (model.ListReservations, error)
	AllReservations(ctx context.Context, onlyActive bool, page, size int) (model.ListReservations, error)
}

var (
	_ AuthService        = (*service.AuthService)(nil)
	_ CatalogService     = (*service.CatalogService)(nil)
	_ ReservationService = (*service.ReservationService)(nil)
)
