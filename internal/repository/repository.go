package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/libroteca/library-service/internal/errs"
	"github.com/libroteca/library-service/internal/model"
)

//go:generate go run github.com/golang/mock/mockgen -destination=mocks/mock.go -package=mocks github.com/libroteca/library-service/internal/repository UserRepository,CatalogRepository,ReservationRepository

type UserRepository interface {
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	UserByEmail(ctx context.Context, email string) (model.User, error)
	User(ctx context.Context, id int) (model.User, error)
}

type CatalogRepository interface {
	ListBooks(ctx context.Context, f model.BookFilter) (model.ListBooks, error)
	Book(ctx context.Context, id int) (model.Book, error)
	CreateBook(ctx context.Context, req model.BookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, id int, req model.BookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, id int) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	Category(ctx context.Context, id int) (model.Category, error)
	CreateCategory(ctx context.Context, name string) (model.Category, error)
	UpdateCategory(ctx context.Context, id int, name string) (model.Category, error)
	DeleteCategory(ctx context.Context, id int) error
}

type ReservationRepository interface {
	CreateReservation(ctx context.Context, userID, bookID int) (model.Reservation, error)
	CancelReservation(ctx context.Context, actorID, reservationID int, asAdmin bool) (model.Reservation, error)
	HasActiveReservation(ctx context.Context, userID, bookID int) (bool, error)
	ActiveReservations(ctx context.Context, userID int, bookIDs []int) (map[int]int, error)
	ListUserReservations(ctx context.Context, userID, page, size int) (model.ListReservations, error)
	ListReservations(ctx context.Context, onlyActive bool, page, size int) (model.ListReservations, error)
}

type Repository interface {
	UserRepository
	CatalogRepository
	ReservationRepository
}

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

var _ Repository = (*repository)(nil)

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	usersTableName        = `users`
	categoriesTableName   = `categories`
	booksTableName        = `books`
	reservationsTableName = `reservations`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}

// withTx runs fn inside a transaction; any error rolls the whole thing back.
func (r *repository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// classify maps retryable postgres failures onto ErrStoreTransient so
// callers can distinguish them from business outcomes.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable, pgerrcode.SerializationFailure:
			return fmt.Errorf("%w: %v", errs.ErrStoreTransient, err)
		}
	}
	return err
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		(constraint == "" || pgErr.ConstraintName == constraint)
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
