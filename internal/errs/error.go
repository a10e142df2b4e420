package errs

import (
	"errors"
)

var (
	ErrDuplicateReservation = errors.New("active reservation for this book already exists")
	ErrBookNotFound         = errors.New("book not found")
	ErrOutOfStock           = errors.New("no available copies to reserve")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrForbidden            = errors.New("not allowed")

	ErrCategoryNotFound   = errors.New("category not found")
	ErrCategoryExists     = errors.New("category already exists")
	ErrCategoryInUse      = errors.New("category is referenced by books")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrStoreTransient marks deadlocks and lock-wait timeouts; the whole
	// operation is safe to retry.
	ErrStoreTransient = errors.New("transient store error")
)
