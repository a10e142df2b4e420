package model

import (
	"time"
)

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type Category struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Book struct {
	ID              int       `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Author          string    `json:"author" db:"author"`
	Publisher       *string   `json:"publisher" db:"publisher"`
	Pages           *int      `json:"pages" db:"pages"`
	Synopsis        *string   `json:"synopsis" db:"synopsis"`
	CoverURL        *string   `json:"coverUrl" db:"cover_url"`
	CategoryID      int       `json:"categoryId" db:"category_id"`
	TotalCopies     int       `json:"totalCopies" db:"total_copies"`
	AvailableCopies int       `json:"availableCopies" db:"available_copies"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`

	Category *Category `json:"category,omitempty" db:"-"`

	// viewer-specific fields, filled in for an authenticated catalog request
	IsReservedByMe        bool `json:"isReservedByMe" db:"-"`
	MyActiveReservationID *int `json:"myActiveReservationId" db:"-"`
}

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	// StatusReturned is representable in the store but no operation
	// produces it yet.
	StatusReturned Status = "returned"
)

type Reservation struct {
	ID         int        `json:"id" db:"id"`
	UserID     int        `json:"userId" db:"user_id"`
	BookID     int        `json:"bookId" db:"book_id"`
	Status     Status     `json:"status" db:"status"`
	ReservedAt time.Time  `json:"reservedAt" db:"reserved_at"`
	ExpiresAt  *time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`

	Book *Book `json:"book,omitempty" db:"-"`
	User *User `json:"user,omitempty" db:"-"`
}

type User struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type CreateReservationRequest struct {
	BookID int `json:"bookId" validate:"required,gt=0"`
}

type BookRequest struct {
	Title       string  `json:"title" validate:"required,min=2,max=200"`
	Author      string  `json:"author" validate:"required,min=2,max=150"`
	Publisher   *string `json:"publisher" validate:"omitempty,max=150"`
	Pages       *int    `json:"pages" validate:"omitempty,min=1,max=5000"`
	Synopsis    *string `json:"synopsis" validate:"omitempty,max=5000"`
	CoverURL    *string `json:"coverUrl" validate:"omitempty,url,max=500"`
	CategoryID  int     `json:"categoryId" validate:"required,gt=0"`
	TotalCopies int     `json:"totalCopies" validate:"min=0,max=100000"`
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

type BookFilter struct {
	Search     string
	CategoryID int
	Page       int
	Size       int
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

type ListReservations struct {
	Paging `json:",inline"`
	Items  []Reservation `json:"items"`
}
