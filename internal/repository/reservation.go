package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/libroteca/library-service/internal/errs"
	"github.com/libroteca/library-service/internal/model"
)

const uqReservationsActive = "uq_reservations_active"

var reservationColumns = []string{
	"id", "user_id", "book_id", "status", "reserved_at", "expires_at", "created_at", "updated_at",
}

// CreateReservation holds one copy of a book for a user. The conditional
// decrement is the synchronization point: two requests racing for the last
// copy serialize on the row update and exactly one sees an affected row.
// The reservation insert and the decrement commit or roll back together.
func (r *repository) CreateReservation(ctx context.Context, userID, bookID int) (model.Reservation, error) {
	var res model.Reservation
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		q := fmt.Sprintf(`update %s
	set available_copies = available_copies - 1, updated_at = now()
	where id = $1 and available_copies > 0`, booksTableName)
		execRes, err := tx.ExecContext(ctx, q, bookID)
		if err != nil {
			return err
		}
		affected, err := execRes.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			var exists bool
			q := fmt.Sprintf(`select exists(select 1 from %s where id = $1)`, booksTableName)
			if err := tx.GetContext(ctx, &exists, q, bookID); err != nil {
				return err
			}
			if !exists {
				return errs.ErrBookNotFound
			}
			return errs.ErrOutOfStock
		}

		q, args, err := qb.Insert(reservationsTableName).
			Columns("user_id", "book_id", "status", "reserved_at").
			Values(userID, bookID, model.StatusActive, time.Now().UTC()).
			Suffix("returning *").
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &res, q, args...); err != nil {
			return err
		}
		return r.attachBookTx(ctx, tx, &res)
	})
	if err != nil {
		if isUniqueViolation(err, uqReservationsActive) {
			return model.Reservation{}, errs.ErrDuplicateReservation
		}
		return model.Reservation{}, classify(err)
	}
	return res, nil
}

// CancelReservation transitions active -> cancelled and returns the copy to
// stock. The row lock serializes concurrent cancels of the same
// reservation; losing the race is a no-op success, so stock is returned at
// most once. asAdmin skips the ownership rule, everything else is identical.
func (r *repository) CancelReservation(ctx context.Context, actorID, reservationID int, asAdmin bool) (model.Reservation, error) {
	var res model.Reservation
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		q := fmt.Sprintf(`select %s from %s where id = $1 for update`,
			joinColumns(reservationColumns), reservationsTableName)
		if err := tx.GetContext(ctx, &res, q, reservationID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errs.ErrReservationNotFound
			}
			return err
		}
		if !asAdmin && res.UserID != actorID {
			return errs.ErrForbidden
		}
		if res.Status != model.StatusActive {
			// already cancelled by a racing request; stock went back once
			return r.attachBookTx(ctx, tx, &res)
		}

		q = fmt.Sprintf(`update %s set status = $2, updated_at = now() where id = $1 returning updated_at`,
			reservationsTableName)
		if err := tx.GetContext(ctx, &res.UpdatedAt, q, reservationID, model.StatusCancelled); err != nil {
			return err
		}
		res.Status = model.StatusCancelled

		q = fmt.Sprintf(`update %s set available_copies = available_copies + 1, updated_at = now() where id = $1`,
			booksTableName)
		if _, err := tx.ExecContext(ctx, q, res.BookID); err != nil {
			return err
		}
		return r.attachBookTx(ctx, tx, &res)
	})
	if err != nil {
		return model.Reservation{}, classify(err)
	}
	return res, nil
}

func (r *repository) HasActiveReservation(ctx context.Context, userID, bookID int) (bool, error) {
	q := fmt.Sprintf(`select exists(
	select 1 from %s where user_id = $1 and book_id = $2 and status = $3)`, reservationsTableName)
	var exists bool
	if err := r.db.GetContext(ctx, &exists, q, userID, bookID, model.StatusActive); err != nil {
		return false, err
	}
	return exists, nil
}

// ActiveReservations returns bookID -> reservationID for the viewer's active
// reservations among the given books.
func (r *repository) ActiveReservations(ctx context.Context, userID int, bookIDs []int) (map[int]int, error) {
	if len(bookIDs) == 0 {
		return map[int]int{}, nil
	}
	q, args, err := qb.Select("id", "book_id").
		From(reservationsTableName).
		Where(sq.Eq{"user_id": userID, "book_id": bookIDs, "status": model.StatusActive}).
		ToSql()
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID     int `db:"id"`
		BookID int `db:"book_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	byBook := make(map[int]int, len(rows))
	for _, row := range rows {
		byBook[row.BookID] = row.ID
	}
	return byBook, nil
}

func (r *repository) ListUserReservations(ctx context.Context, userID, page, size int) (model.ListReservations, error) {
	q := qb.Select(reservationColumns...).
		From(reservationsTableName).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("reserved_at desc", "id desc")
	count := qb.Select("count(*)").From(reservationsTableName).Where(sq.Eq{"user_id": userID})
	return r.listReservations(ctx, q, count, page, size, false)
}

func (r *repository) ListReservations(ctx context.Context, onlyActive bool, page, size int) (model.ListReservations, error) {
	q := qb.Select(reservationColumns...).
		From(reservationsTableName).
		OrderBy("reserved_at desc", "id desc")
	count := qb.Select("count(*)").From(reservationsTableName)
	if onlyActive {
		q = q.Where(sq.Eq{"status": model.StatusActive})
		count = count.Where(sq.Eq{"status": model.StatusActive})
	}
	return r.listReservations(ctx, q, count, page, size, true)
}

func (r *repository) listReservations(ctx context.Context, q, count sq.SelectBuilder, page, size int, withUsers bool) (model.ListReservations, error) {
	if page != 0 && size != 0 {
		q = q.Limit(uint64(size)).Offset(uint64((page - 1) * size))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return model.ListReservations{}, err
	}
	var items []model.Reservation
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return model.ListReservations{}, err
	}

	query, args, err = count.ToSql()
	if err != nil {
		return model.ListReservations{}, err
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return model.ListReservations{}, err
	}

	if err := r.attachBooks(ctx, items); err != nil {
		return model.ListReservations{}, err
	}
	if withUsers {
		if err := r.attachUsers(ctx, items); err != nil {
			return model.ListReservations{}, err
		}
	}
	r.log.Debug("listReservations", zap.Int("items", len(items)), zap.Int("total", total))

	return model.ListReservations{
		Paging: model.Paging{
			Page:          page,
			PageSize:      size,
			TotalElements: total,
		},
		Items: items,
	}, nil
}

func (r *repository) attachBookTx(ctx context.Context, tx *sqlx.Tx, res *model.Reservation) error {
	var book model.Book
	q, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": res.BookID}).
		ToSql()
	if err != nil {
		return err
	}
	if err := tx.GetContext(ctx, &book, q, args...); err != nil {
		return err
	}
	res.Book = &book
	return nil
}

func (r *repository) attachBooks(ctx context.Context, items []model.Reservation) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.BookID)
	}
	q, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return err
	}
	var books []model.Book
	if err := r.db.SelectContext(ctx, &books, q, args...); err != nil {
		return err
	}
	byID := make(map[int]model.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	for i := range items {
		if b, ok := byID[items[i].BookID]; ok {
			b := b
			items[i].Book = &b
		}
	}
	return nil
}

func (r *repository) attachUsers(ctx context.Context, items []model.Reservation) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.UserID)
	}
	q, args, err := qb.Select(userColumns...).
		From(usersTableName).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return err
	}
	var users []model.User
	if err := r.db.SelectContext(ctx, &users, q, args...); err != nil {
		return err
	}
	byID := make(map[int]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i := range items {
		if u, ok := byID[items[i].UserID]; ok {
			u := u
			items[i].User = &u
		}
	}
	return nil
}
