package repository

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/libroteca/library-service/internal/errs"
	"github.com/libroteca/library-service/internal/model"
)

var bookColumns = []string{
	"id", "title", "author", "publisher", "pages", "synopsis", "cover_url",
	"category_id", "total_copies", "available_copies", "created_at", "updated_at",
}

func prefixed(prefix string, cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, prefix+"."+c)
	}
	return out
}

type bookRow struct {
	model.Book
	CategoryName *string `db:"category_name"`
}

func (row bookRow) book() model.Book {
	b := row.Book
	if row.CategoryName != nil {
		b.Category = &model.Category{ID: b.CategoryID, Name: *row.CategoryName}
	}
	return b
}

func (r *repository) ListBooks(ctx context.Context, f model.BookFilter) (model.ListBooks, error) {
	q := qb.Select(append(prefixed("b", bookColumns), "c.name as category_name")...).
		From(booksTableName + " b").
		Join(fmt.Sprintf("%s c on c.id = b.category_id", categoriesTableName)).
		OrderBy("b.title", "b.id")
	count := qb.Select("count(*)").From(booksTableName + " b")

	if f.Search != "" {
		like := sq.ILike{"b.title": "%" + f.Search + "%"}
		q = q.Where(like)
		count = count.Where(like)
	}
	if f.CategoryID != 0 {
		q = q.Where(sq.Eq{"b.category_id": f.CategoryID})
		count = count.Where(sq.Eq{"b.category_id": f.CategoryID})
	}
	if f.Page != 0 && f.Size != 0 {
		q = q.Limit(uint64(f.Size)).Offset(uint64((f.Page - 1) * f.Size))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	var rows []bookRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return model.ListBooks{}, err
	}

	query, args, err = count.ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return model.ListBooks{}, err
	}

	items := make([]model.Book, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.book())
	}
	return model.ListBooks{
		Paging: model.Paging{
			Page:          f.Page,
			PageSize:      f.Size,
			TotalElements: total,
		},
		Items: items,
	}, nil
}

func (r *repository) Book(ctx context.Context, id int) (model.Book, error) {
	query, args, err := qb.Select(append(prefixed("b", bookColumns), "c.name as category_name")...).
		From(booksTableName + " b").
		Join(fmt.Sprintf("%s c on c.id = b.category_id", categoriesTableName)).
		Where(sq.Eq{"b.id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var row bookRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		return model.Book{}, err
	}
	return row.book(), nil
}

func (r *repository) CreateBook(ctx context.Context, req model.BookRequest) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns("title", "author", "publisher", "pages", "synopsis", "cover_url",
			"category_id", "total_copies", "available_copies").
		Values(req.Title, req.Author, req.Publisher, req.Pages, req.Synopsis, req.CoverURL,
			req.CategoryID, req.TotalCopies, req.TotalCopies).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return model.Book{}, errs.ErrCategoryNotFound
		}
		r.log.Error("CreateBook", zap.String("q", query), zap.Any("args", args))
		return model.Book{}, err
	}
	return r.withCategory(ctx, book)
}

// UpdateBook shifts available_copies by the total_copies delta in the same
// statement, clamped into [0, total]. This is the only write the catalog
// side ever makes to available_copies after creation.
func (r *repository) UpdateBook(ctx context.Context, id int, req model.BookRequest) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		Set("title", req.Title).
		Set("author", req.Author).
		Set("publisher", req.Publisher).
		Set("pages", req.Pages).
		Set("synopsis", req.Synopsis).
		Set("cover_url", req.CoverURL).
		Set("category_id", req.CategoryID).
		Set("available_copies", sq.Expr("least(?, greatest(0, available_copies + (? - total_copies)))",
			req.TotalCopies, req.TotalCopies)).
		Set("total_copies", req.TotalCopies).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	var book model.Book
	if err := r.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		if isForeignKeyViolation(err) {
			return model.Book{}, errs.ErrCategoryNotFound
		}
		return model.Book{}, err
	}
	return r.withCategory(ctx, book)
}

func (r *repository) DeleteBook(ctx context.Context, id int) error {
	query, args, err := qb.Delete(booksTableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.ErrBookNotFound
	}
	return nil
}

func (r *repository) withCategory(ctx context.Context, book model.Book) (model.Book, error) {
	cat, err := r.Category(ctx, book.CategoryID)
	if err != nil {
		return model.Book{}, err
	}
	book.Category = &cat
	return book, nil
}

func (r *repository) ListCategories(ctx context.Context) ([]model.Category, error) {
	query, args, err := qb.Select("id", "name").
		From(categoriesTableName).
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, err
	}
	items := make([]model.Category, 0)
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Category(ctx context.Context, id int) (model.Category, error) {
	query, args, err := qb.Select("id", "name").
		From(categoriesTableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.Category{}, err
	}
	var cat model.Category
	if err := r.db.GetContext(ctx, &cat, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Category{}, errs.ErrCategoryNotFound
		}
		return model.Category{}, err
	}
	return cat, nil
}

func (r *repository) CreateCategory(ctx context.Context, name string) (model.Category, error) {
	query, args, err := qb.Insert(categoriesTableName).
		Columns("name").
		Values(name).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Category{}, err
	}
	var cat model.Category
	if err := r.db.GetContext(ctx, &cat, query, args...); err != nil {
		if isUniqueViolation(err, "") {
			return model.Category{}, errs.ErrCategoryExists
		}
		return model.Category{}, err
	}
	return cat, nil
}

func (r *repository) UpdateCategory(ctx context.Context, id int, name string) (model.Category, error) {
	query, args, err := qb.Update(categoriesTableName).
		Set("name", name).
		Where(sq.Eq{"id": id}).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Category{}, err
	}
	var cat model.Category
	if err := r.db.GetContext(ctx, &cat, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Category{}, errs.ErrCategoryNotFound
		}
		if isUniqueViolation(err, "") {
			return model.Category{}, errs.ErrCategoryExists
		}
		return model.Category{}, err
	}
	return cat, nil
}

func (r *repository) DeleteCategory(ctx context.Context, id int) error {
	query, args, err := qb.Delete(categoriesTableName).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return errs.ErrCategoryInUse
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.ErrCategoryNotFound
	}
	return nil
}
