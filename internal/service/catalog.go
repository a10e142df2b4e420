package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/libroteca/library-service/internal/model"
	"github.com/libroteca/library-service/internal/repository"
)

type CatalogService struct {
	log          *zap.Logger
	repo         repository.CatalogRepository
	reservations repository.ReservationRepository
}

func NewCatalogService(repo repository.CatalogRepository, reservations repository.ReservationRepository, log *zap.Logger) *CatalogService {
	return &CatalogService{
		log:          log,
		repo:         repo,
		reservations: reservations,
	}
}

// ListBooks lists the catalog; for an authenticated viewer (viewerID != 0)
// each book carries its active-reservation flag for that viewer.
func (s *CatalogService) ListBooks(ctx context.Context, viewerID int, f model.BookFilter) (model.ListBooks, error) {
	list, err := s.repo.ListBooks(ctx, f)
	if err != nil {
		return model.ListBooks{}, err
	}
	if viewerID == 0 || len(list.Items) == 0 {
		return list, nil
	}

	ids := make([]int, 0, len(list.Items))
	for _, b := range list.Items {
		ids = append(ids, b.ID)
	}
	byBook, err := s.reservations.ActiveReservations(ctx, viewerID, ids)
	if err != nil {
		return model.ListBooks{}, err
	}
	for i := range list.Items {
		if resID, ok := byBook[list.Items[i].ID]; ok {
			resID := resID
			list.Items[i].IsReservedByMe = true
			list.Items[i].MyActiveReservationID = &resID
		}
	}
	return list, nil
}

func (s *CatalogService) Book(ctx context.Context, viewerID, id int) (model.Book, error) {
	book, err := s.repo.Book(ctx, id)
	if err != nil {
		return model.Book{}, err
	}
	if viewerID == 0 {
		return book, nil
	}
	byBook, err := s.reservations.ActiveReservations(ctx, viewerID, []int{book.ID})
	if err != nil {
		return model.Book{}, err
	}
	if resID, ok := byBook[book.ID]; ok {
		resID := resID
		book.IsReservedByMe = true
		book.MyActiveReservationID = &resID
	}
	return book, nil
}

func (s *CatalogService) CreateBook(ctx context.Context, req model.BookRequest) (model.Book, error) {
	return s.repo.CreateBook(ctx, req)
}

func (s *CatalogService) UpdateBook(ctx context.Context, id int, req model.BookRequest) (model.Book, error) {
	return s.repo.UpdateBook(ctx, id, req)
}

func (s *CatalogService) DeleteBook(ctx context.Context, id int) error {
	return s.repo.DeleteBook(ctx, id)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CatalogService) Category(ctx context.Context, id int) (model.Category, error) {
	return s.repo.Category(ctx, id)
}

func (s *CatalogService) CreateCategory(ctx context.Context, req model.CategoryRequest) (model.Category, error) {
	return s.repo.CreateCategory(ctx, req.Name)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id int, req model.CategoryRequest) (model.Category, error) {
	return s.repo.UpdateCategory(ctx, id, req.Name)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id int) error {
	return s.repo.DeleteCategory(ctx, id)
}
