package service_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/libroteca/library-service/internal/model"
	repo_mocks "github.com/libroteca/library-service/internal/repository/mocks"
	"github.com/libroteca/library-service/internal/service"
)

func TestCatalogService_ListBooks_ViewerFlags(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()

	catalog := repo_mocks.NewMockCatalogRepository(c)
	reservations := repo_mocks.NewMockReservationRepository(c)

	list := model.ListBooks{
		Paging: model.Paging{Page: 1, PageSize: 10, TotalElements: 2},
		Items: []model.Book{
			{ID: 1, Title: "Dune", AvailableCopies: 0, TotalCopies: 2},
			{ID: 2, Title: "Solaris", AvailableCopies: 3, TotalCopies: 3},
		},
	}
	catalog.EXPECT().ListBooks(gomock.Any(), gomock.Any()).Return(list, nil)
	reservations.EXPECT().
		ActiveReservations(gomock.Any(), 7, []int{1, 2}).
		Return(map[int]int{1: 42}, nil)

	svc := service.NewCatalogService(catalog, reservations, zap.NewNop())
	got, err := svc.ListBooks(context.Background(), 7, model.BookFilter{Page: 1, Size: 10})
	require.NoError(t, err)
	require.True(t, got.Items[0].IsReservedByMe)
	require.NotNil(t, got.Items[0].MyActiveReservationID)
	require.Equal(t, 42, *got.Items[0].MyActiveReservationID)
	require.False(t, got.Items[1].IsReservedByMe)
	require.Nil(t, got.Items[1].MyActiveReservationID)
}

func TestCatalogService_ListBooks_Anonymous(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()

	catalog := repo_mocks.NewMockCatalogRepository(c)
	reservations := repo_mocks.NewMockReservationRepository(c)

	catalog.EXPECT().ListBooks(gomock.Any(), gomock.Any()).Return(model.ListBooks{
		Paging: model.Paging{Page: 1, PageSize: 10, TotalElements: 1},
		Items:  []model.Book{{ID: 1, Title: "Dune"}},
	}, nil)
	// no ActiveReservations call for viewerID == 0

	svc := service.NewCatalogService(catalog, reservations, zap.NewNop())
	got, err := svc.ListBooks(context.Background(), 0, model.BookFilter{Page: 1, Size: 10})
	require.NoError(t, err)
	require.False(t, got.Items[0].IsReservedByMe)
}

func TestCatalogService_Book_ViewerFlag(t *testing.T) {
	t.Parallel()
	c := gomock.NewController(t)
	defer c.Finish()

	catalog := repo_mocks.NewMockCatalogRepository(c)
	reservations := repo_mocks.NewMockReservationRepository(c)

	catalog.EXPECT().Book(gomock.Any(), 3).Return(model.Book{ID: 3, Title: "Dune"}, nil)
	reservations.EXPECT().
		ActiveReservations(gomock.Any(), 7, []int{3}).
		Return(map[int]int{3: 55}, nil)

	svc := service.NewCatalogService(catalog, reservations, zap.NewNop())
	book, err := svc.Book(context.Background(), 7, 3)
	require.NoError(t, err)
	require.True(t, book.IsReservedByMe)
	require.Equal(t, 55, *book.MyActiveReservationID)
}
