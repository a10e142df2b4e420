package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/libroteca/library-service/internal/errs"
	"github.com/libroteca/library-service/internal/model"
	"github.com/libroteca/library-service/internal/repository"
	"github.com/libroteca/library-service/pkg/auth"
)

// ReservationService is the reservation ledger. All stock movement of
// available_copies goes through it, one transaction per operation.
type ReservationService struct {
	log  *zap.Logger
	repo repository.ReservationRepository
}

func NewReservationService(repo repository.ReservationRepository, log *zap.Logger) *ReservationService {
	return &ReservationService{
		log:  log,
		repo: repo,
	}
}

func (s *ReservationService) CreateReservation(ctx context.Context, userID, bookID int) (model.Reservation, error) {
	// cheap pre-check; the partial unique index backstops the race
	exists, err := s.repo.HasActiveReservation(ctx, userID, bookID)
	if err != nil {
		return model.Reservation{}, err
	}
	if exists {
		return model.Reservation{}, errs.ErrDuplicateReservation
	}

	var res model.Reservation
	err = withRetry(ctx, func() error {
		res, err = s.repo.CreateReservation(ctx, userID, bookID)
		return err
	})
	if err != nil {
		return model.Reservation{}, err
	}
	s.log.Info("reservation created",
		zap.Int("reservation_id", res.ID),
		zap.Int("user_id", userID),
		zap.Int("book_id", bookID))
	return res, nil
}

func (s *ReservationService) CancelReservation(ctx context.Context, actor auth.Identity, reservationID int, asAdmin bool) (model.Reservation, error) {
	var (
		res model.Reservation
		err error
	)
	err = withRetry(ctx, func() error {
		res, err = s.repo.CancelReservation(ctx, actor.UserID, reservationID, asAdmin)
		return err
	})
	if err != nil {
		return model.Reservation{}, err
	}
	s.log.Info("reservation cancelled",
		zap.Int("reservation_id", reservationID),
		zap.Int("actor_id", actor.UserID),
		zap.Bool("as_admin", asAdmin))
	return res, nil
}

func (s *ReservationService) MyReservations(ctx context.Context, userID, page, size int) (model.ListReservations, error) {
	return s.repo.ListUserReservations(ctx, userID, page, size)
}

func (s *ReservationService) AllReservations(ctx context.Context, onlyActive bool, page, size int) (model.ListReservations, error) {
	return s.repo.ListReservations(ctx, onlyActive, page, size)
}
