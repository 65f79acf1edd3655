package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SkiSchool-BookingService/internal/domain"
	bookingRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/booking"
	clientRepo "github.com/m04kA/SkiSchool-BookingService/internal/infra/storage/client"
)

// Service сервис чтения бронирований для API и диалога
// Чужое бронирование неотличимо от несуществующего
type Service struct {
	bookingRepo BookingRepository
	clientRepo  ClientRepository
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(bookingRepo BookingRepository, clientRepo ClientRepository, logger Logger) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		clientRepo:  clientRepo,
		logger:      logger,
	}
}

// GetClientByTgUserID возвращает клиента по внешнему идентификатору
func (s *Service) GetClientByTgUserID(ctx context.Context, tgUserID int64) (*domain.Client, error) {
	client, err := s.clientRepo.GetByTgUserID(ctx, tgUserID)
	if err != nil {
		if errors.Is(err, clientRepo.ErrClientNotFound) {
			return nil, ErrClientNotFound
		}
		s.logger.Error("GetClientByTgUserID: repository error for tg_user=%d: %v", tgUserID, err)
		return nil, fmt.Errorf("%w: GetClientByTgUserID - repository error: %v", ErrInternal, err)
	}
	return client, nil
}

// GetByID возвращает бронирование клиента по ID
// Бронирование другого клиента возвращается как не найденное
func (s *Service) GetByID(ctx context.Context, clientID, bookingID int64) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByID: repository error for booking=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	if b.ClientID != clientID {
		return nil, ErrBookingNotFound
	}

	return b, nil
}

// ListByClient возвращает бронирования клиента
// includeInactive добавляет в выдачу отменённые бронирования
func (s *Service) ListByClient(ctx context.Context, clientID int64, includeInactive bool) ([]*domain.Booking, error) {
	list, err := s.bookingRepo.ListByClient(ctx, clientID, includeInactive)
	if err != nil {
		s.logger.Error("ListByClient: repository error for client=%d: %v", clientID, err)
		return nil, fmt.Errorf("%w: ListByClient - repository error: %v", ErrInternal, err)
	}
	return list, nil
}
