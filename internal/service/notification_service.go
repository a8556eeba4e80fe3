package service

import (
	"context"
	"errors"

	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/model"
	"github.com/Luca901-rgb/celiaco-table-booking-sub000/internal/repository"
)

// NotificationService exposes a user's stored notifications.
type NotificationService struct {
	store NotificationStore
}

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) List(ctx context.Context, userID uint64, unreadOnly bool, limit int) ([]*model.Notification, error) {
	if limit < 0 || limit > 200 {
		return nil, invalid("limit", "must be between 0 and 200")
	}
	return s.store.ListByRecipient(ctx, userID, unreadOnly, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID uint64, id string) error {
	if id == "" {
		return invalid("id", "is required")
	}
	if err := s.store.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &NotFoundError{Entity: "notification", ID: id}
		}
		return err
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	return s.store.MarkAllRead(ctx, userID)
}
