package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
	userRepo repository.UserRepository
	emailSvc EmailService
	clock    domain.Clock
}

func NewNotificationService(
	noteRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	emailSvc EmailService,
	clock domain.Clock,
) NotificationService {
	return &notificationService{
		noteRepo: noteRepo,
		userRepo: userRepo,
		emailSvc: emailSvc,
		clock:    clock,
	}
}

// Notify stores an in-app notification and mirrors it by email. The stored
// notification is kept even when the email cannot be sent.
func (s *notificationService) Notify(ctx context.Context, userID, title, message string, attrs map[string]string) error {
	note := &domain.Notification{
		ID:         uuid.New().String(),
		UserID:     userID,
		Title:      title,
		Message:    message,
		RelatedID:  attrs["rental_id"],
		Attributes: attrs,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load notification recipient: %w", err)
	}
	if err := s.emailSvc.SendNotificationEmail(ctx, user.Email, user.FullName(), title, message); err != nil {
		logger.Warn("Notification email failed", "userID", userID, "title", title, "error", err)
		return err
	}
	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID string, unreadOnly bool, page, pageSize int) ([]domain.Notification, int, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize
	return s.noteRepo.List(ctx, userID, unreadOnly, pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, userID)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	return s.noteRepo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.noteRepo.CountUnread(ctx, userID)
}
