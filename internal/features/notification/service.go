package notification

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// NotificationService is the dispatcher contract the engine calls
// after every accepted transition, plus the inbox operations the UI
// uses. Notify is safe to call from a goroutine: failures are logged
// and visible in the log store, never returned into the decision path.
type NotificationService interface {
	Notify(ctx context.Context, userID primitive.ObjectID, title, message string, notifType NotificationType, link string) error
	GetUserNotifications(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]Notification, int64, error)
	GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error)
	MarkAsRead(ctx context.Context, id string, userID primitive.ObjectID) error
	MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error
}

type NotificationServiceImpl struct {
	repo NotificationRepository
	hub  *Hub
	log  *zap.Logger
}

func NewNotificationService(repo NotificationRepository, hub *Hub, log *zap.Logger) NotificationService {
	return &NotificationServiceImpl{
		repo: repo,
		hub:  hub,
		log:  log,
	}
}

func (s *NotificationServiceImpl) Notify(ctx context.Context, userID primitive.ObjectID, title, message string, notifType NotificationType, link string) error {
	notification := &Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    notifType,
		Link:    link,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		s.log.Error("failed to persist notification",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		return err
	}

	s.hub.Push(userID.Hex(), notification)
	return nil
}

func (s *NotificationServiceImpl) GetUserNotifications(ctx context.Context, userID primitive.ObjectID, page, limit int64) ([]Notification, int64, error) {
	return s.repo.GetByUserID(ctx, userID, page, limit)
}

func (s *NotificationServiceImpl) GetUnreadCount(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

func (s *NotificationServiceImpl) MarkAsRead(ctx context.Context, id string, userID primitive.ObjectID) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	return s.repo.MarkAsRead(ctx, objID, userID)
}

func (s *NotificationServiceImpl) MarkAllAsRead(ctx context.Context, userID primitive.ObjectID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
