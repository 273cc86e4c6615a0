package services

import (
	"context"
	"fmt"

	"agencyportal/internal/models"
	"agencyportal/internal/repositories/interfaces"
	"agencyportal/internal/utils"
	"agencyportal/pkg/logger"
	"agencyportal/pkg/push"
	"agencyportal/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService interface {
	// Notify stores a notification and delivers it.
	Notify(ctx context.Context, notification *models.Notification) error
	// Deliver pushes an already stored notification to the user's devices
	// and open sockets.
	Deliver(ctx context.Context, notification *models.Notification)
	// Broadcast sends a realtime event without storing anything.
	Broadcast(ctx context.Context, room, eventType string, data map[string]interface{})

	List(ctx context.Context, userID string, unreadOnly bool, params *utils.PaginationParams) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, id primitive.ObjectID, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)

	Subscribe(ctx context.Context, userID string, req *models.SubscribeRequest) (*models.UserSubscription, error)
	Unsubscribe(ctx context.Context, id primitive.ObjectID, userID string) error
	ListSubscriptions(ctx context.Context, userID string) ([]*models.UserSubscription, error)
}

type notificationService struct {
	notificationRepo interfaces.NotificationRepository
	subscriptionRepo interfaces.UserSubscriptionRepository
	push             push.PushProvider
	realtime         websocket.Publisher
	logger           *logger.Logger
}

func NewNotificationService(
	notificationRepo interfaces.NotificationRepository,
	subscriptionRepo interfaces.UserSubscriptionRepository,
	pushProvider push.PushProvider,
	realtime websocket.Publisher,
	log *logger.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		subscriptionRepo: subscriptionRepo,
		push:             pushProvider,
		realtime:         realtime,
		logger:           log,
	}
}

func (s *notificationService) Notify(ctx context.Context, notification *models.Notification) error {
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return err
	}
	s.Deliver(ctx, notification)
	return nil
}

// Deliver is best effort; failures are logged, never returned.
func (s *notificationService) Deliver(ctx context.Context, notification *models.Notification) {
	log := s.logger.WithContext(ctx).WithUserID(notification.UserID).WithField("notification_type", notification.Type)

	s.Broadcast(ctx, websocket.UserRoom(notification.UserID), utils.EventNotification, map[string]interface{}{
		"id":      notification.ID.Hex(),
		"type":    notification.Type,
		"title":   notification.Title,
		"message": notification.Message,
		"data":    notification.Data,
	})

	if s.push == nil {
		return
	}

	subs, err := s.subscriptionRepo.ListActive(ctx, notification.UserID, models.SubscriptionChannelPush)
	if err != nil {
		log.WithError(err).Warn("Failed to load push subscriptions")
		return
	}
	if len(subs) == 0 {
		return
	}

	requests := make([]*push.NotificationRequest, len(subs))
	for i, sub := range subs {
		requests[i] = &push.NotificationRequest{
			Token:       sub.Token,
			Title:       notification.Title,
			Body:        notification.Message,
			Data:        notification.Data,
			CollapseKey: string(notification.Type),
		}
	}

	responses, err := s.push.SendBulkNotifications(ctx, requests)
	if err != nil {
		log.WithError(err).Warn("Failed to send push notifications")
	}
	for _, resp := range responses {
		if resp.Unregistered {
			if err := s.subscriptionRepo.DeactivateToken(ctx, models.SubscriptionChannelPush, resp.Token); err != nil {
				log.WithError(err).Warn("Failed to deactivate push token")
			}
		}
	}
}

func (s *notificationService) Broadcast(ctx context.Context, room, eventType string, data map[string]interface{}) {
	if s.realtime == nil {
		return
	}
	err := s.realtime.Publish(ctx, &websocket.Message{
		Type:   eventType,
		RoomID: room,
		Data:   data,
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("event", eventType).Warn("Failed to publish realtime event")
	}
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool, params *utils.PaginationParams) ([]*models.Notification, int64, error) {
	return s.notificationRepo.ListByUser(ctx, userID, unreadOnly, params)
}

func (s *notificationService) MarkRead(ctx context.Context, id primitive.ObjectID, userID string) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *notificationService) Subscribe(ctx context.Context, userID string, req *models.SubscribeRequest) (*models.UserSubscription, error) {
	token := req.Token
	if req.Channel == models.SubscriptionChannelSMS {
		token = utils.NormalizePhone(token)
		if !utils.IsValidPhone(token) {
			return nil, fmt.Errorf("%w: phone number must be E.164", models.ErrInvalidInput)
		}
	}

	sub, err := s.subscriptionRepo.Upsert(ctx, &models.UserSubscription{
		UserID:  userID,
		Channel: req.Channel,
		Token:   token,
		Topics:  req.Topics,
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).LogUserAction(userID, "subscribe", map[string]interface{}{"channel": req.Channel})
	return sub, nil
}

func (s *notificationService) Unsubscribe(ctx context.Context, id primitive.ObjectID, userID string) error {
	return s.subscriptionRepo.Deactivate(ctx, id, userID)
}

func (s *notificationService) ListSubscriptions(ctx context.Context, userID string) ([]*models.UserSubscription, error) {
	return s.subscriptionRepo.ListByUser(ctx, userID)
}

func newNotification(userID string, kind models.NotificationType, title, message string, data map[string]string) *models.Notification {
	return &models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Data:    data,
	}
}
