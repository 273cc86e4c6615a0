package interfaces

import (
	"context"

	"agencyportal/internal/models"
	"agencyportal/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, params *utils.PaginationParams) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, id primitive.ObjectID, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}
