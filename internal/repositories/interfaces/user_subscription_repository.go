package interfaces

import (
	"context"

	"agencyportal/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserSubscriptionRepository interface {
	Upsert(ctx context.Context, subscription *models.UserSubscription) (*models.UserSubscription, error)
	ListActive(ctx context.Context, userID string, channel models.SubscriptionChannel) ([]*models.UserSubscription, error)
	ListByUser(ctx context.Context, userID string) ([]*models.UserSubscription, error)
	Deactivate(ctx context.Context, id primitive.ObjectID, userID string) error
	DeactivateToken(ctx context.Context, channel models.SubscriptionChannel, token string) error
}
