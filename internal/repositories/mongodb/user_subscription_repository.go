package mongodb

import (
	"context"
	"fmt"
	"time"

	"agencyportal/internal/models"
	"agencyportal/internal/repositories/interfaces"
	"agencyportal/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userSubscriptionRepository struct {
	collection *mongo.Collection
}

func NewUserSubscriptionRepository(db *mongo.Database) interfaces.UserSubscriptionRepository {
	return &userSubscriptionRepository{
		collection: db.Collection(database.CollectionUserSubscriptions),
	}
}

// Upsert is keyed by user, channel and token so re-registering a device
// reactivates it instead of duplicating it.
func (r *userSubscriptionRepository) Upsert(ctx context.Context, sub *models.UserSubscription) (*models.UserSubscription, error) {
	now := time.Now()
	filter := bson.M{"user_id": sub.UserID, "channel": sub.Channel, "token": sub.Token}
	update := bson.M{
		"$set":         bson.M{"topics": sub.Topics, "is_active": true, "updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var saved models.UserSubscription
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return nil, fmt.Errorf("failed to save subscription: %w", err)
	}
	return &saved, nil
}

func (r *userSubscriptionRepository) ListActive(ctx context.Context, userID string, channel models.SubscriptionChannel) ([]*models.UserSubscription, error) {
	return r.find(ctx, bson.M{"user_id": userID, "channel": channel, "is_active": true})
}

func (r *userSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*models.UserSubscription, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

func (r *userSubscriptionRepository) Deactivate(ctx context.Context, id primitive.ObjectID, userID string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate subscription: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("subscription %w", models.ErrNotFound)
	}
	return nil
}

// DeactivateToken is used when a provider reports a token as unregistered.
func (r *userSubscriptionRepository) DeactivateToken(ctx context.Context, channel models.SubscriptionChannel, token string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"channel": channel, "token": token},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate token: %w", err)
	}
	return nil
}

func (r *userSubscriptionRepository) find(ctx context.Context, filter bson.M) ([]*models.UserSubscription, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	var subs []*models.UserSubscription
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, fmt.Errorf("failed to decode subscriptions: %w", err)
	}
	return subs, nil
}
