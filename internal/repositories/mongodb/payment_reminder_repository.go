package mongodb

import (
	"context"
	"fmt"
	"time"

	"agencyportal/internal/models"
	"agencyportal/internal/repositories/interfaces"
	"agencyportal/internal/utils"
	"agencyportal/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type paymentReminderRepository struct {
	collection *mongo.Collection
}

func NewPaymentReminderRepository(db *mongo.Database) interfaces.PaymentReminderRepository {
	return &paymentReminderRepository{
		collection: db.Collection(database.CollectionPaymentReminders),
	}
}

func (r *paymentReminderRepository) Create(ctx context.Context, reminder *models.PaymentReminder) error {
	reminder.ID = primitive.NewObjectID()
	reminder.CreatedAt = time.Now()
	if reminder.Status == "" {
		reminder.Status = models.ReminderStatusPending
	}

	if _, err := r.collection.InsertOne(ctx, reminder); err != nil {
		return fmt.Errorf("failed to create payment reminder: %w", err)
	}
	return nil
}

func (r *paymentReminderRepository) List(ctx context.Context, filter models.ReminderFilter, params *utils.PaginationParams) ([]*models.PaymentReminder, int64, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.ProjectID != nil {
		query["project_id"] = *filter.ProjectID
	}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	return findPage[models.PaymentReminder](ctx, r.collection, query, params, "payment reminders")
}

// ListDue returns pending reminders whose due date has passed. Reminders that
// have failed fewer times come first, then the oldest.
func (r *paymentReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.PaymentReminder, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "attempts", Value: 1}, {Key: "due_date", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx,
		bson.M{"status": models.ReminderStatusPending, "due_date": bson.M{"$lte": now}},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find due reminders: %w", err)
	}
	defer cursor.Close(ctx)

	var reminders []*models.PaymentReminder
	if err := cursor.All(ctx, &reminders); err != nil {
		return nil, fmt.Errorf("failed to decode due reminders: %w", err)
	}
	return reminders, nil
}

func (r *paymentReminderRepository) MarkSent(ctx context.Context, id primitive.ObjectID, sentAt time.Time) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.ReminderStatusPending},
		bson.M{"$set": bson.M{"status": models.ReminderStatusSent, "sent_at": sentAt}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("pending reminder %w", models.ErrNotFound)
	}
	return nil
}

func (r *paymentReminderRepository) RecordFailure(ctx context.Context, id primitive.ObjectID, reason string, maxAttempts int) error {
	attempts := bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$attempts", 0}}, 1}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"attempts": attempts, "last_error": reason}}},
		{{Key: "$set", Value: bson.M{"status": bson.M{"$cond": bson.A{
			bson.M{"$gte": bson.A{"$attempts", maxAttempts}},
			models.ReminderStatusFailed,
			"$status",
		}}}}},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": models.ReminderStatusPending}, pipeline)
	if err != nil {
		return fmt.Errorf("failed to record reminder failure: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("pending reminder %w", models.ErrNotFound)
	}
	return nil
}

// MarkPaid closes every open reminder for the installment.
func (r *paymentReminderRepository) MarkPaid(ctx context.Context, projectID primitive.ObjectID, installment models.Installment) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{
			"project_id":   projectID,
			"payment_type": installment,
			"status":       bson.M{"$ne": models.ReminderStatusPaid},
		},
		bson.M{"$set": bson.M{"status": models.ReminderStatusPaid}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to close payment reminders: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *paymentReminderRepository) ReconcileOwner(ctx context.Context, email, userID string) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"user_email": models.NormalizeEmail(email), "user_id": models.PendingUserID},
		bson.M{"$set": bson.M{"user_id": userID}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile reminder owner: %w", err)
	}
	return result.ModifiedCount, nil
}
