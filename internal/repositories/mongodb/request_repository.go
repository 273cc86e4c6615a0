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
)

type requestRepository struct {
	collection *mongo.Collection
}

func NewRequestRepository(db *mongo.Database) interfaces.RequestRepository {
	return &requestRepository{
		collection: db.Collection(database.CollectionRequests),
	}
}

func (r *requestRepository) Create(ctx context.Context, request *models.Request) error {
	now := time.Now()
	request.ID = primitive.NewObjectID()
	request.CreatedAt = now
	request.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, request); err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	var request models.Request
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request); err != nil {
		return nil, notFound(err, "request")
	}
	return &request, nil
}

func (r *requestRepository) List(ctx context.Context, filter models.RequestFilter, params *utils.PaginationParams) ([]*models.Request, int64, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	return findPage[models.Request](ctx, r.collection, query, params, "requests")
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, update *interfaces.RequestStatusUpdate) error {
	set := bson.M{
		"status":     update.To,
		"updated_at": update.Change.ChangedAt,
	}
	if update.QuotedBudget != nil {
		set["quoted_budget"] = *update.QuotedBudget
	}
	if update.RejectionReason != "" {
		set["rejection_reason"] = update.RejectionReason
	}
	if update.HoldReason != "" {
		set["hold_reason"] = update.HoldReason
	}
	if update.ProjectID != nil {
		set["project_id"] = *update.ProjectID
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": update.From},
		bson.M{
			"$set":  set,
			"$push": bson.M{"status_history": update.Change},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("request is no longer %s: %w", update.From, models.ErrInvalidTransition)
	}
	return nil
}

func (r *requestRepository) AssignOwnerByEmail(ctx context.Context, email, userID string) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{
			"user_email": models.NormalizeEmail(email),
			"user_id":    bson.M{"$in": bson.A{"", models.PendingUserID}},
		},
		bson.M{"$set": bson.M{"user_id": userID, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to assign request owner: %w", err)
	}
	return result.ModifiedCount, nil
}
