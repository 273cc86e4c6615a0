package mongodb

import (
	"context"
	"errors"
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

type projectRepository struct {
	collection *mongo.Collection
}

func NewProjectRepository(db *mongo.Database) interfaces.ProjectRepository {
	return &projectRepository{
		collection: db.Collection(database.CollectionProjects),
	}
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	now := time.Now()
	project.ID = primitive.NewObjectID()
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.PaymentStatus == "" {
		project.PaymentStatus = models.DerivePaymentStatus(project.DepositPaid, project.FinalPaid)
	}

	if _, err := r.collection.InsertOne(ctx, project); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("project for request %s %w", project.RequestID.Hex(), models.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&project); err != nil {
		return nil, notFound(err, "project")
	}
	return &project, nil
}

func (r *projectRepository) GetByRequestID(ctx context.Context, requestID primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	if err := r.collection.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&project); err != nil {
		return nil, notFound(err, "project")
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, filter models.ProjectFilter, params *utils.PaginationParams) ([]*models.Project, int64, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.PaymentStatus != "" {
		query["payment_status"] = filter.PaymentStatus
	}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	return findPage[models.Project](ctx, r.collection, query, params, "projects")
}

func (r *projectRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.ProjectStatus, change models.StatusChange) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{
			"$set":  bson.M{"status": to, "updated_at": change.ChangedAt},
			"$push": bson.M{"status_history": change},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("project is no longer %s: %w", from, models.ErrConflict)
	}
	return nil
}

func (r *projectRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, update *interfaces.PaymentUpdate) (*models.Project, error) {
	flag, other, paidAtField := "deposit_paid", "final_paid", "deposit_paid_at"
	depositPaid, finalPaid := true, update.ExpectOtherPaid
	if update.Installment == models.InstallmentFinal {
		flag, other, paidAtField = "final_paid", "deposit_paid", "final_paid_at"
		depositPaid, finalPaid = update.ExpectOtherPaid, true
	}

	change := bson.M{
		"$set": bson.M{
			flag:             true,
			paidAtField:      update.PaidAt,
			"payment_status": models.DerivePaymentStatus(depositPaid, finalPaid),
			"updated_at":     update.PaidAt,
		},
	}
	if update.Override != nil {
		change["$push"] = bson.M{"payment_overrides": update.Override}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var project models.Project
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, flag: bson.M{"$ne": true}, other: update.ExpectOtherPaid},
		change, opts,
	).Decode(&project)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("failed to mark project paid: %w", err)
		}
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("payment state of project changed: %w", models.ErrConflict)
	}
	return &project, nil
}

func (r *projectRepository) SetAppliedDiscount(ctx context.Context, id primitive.ObjectID, discount *models.AppliedDiscount) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"applied_discount": discount, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to apply discount to project: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("project %w", models.ErrNotFound)
	}
	return nil
}

func (r *projectRepository) AddTransaction(ctx context.Context, id primitive.ObjectID, tx *models.PaymentTransaction) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"transactions": tx},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("project %w", models.ErrNotFound)
	}
	return nil
}

func (r *projectRepository) ReconcileOwner(ctx context.Context, email, userID string) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"user_email": models.NormalizeEmail(email), "user_id": models.PendingUserID},
		bson.M{"$set": bson.M{"user_id": userID, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile project owner: %w", err)
	}
	return result.ModifiedCount, nil
}
