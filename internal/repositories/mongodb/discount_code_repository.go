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

type discountCodeRepository struct {
	collection *mongo.Collection
}

func NewDiscountCodeRepository(db *mongo.Database) interfaces.DiscountCodeRepository {
	return &discountCodeRepository{
		collection: db.Collection(database.CollectionDiscountCodes),
	}
}

func (r *discountCodeRepository) Create(ctx context.Context, code *models.DiscountCode) error {
	now := time.Now()
	code.ID = primitive.NewObjectID()
	code.Code = models.NormalizeDiscountCode(code.Code)
	code.AllowedUsers = normalizeEmails(code.AllowedUsers)
	code.CreatedAt = now
	code.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, code); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("discount code %s %w", code.Code, models.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create discount code: %w", err)
	}
	return nil
}

func (r *discountCodeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.DiscountCode, error) {
	var code models.DiscountCode
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&code); err != nil {
		return nil, notFound(err, "discount code")
	}
	return &code, nil
}

func (r *discountCodeRepository) GetByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var discount models.DiscountCode
	err := r.collection.FindOne(ctx, bson.M{"code": models.NormalizeDiscountCode(code)}).Decode(&discount)
	if err != nil {
		return nil, notFound(err, "discount code")
	}
	return &discount, nil
}

func (r *discountCodeRepository) List(ctx context.Context, activeOnly bool, params *utils.PaginationParams) ([]*models.DiscountCode, int64, error) {
	query := bson.M{}
	if activeOnly {
		query["is_active"] = true
	}
	return findPage[models.DiscountCode](ctx, r.collection, query, params, "discount codes")
}

func (r *discountCodeRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.DiscountCode, error) {
	updates["updated_at"] = time.Now()
	if users, ok := updates["allowed_users"].([]string); ok {
		updates["allowed_users"] = normalizeEmails(users)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var code models.DiscountCode
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": updates}, opts).Decode(&code)
	if err != nil {
		return nil, notFound(err, "discount code")
	}
	return &code, nil
}

// Redeem matches only a code that is active, unexpired, below its use limit
// and open to email, and increments its use count in the same operation.
func (r *discountCodeRepository) Redeem(ctx context.Context, code, email string, now time.Time) (*models.DiscountCode, error) {
	filter := bson.M{
		"code":        models.NormalizeDiscountCode(code),
		"is_active":   true,
		"expiry_date": bson.M{"$gte": now},
		"$expr":       bson.M{"$lt": bson.A{"$current_uses", "$max_uses"}},
		"$or": bson.A{
			bson.M{"is_public": true},
			bson.M{"allowed_users": models.NormalizeEmail(email)},
		},
	}
	update := bson.M{
		"$inc": bson.M{"current_uses": 1},
		"$set": bson.M{"updated_at": now},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var discount models.DiscountCode
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&discount); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrDiscountUnavailable
		}
		return nil, fmt.Errorf("failed to redeem discount code: %w", err)
	}
	return &discount, nil
}

func normalizeEmails(emails []string) []string {
	if len(emails) == 0 {
		return emails
	}
	out := make([]string, 0, len(emails))
	for _, email := range emails {
		if email = models.NormalizeEmail(email); email != "" {
			out = append(out, email)
		}
	}
	return out
}
