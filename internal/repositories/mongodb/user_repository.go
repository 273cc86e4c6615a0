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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewUserRepository(db *mongo.Database, cache CacheService) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection(database.CollectionUsers),
		cache:      cache,
	}
}

// Upsert never changes the role of an existing user; new users start as clients.
func (r *userRepository) Upsert(ctx context.Context, identity *models.Identity, loginAt time.Time) (*models.User, bool, error) {
	set := bson.M{
		"email":      models.NormalizeEmail(identity.Email),
		"last_login": loginAt,
	}
	if identity.DisplayName != "" {
		set["display_name"] = identity.DisplayName
	}
	if identity.Phone != "" {
		set["phone"] = identity.Phone
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": identity.UID},
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"role": models.UserRoleClient, "created_at": loginAt},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, false, fmt.Errorf("email %s %w", identity.Email, models.ErrAlreadyExists)
		}
		return nil, false, fmt.Errorf("failed to upsert user: %w", err)
	}

	r.invalidateUserCache(ctx, identity.UID)

	user, err := r.getFromDB(ctx, bson.M{"_id": identity.UID})
	if err != nil {
		return nil, false, err
	}
	r.cacheUser(ctx, user)

	return user, result.UpsertedCount > 0, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if user := r.getUserFromCache(ctx, id); user != nil {
		return user, nil
	}

	user, err := r.getFromDB(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	r.cacheUser(ctx, user)
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getFromDB(ctx, bson.M{"email": models.NormalizeEmail(email)})
}

func (r *userRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.User, int64, error) {
	return findPage[models.User](ctx, r.collection, bson.M{}, params, "users")
}

func (r *userRepository) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("user %w", models.ErrNotFound)
	}

	r.invalidateUserCache(ctx, id)
	return nil
}

func (r *userRepository) getFromDB(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (r *userRepository) cacheUser(ctx context.Context, user *models.User) {
	if r.cache != nil {
		r.cache.Set(ctx, utils.CacheUserPrefix+user.ID, user, userCacheTTL)
	}
}

func (r *userRepository) getUserFromCache(ctx context.Context, id string) *models.User {
	if r.cache == nil {
		return nil
	}
	var user models.User
	if err := r.cache.Get(ctx, utils.CacheUserPrefix+id, &user); err != nil {
		return nil
	}
	return &user
}

func (r *userRepository) invalidateUserCache(ctx context.Context, id string) {
	if r.cache != nil {
		r.cache.Delete(ctx, utils.CacheUserPrefix+id)
	}
}
