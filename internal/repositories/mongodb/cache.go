package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agencyportal/internal/models"
	"agencyportal/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CacheService is the subset of pkg/cache the repositories rely on.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

const userCacheTTL = 15 * time.Minute

// findPage runs a counted, paginated Find and decodes every document.
func findPage[T any](ctx context.Context, collection *mongo.Collection, filter bson.M, params *utils.PaginationParams, what string) ([]*T, int64, error) {
	if params == nil {
		params = utils.DefaultPagination()
	}

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", what, err)
	}

	cursor, err := collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find %s: %w", what, err)
	}
	defer cursor.Close(ctx)

	items := make([]*T, 0, params.GetLimit())
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, 0, fmt.Errorf("failed to decode %s: %w", what, err)
		}
		items = append(items, &item)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate %s: %w", what, err)
	}

	return items, total, nil
}

// notFound maps the driver's empty result onto the domain sentinel.
func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %w", what, models.ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
