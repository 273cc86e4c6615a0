package interfaces

import (
	"context"
	"time"

	"agencyportal/internal/models"
	"agencyportal/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DiscountCodeRepository interface {
	Create(ctx context.Context, code *models.DiscountCode) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.DiscountCode, error)
	GetByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	List(ctx context.Context, activeOnly bool, params *utils.PaginationParams) ([]*models.DiscountCode, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.DiscountCode, error)

	// Redeem validates and consumes one use in a single conditional write.
	// It returns models.ErrDiscountUnavailable when no valid code matched.
	Redeem(ctx context.Context, code, email string, now time.Time) (*models.DiscountCode, error)
}
