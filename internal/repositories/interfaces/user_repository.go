package interfaces

import (
	"context"
	"time"

	"agencyportal/internal/models"
	"agencyportal/internal/utils"
)

type UserRepository interface {
	// Upsert creates the user on first sign-in with the client role and
	// records the login otherwise. created reports which happened.
	Upsert(ctx context.Context, identity *models.Identity, loginAt time.Time) (user *models.User, created bool, err error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.User, int64, error)
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
}
