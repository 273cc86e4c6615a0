package interfaces

import (
	"context"

	"agencyportal/internal/models"
	"agencyportal/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatusUpdate is applied only while the request still has the
// expected status, so two staff members cannot both decide the same request.
type RequestStatusUpdate struct {
	From            models.RequestStatus
	To              models.RequestStatus
	QuotedBudget    *float64
	RejectionReason string
	HoldReason      string
	ProjectID       *primitive.ObjectID
	Change          models.StatusChange
}

type RequestRepository interface {
	Create(ctx context.Context, request *models.Request) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error)
	List(ctx context.Context, filter models.RequestFilter, params *utils.PaginationParams) ([]*models.Request, int64, error)

	// UpdateStatus returns models.ErrInvalidTransition when the request is no
	// longer in update.From.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, update *RequestStatusUpdate) error

	// AssignOwnerByEmail gives unowned requests submitted under email to userID.
	AssignOwnerByEmail(ctx context.Context, email, userID string) (int64, error)
}
