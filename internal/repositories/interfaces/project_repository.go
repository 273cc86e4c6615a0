package interfaces

import (
	"context"
	"time"

	"agencyportal/internal/models"
	"agencyportal/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentUpdate flips one installment flag. ExpectOtherPaid is the state of
// the other installment the caller based its decision on; the write is
// rejected with models.ErrConflict if it changed meanwhile.
type PaymentUpdate struct {
	Installment     models.Installment
	ExpectOtherPaid bool
	PaidAt          time.Time
	Override        *models.PaymentOverride
}

type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	GetByRequestID(ctx context.Context, requestID primitive.ObjectID) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter, params *utils.PaginationParams) ([]*models.Project, int64, error)

	// UpdateStatus returns models.ErrConflict when the project is no longer in from.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.ProjectStatus, change models.StatusChange) error

	MarkPaid(ctx context.Context, id primitive.ObjectID, update *PaymentUpdate) (*models.Project, error)
	SetAppliedDiscount(ctx context.Context, id primitive.ObjectID, discount *models.AppliedDiscount) error
	AddTransaction(ctx context.Context, id primitive.ObjectID, tx *models.PaymentTransaction) error

	// ReconcileOwner replaces the pending sentinel on projects for email.
	ReconcileOwner(ctx context.Context, email, userID string) (int64, error)
}
