package interfaces

import (
	"context"
	"time"

	"agencyportal/internal/models"
	"agencyportal/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentReminderRepository interface {
	Create(ctx context.Context, reminder *models.PaymentReminder) error
	List(ctx context.Context, filter models.ReminderFilter, params *utils.PaginationParams) ([]*models.PaymentReminder, int64, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.PaymentReminder, error)
	MarkSent(ctx context.Context, id primitive.ObjectID, sentAt time.Time) error
	// RecordFailure counts a failed dispatch and parks the reminder as failed
	// once it reaches maxAttempts.
	RecordFailure(ctx context.Context, id primitive.ObjectID, reason string, maxAttempts int) error
	MarkPaid(ctx context.Context, projectID primitive.ObjectID, installment models.Installment) (int64, error)
	// ReconcileOwner hands reminders created for a pending owner to userID.
	ReconcileOwner(ctx context.Context, email, userID string) (int64, error)
}
