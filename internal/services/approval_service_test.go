package services

import (
	"context"
	"testing"
	"time"

	"agencyportal/internal/models"
	"agencyportal/internal/utils"
	"agencyportal/pkg/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitApproveComplete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := env.submit(t, clientActor)
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.Equal(t, 1, env.publisher.count(websocket.StaffRoom, utils.EventRequestSubmitted))

	quote, err := utils.ParseCurrencyAmount("1500")
	require.NoError(t, err)

	result, err := env.approvalSvc.Approve(ctx, req.ID, quote, adminActor)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, result.Request.Status)
	assert.Equal(t, 1500.0, result.Project.Budget)
	assert.Equal(t, models.ProjectStatusInProgress, result.Project.Status)
	assert.Equal(t, 25, result.Project.Progress)
	assert.Equal(t, req.ID, result.Project.RequestID)
	assert.Equal(t, clientActor.UserID, result.Project.UserID)
	assert.Equal(t, 1, env.tx.calls)

	notes := env.notifRepo.forUser(clientActor.UserID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationTypeRequestApproved, notes[0].Type)

	view, err := env.projectSvc.SetStatus(ctx, result.Project.ID, models.ProjectStatusCompleted, adminActor)
	require.NoError(t, err)
	assert.Equal(t, 100, view.Progress)
}

func TestApproveCreatesExactlyOneProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := env.submit(t, clientActor)

	result, err := env.approvalSvc.Approve(ctx, req.ID, 750, adminActor)
	require.NoError(t, err)
	assert.Equal(t, 750.0, result.Project.Budget)

	_, err = env.approvalSvc.Approve(ctx, req.ID, 750, adminActor)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Len(t, env.projects.items, 1)

	stored, err := env.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.QuotedBudget)
	assert.Equal(t, 750.0, *stored.QuotedBudget)
	assert.Equal(t, result.Project.ID, *stored.ProjectID)
}

func TestApproveRejectsNonPositiveQuote(t *testing.T) {
	env := newTestEnv(t)
	req := env.submit(t, clientActor)

	_, err := env.approvalSvc.Approve(context.Background(), req.ID, 0, adminActor)
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
	assert.Empty(t, env.projects.items)
}

func TestApproveWithoutRegisteredUserLeavesProjectPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	guest := &Actor{Email: "Newcomer@Example.com"}

	req := env.submit(t, guest)
	result, err := env.approvalSvc.Approve(ctx, req.ID, 900, adminActor)
	require.NoError(t, err)
	assert.Equal(t, models.PendingUserID, result.Project.UserID)
	assert.Empty(t, env.notifRepo.items)

	reminder, err := env.reminderSvc.Create(ctx, result.Project.ID, &models.CreateReminderRequest{
		PaymentType: models.InstallmentDeposit,
		DueDate:     time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PendingUserID, reminder.UserID)

	session, err := env.userSvc.EnsureUser(ctx, &models.Identity{UID: "new-1", Email: "newcomer@example.com"})
	require.NoError(t, err)
	assert.True(t, session.Created)
	assert.Equal(t, int64(1), session.ReconciledProjects)
	assert.Equal(t, int64(1), session.ReconciledRequests)
	assert.Equal(t, int64(1), session.ReconciledReminders)

	project, err := env.projects.GetByID(ctx, result.Project.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-1", project.UserID)

	mine, total, err := env.reminderSvc.ListForUser(ctx, &Actor{UserID: "new-1", Email: "newcomer@example.com"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, mine, 1)
	assert.Equal(t, reminder.ID, mine[0].ID)
}

func TestRejectAndHold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("reason required", func(t *testing.T) {
		req := env.submit(t, clientActor)
		_, err := env.approvalSvc.Reject(ctx, req.ID, "  ", adminActor)
		assert.ErrorIs(t, err, models.ErrReasonRequired)
	})

	t.Run("hold then approve", func(t *testing.T) {
		req := env.submit(t, clientActor)
		held, err := env.approvalSvc.Hold(ctx, req.ID, "waiting for brand assets", adminActor)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusOnHold, held.Status)
		assert.Equal(t, "waiting for brand assets", held.HoldReason)

		result, err := env.approvalSvc.Approve(ctx, req.ID, 1200, adminActor)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusApproved, result.Request.Status)
	})

	t.Run("rejected is terminal", func(t *testing.T) {
		req := env.submit(t, clientActor)
		_, err := env.approvalSvc.Reject(ctx, req.ID, "out of scope", adminActor)
		require.NoError(t, err)

		_, err = env.approvalSvc.Hold(ctx, req.ID, "second thoughts", adminActor)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
		_, err = env.approvalSvc.Approve(ctx, req.ID, 500, adminActor)
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})
}

func TestForceRequestStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := env.submit(t, clientActor)
	_, err := env.approvalSvc.Reject(ctx, req.ID, "budget too low", adminActor)
	require.NoError(t, err)

	_, err = env.approvalSvc.ForceStatus(ctx, req.ID, models.RequestStatusApproved, "reopened", adminActor)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = env.approvalSvc.ForceStatus(ctx, req.ID, models.RequestStatus("archived"), "cleanup", adminActor)
	assert.ErrorIs(t, err, models.ErrInvalidStatus)

	forced, err := env.approvalSvc.ForceStatus(ctx, req.ID, models.RequestStatusPending, "client raised budget", adminActor)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, forced.Status)
	last := forced.StatusHistory[len(forced.StatusHistory)-1]
	assert.True(t, last.Forced)
	assert.Equal(t, "client raised budget", last.Reason)
}
