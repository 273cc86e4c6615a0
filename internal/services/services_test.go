package services

import (
	"context"
	"testing"
	"time"

	"agencyportal/internal/models"
	"agencyportal/pkg/logger"
	"agencyportal/pkg/payment"
	"agencyportal/pkg/sms"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	adminActor  = &Actor{UserID: "admin-1", Email: "staff@agency.test", IsAdmin: true}
	clientActor = &Actor{UserID: "client-1", Email: "client@example.com"}
)

type testEnv struct {
	tx            *inlineTx
	requests      *fakeRequestRepo
	projects      *fakeProjectRepo
	users         *fakeUserRepo
	notifRepo     *fakeNotificationRepo
	subs          *fakeSubscriptionRepo
	reminders     *fakeReminderRepo
	discounts     *fakeDiscountRepo
	publisher     *recordingPublisher
	provider      *fakePaymentProvider
	notifications NotificationService
	requestSvc    RequestService
	approvalSvc   ApprovalService
	projectSvc    ProjectService
	paymentSvc    PaymentService
	discountSvc   DiscountService
	reminderSvc   ReminderService
	userSvc       UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewNop()

	env := &testEnv{
		tx:        &inlineTx{},
		requests:  newFakeRequestRepo(),
		projects:  newFakeProjectRepo(),
		users:     newFakeUserRepo(&models.User{ID: clientActor.UserID, Email: clientActor.Email, Role: models.UserRoleClient}),
		notifRepo: &fakeNotificationRepo{},
		subs:      &fakeSubscriptionRepo{},
		reminders: &fakeReminderRepo{},
		discounts: newFakeDiscountRepo(),
		publisher: &recordingPublisher{},
		provider:  &fakePaymentProvider{status: payment.StatusSucceeded},
	}

	env.notifications = NewNotificationService(env.notifRepo, env.subs, nil, env.publisher, log)
	env.requestSvc = NewRequestService(env.requests, env.notifications, log)
	env.approvalSvc = NewApprovalService(env.tx, env.requests, env.projects, env.users, env.notifRepo, env.notifications, log)
	env.projectSvc = NewProjectService(env.projects, env.notifications, log)
	env.paymentSvc = NewPaymentService(env.tx, env.projects, env.reminders, env.provider, env.notifications, "usd", log)
	env.discountSvc = NewDiscountService(env.tx, env.discounts, env.projects, log)
	env.reminderSvc = NewReminderService(env.reminders, env.projects, env.subs, env.notifications, sms.NoopProvider{}, "+15550000000", "usd", log)
	env.userSvc = NewUserService(env.users, env.projects, env.requests, env.reminders, log)
	return env
}

func (e *testEnv) submit(t *testing.T, actor *Actor) *models.Request {
	t.Helper()
	req, err := e.requestSvc.Submit(context.Background(), actor, &models.RequestInput{
		WebsiteType: "business",
		Features:    []string{"responsive", "seo"},
		Deadline:    "2025-06-01",
		Budget:      "1000-2500",
	})
	require.NoError(t, err)
	return req
}

// seedProject stores a project owned by clientActor.
func (e *testEnv) seedProject(budget float64) *models.Project {
	p := &models.Project{
		RequestID:     primitive.NewObjectID(),
		UserID:        clientActor.UserID,
		UserEmail:     clientActor.Email,
		WebsiteType:   "business",
		Budget:        budget,
		Status:        models.ProjectStatusInProgress,
		PaymentStatus: models.PaymentStatusUnpaid,
		CreatedAt:     time.Now(),
	}
	_ = e.projects.Create(context.Background(), p)
	return p
}

func (e *testEnv) withDiscounts(codes ...*models.DiscountCode) {
	e.discounts = newFakeDiscountRepo(codes...)
	e.discountSvc = NewDiscountService(e.tx, e.discounts, e.projects, logger.NewNop())
}
