package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"agencyportal/internal/models"
	"agencyportal/internal/repositories/interfaces"
	"agencyportal/internal/utils"
	"agencyportal/pkg/payment"
	"agencyportal/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// inlineTx runs fn directly; the fakes below are not transactional.
type inlineTx struct{ calls int }

func (t *inlineTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []*websocket.Message
}

func (p *recordingPublisher) Publish(ctx context.Context, message *websocket.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
	return nil
}

func (p *recordingPublisher) count(room, eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, m := range p.messages {
		if m.RoomID == room && m.Type == eventType {
			n++
		}
	}
	return n
}

type fakeRequestRepo struct {
	items map[primitive.ObjectID]*models.Request
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{items: map[primitive.ObjectID]*models.Request{}}
}

func (r *fakeRequestRepo) Create(ctx context.Context, request *models.Request) error {
	request.ID = primitive.NewObjectID()
	request.CreatedAt = time.Now()
	cp := *request
	r.items[request.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Request, error) {
	req, ok := r.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *fakeRequestRepo) List(ctx context.Context, filter models.RequestFilter, params *utils.PaginationParams) ([]*models.Request, int64, error) {
	var out []*models.Request
	for _, req := range r.items {
		if filter.UserID != "" && req.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		cp := *req
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

func (r *fakeRequestRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, update *interfaces.RequestStatusUpdate) error {
	req, ok := r.items[id]
	if !ok {
		return models.ErrNotFound
	}
	if req.Status != update.From {
		return models.ErrInvalidTransition
	}
	req.Status = update.To
	if update.QuotedBudget != nil {
		req.QuotedBudget = update.QuotedBudget
	}
	if update.ProjectID != nil {
		req.ProjectID = update.ProjectID
	}
	if update.RejectionReason != "" {
		req.RejectionReason = update.RejectionReason
	}
	if update.HoldReason != "" {
		req.HoldReason = update.HoldReason
	}
	req.StatusHistory = append(req.StatusHistory, update.Change)
	return nil
}

func (r *fakeRequestRepo) AssignOwnerByEmail(ctx context.Context, email, userID string) (int64, error) {
	var n int64
	for _, req := range r.items {
		if req.UserEmail == email && (req.UserID == "" || req.UserID == models.PendingUserID) {
			req.UserID = userID
			n++
		}
	}
	return n, nil
}

type fakeProjectRepo struct {
	items map[primitive.ObjectID]*models.Project
	// conflicts makes the next MarkPaid calls fail with ErrConflict.
	conflicts int
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{items: map[primitive.ObjectID]*models.Project{}}
}

func (r *fakeProjectRepo) Create(ctx context.Context, project *models.Project) error {
	for _, p := range r.items {
		if p.RequestID == project.RequestID {
			return models.ErrAlreadyExists
		}
	}
	project.ID = primitive.NewObjectID()
	project.CreatedAt = time.Now()
	cp := *project
	r.items[project.ID] = &cp
	return nil
}

func (r *fakeProjectRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	p, ok := r.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjectRepo) GetByRequestID(ctx context.Context, requestID primitive.ObjectID) (*models.Project, error) {
	for _, p := range r.items {
		if p.RequestID == requestID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeProjectRepo) List(ctx context.Context, filter models.ProjectFilter, params *utils.PaginationParams) ([]*models.Project, int64, error) {
	var out []*models.Project
	for _, p := range r.items {
		if filter.UserID != "" && p.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProjectRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.ProjectStatus, change models.StatusChange) error {
	p, ok := r.items[id]
	if !ok {
		return models.ErrNotFound
	}
	if p.Status != from {
		return models.ErrConflict
	}
	p.Status = to
	p.StatusHistory = append(p.StatusHistory, change)
	return nil
}

func (r *fakeProjectRepo) MarkPaid(ctx context.Context, id primitive.ObjectID, update *interfaces.PaymentUpdate) (*models.Project, error) {
	if r.conflicts > 0 {
		r.conflicts--
		return nil, models.ErrConflict
	}
	p, ok := r.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	paidAt := update.PaidAt
	if update.Installment == models.InstallmentDeposit {
		if p.DepositPaid || p.FinalPaid != update.ExpectOtherPaid {
			return nil, models.ErrConflict
		}
		p.DepositPaid, p.DepositPaidAt = true, &paidAt
	} else {
		if p.FinalPaid || p.DepositPaid != update.ExpectOtherPaid {
			return nil, models.ErrConflict
		}
		p.FinalPaid, p.FinalPaidAt = true, &paidAt
	}
	p.PaymentStatus = models.DerivePaymentStatus(p.DepositPaid, p.FinalPaid)
	if update.Override != nil {
		p.PaymentOverrides = append(p.PaymentOverrides, *update.Override)
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjectRepo) SetAppliedDiscount(ctx context.Context, id primitive.ObjectID, discount *models.AppliedDiscount) error {
	p, ok := r.items[id]
	if !ok {
		return models.ErrNotFound
	}
	p.AppliedDiscount = discount
	return nil
}

func (r *fakeProjectRepo) AddTransaction(ctx context.Context, id primitive.ObjectID, tx *models.PaymentTransaction) error {
	p, ok := r.items[id]
	if !ok {
		return models.ErrNotFound
	}
	p.Transactions = append(p.Transactions, *tx)
	return nil
}

func (r *fakeProjectRepo) ReconcileOwner(ctx context.Context, email, userID string) (int64, error) {
	var n int64
	for _, p := range r.items {
		if p.UserEmail == email && p.UserID == models.PendingUserID {
			p.UserID = userID
			n++
		}
	}
	return n, nil
}

type fakeUserRepo struct {
	items map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{items: map[string]*models.User{}}
	for _, u := range users {
		r.items[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Upsert(ctx context.Context, identity *models.Identity, loginAt time.Time) (*models.User, bool, error) {
	if u, ok := r.items[identity.UID]; ok {
		u.LastLogin = loginAt
		cp := *u
		return &cp, false, nil
	}
	u := &models.User{
		ID:          identity.UID,
		Email:       models.NormalizeEmail(identity.Email),
		Role:        models.UserRoleClient,
		DisplayName: identity.DisplayName,
		CreatedAt:   loginAt,
		LastLogin:   loginAt,
	}
	r.items[u.ID] = u
	cp := *u
	return &cp, true, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := r.items[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.items {
		if u.Email == models.NormalizeEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeUserRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.User, int64, error) {
	var out []*models.User
	for _, u := range r.items {
		cp := *u
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	u, ok := r.items[id]
	if !ok {
		return models.ErrNotFound
	}
	u.Role = role
	return nil
}

type fakeNotificationRepo struct {
	items []*models.Notification
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	n.ID = primitive.NewObjectID()
	r.items = append(r.items, n)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, params *utils.PaginationParams) ([]*models.Notification, int64, error) {
	var out []*models.Notification
	for _, n := range r.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id primitive.ObjectID, userID string) error {
	for _, n := range r.items {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return models.ErrNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range r.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range r.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) forUser(userID string) []*models.Notification {
	var out []*models.Notification
	for _, n := range r.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

type fakeSubscriptionRepo struct {
	items []*models.UserSubscription
}

func (r *fakeSubscriptionRepo) Upsert(ctx context.Context, sub *models.UserSubscription) (*models.UserSubscription, error) {
	for _, s := range r.items {
		if s.UserID == sub.UserID && s.Channel == sub.Channel && s.Token == sub.Token {
			s.IsActive = true
			s.Topics = sub.Topics
			return s, nil
		}
	}
	sub.ID = primitive.NewObjectID()
	sub.IsActive = true
	r.items = append(r.items, sub)
	return sub, nil
}

func (r *fakeSubscriptionRepo) ListActive(ctx context.Context, userID string, channel models.SubscriptionChannel) ([]*models.UserSubscription, error) {
	var out []*models.UserSubscription
	for _, s := range r.items {
		if s.UserID == userID && s.Channel == channel && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) ListByUser(ctx context.Context, userID string) ([]*models.UserSubscription, error) {
	var out []*models.UserSubscription
	for _, s := range r.items {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) Deactivate(ctx context.Context, id primitive.ObjectID, userID string) error {
	for _, s := range r.items {
		if s.ID == id && s.UserID == userID {
			s.IsActive = false
			return nil
		}
	}
	return models.ErrNotFound
}

func (r *fakeSubscriptionRepo) DeactivateToken(ctx context.Context, channel models.SubscriptionChannel, token string) error {
	for _, s := range r.items {
		if s.Channel == channel && s.Token == token {
			s.IsActive = false
		}
	}
	return nil
}

type fakeReminderRepo struct {
	items []*models.PaymentReminder
}

// seed stores reminders as Create would, with fresh ids.
func (r *fakeReminderRepo) seed(reminders ...*models.PaymentReminder) {
	for _, rem := range reminders {
		rem.ID = primitive.NewObjectID()
		r.items = append(r.items, rem)
	}
}

func (r *fakeReminderRepo) Create(ctx context.Context, reminder *models.PaymentReminder) error {
	reminder.ID = primitive.NewObjectID()
	r.items = append(r.items, reminder)
	return nil
}

func (r *fakeReminderRepo) List(ctx context.Context, filter models.ReminderFilter, params *utils.PaginationParams) ([]*models.PaymentReminder, int64, error) {
	var out []*models.PaymentReminder
	for _, rem := range r.items {
		if filter.UserID != "" && rem.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && rem.Status != filter.Status {
			continue
		}
		out = append(out, rem)
	}
	return out, int64(len(out)), nil
}

func (r *fakeReminderRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.PaymentReminder, error) {
	var out []*models.PaymentReminder
	for _, rem := range r.items {
		if rem.Status == models.ReminderStatusPending && !rem.DueDate.After(now) {
			out = append(out, rem)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Attempts < out[j].Attempts })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeReminderRepo) MarkSent(ctx context.Context, id primitive.ObjectID, sentAt time.Time) error {
	for _, rem := range r.items {
		if rem.ID == id && rem.Status == models.ReminderStatusPending {
			rem.Status = models.ReminderStatusSent
			rem.SentAt = &sentAt
		}
	}
	return nil
}

func (r *fakeReminderRepo) RecordFailure(ctx context.Context, id primitive.ObjectID, reason string, maxAttempts int) error {
	for _, rem := range r.items {
		if rem.ID == id && rem.Status == models.ReminderStatusPending {
			rem.Attempts++
			rem.LastError = reason
			if rem.Attempts >= maxAttempts {
				rem.Status = models.ReminderStatusFailed
			}
			return nil
		}
	}
	return models.ErrNotFound
}

func (r *fakeReminderRepo) ReconcileOwner(ctx context.Context, email, userID string) (int64, error) {
	var n int64
	for _, rem := range r.items {
		if rem.UserEmail == email && rem.UserID == models.PendingUserID {
			rem.UserID = userID
			n++
		}
	}
	return n, nil
}

func (r *fakeReminderRepo) MarkPaid(ctx context.Context, projectID primitive.ObjectID, installment models.Installment) (int64, error) {
	var n int64
	for _, rem := range r.items {
		if rem.ProjectID == projectID && rem.PaymentType == installment && rem.Status != models.ReminderStatusPaid {
			rem.Status = models.ReminderStatusPaid
			n++
		}
	}
	return n, nil
}

type fakeDiscountRepo struct {
	items map[string]*models.DiscountCode
}

func newFakeDiscountRepo(codes ...*models.DiscountCode) *fakeDiscountRepo {
	r := &fakeDiscountRepo{items: map[string]*models.DiscountCode{}}
	for _, c := range codes {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		r.items[c.Code] = c
	}
	return r
}

func (r *fakeDiscountRepo) Create(ctx context.Context, code *models.DiscountCode) error {
	code.Code = models.NormalizeDiscountCode(code.Code)
	if _, ok := r.items[code.Code]; ok {
		return models.ErrAlreadyExists
	}
	code.ID = primitive.NewObjectID()
	r.items[code.Code] = code
	return nil
}

func (r *fakeDiscountRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.DiscountCode, error) {
	for _, c := range r.items {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeDiscountRepo) GetByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	c, ok := r.items[models.NormalizeDiscountCode(code)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return c, nil
}

func (r *fakeDiscountRepo) List(ctx context.Context, activeOnly bool, params *utils.PaginationParams) ([]*models.DiscountCode, int64, error) {
	var out []*models.DiscountCode
	for _, c := range r.items {
		if !activeOnly || c.IsActive {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeDiscountRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.DiscountCode, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v, ok := updates["is_active"].(bool); ok {
		c.IsActive = v
	}
	if v, ok := updates["percentage"].(float64); ok {
		c.Percentage = v
	}
	if v, ok := updates["max_uses"].(int); ok {
		c.MaxUses = v
	}
	return c, nil
}

func (r *fakeDiscountRepo) Redeem(ctx context.Context, code, email string, now time.Time) (*models.DiscountCode, error) {
	c, ok := r.items[models.NormalizeDiscountCode(code)]
	if !ok || !c.IsRedeemableBy(email, now) {
		return nil, models.ErrDiscountUnavailable
	}
	c.CurrentUses++
	return c, nil
}

type fakePaymentProvider struct {
	status   string
	requests []*payment.PaymentRequest
}

func (p *fakePaymentProvider) Name() string { return "fake" }

func (p *fakePaymentProvider) ProcessPayment(ctx context.Context, req *payment.PaymentRequest) (*payment.PaymentResponse, error) {
	p.requests = append(p.requests, req)
	return &payment.PaymentResponse{
		TransactionID: "txn_" + req.IdempotencyKey,
		Status:        p.status,
		ProviderState: p.status,
		Amount:        req.Amount,
		Currency:      req.Currency,
	}, nil
}

var (
	_ interfaces.RequestRepository          = (*fakeRequestRepo)(nil)
	_ interfaces.ProjectRepository          = (*fakeProjectRepo)(nil)
	_ interfaces.UserRepository             = (*fakeUserRepo)(nil)
	_ interfaces.NotificationRepository     = (*fakeNotificationRepo)(nil)
	_ interfaces.UserSubscriptionRepository = (*fakeSubscriptionRepo)(nil)
	_ interfaces.PaymentReminderRepository  = (*fakeReminderRepo)(nil)
	_ interfaces.DiscountCodeRepository     = (*fakeDiscountRepo)(nil)
)
