package services

import (
	"context"
	"testing"

	"agencyportal/internal/models"
	"agencyportal/internal/utils"
	"agencyportal/pkg/logger"
	"agencyportal/pkg/push"
	"agencyportal/pkg/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPush struct {
	sent         []*push.NotificationRequest
	unregistered map[string]bool
}

func (p *stubPush) SendNotification(ctx context.Context, req *push.NotificationRequest) (*push.NotificationResponse, error) {
	p.sent = append(p.sent, req)
	return &push.NotificationResponse{Success: !p.unregistered[req.Token], Token: req.Token, Unregistered: p.unregistered[req.Token]}, nil
}

func (p *stubPush) SendBulkNotifications(ctx context.Context, reqs []*push.NotificationRequest) ([]*push.NotificationResponse, error) {
	out := make([]*push.NotificationResponse, len(reqs))
	for i, req := range reqs {
		out[i], _ = p.SendNotification(ctx, req)
	}
	return out, nil
}

func TestNotifyFansOut(t *testing.T) {
	ctx := context.Background()
	notifRepo := &fakeNotificationRepo{}
	subs := &fakeSubscriptionRepo{}
	publisher := &recordingPublisher{}
	pusher := &stubPush{unregistered: map[string]bool{"stale-token": true}}
	svc := NewNotificationService(notifRepo, subs, pusher, publisher, logger.NewNop())

	_, err := svc.Subscribe(ctx, "u1", &models.SubscribeRequest{Channel: models.SubscriptionChannelPush, Token: "live-token"})
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, "u1", &models.SubscribeRequest{Channel: models.SubscriptionChannelPush, Token: "stale-token"})
	require.NoError(t, err)

	err = svc.Notify(ctx, newNotification("u1", models.NotificationTypeGeneral, "Hello", "World", nil))
	require.NoError(t, err)

	assert.Len(t, notifRepo.items, 1)
	assert.Len(t, pusher.sent, 2)
	assert.Equal(t, 1, publisher.count(websocket.UserRoom("u1"), utils.EventNotification))

	active, err := subs.ListActive(ctx, "u1", models.SubscriptionChannelPush)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "live-token", active[0].Token)

	count, err := svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	marked, err := svc.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)
}

func TestSubscribeSMSValidatesPhone(t *testing.T) {
	ctx := context.Background()
	subs := &fakeSubscriptionRepo{}
	svc := NewNotificationService(&fakeNotificationRepo{}, subs, nil, nil, logger.NewNop())

	_, err := svc.Subscribe(ctx, "u1", &models.SubscribeRequest{Channel: models.SubscriptionChannelSMS, Token: "12"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	sub, err := svc.Subscribe(ctx, "u1", &models.SubscribeRequest{Channel: models.SubscriptionChannelSMS, Token: "+1 (555) 123-4567"})
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", sub.Token)
}
