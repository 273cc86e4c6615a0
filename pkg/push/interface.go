package push

import "context"

type PushProvider interface {
	SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error)
	SendBulkNotifications(ctx context.Context, requests []*NotificationRequest) ([]*NotificationResponse, error)
}

type NotificationRequest struct {
	Token       string            `json:"token"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	ClickAction string            `json:"click_action,omitempty"`
	CollapseKey string            `json:"collapse_key,omitempty"`
}

type NotificationResponse struct {
	MessageID string `json:"message_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Token     string `json:"token,omitempty"`

	// Unregistered is set when the provider says the token will never work
	// again and should be deactivated.
	Unregistered bool `json:"unregistered,omitempty"`
}

// NoopProvider accepts everything and delivers nothing.
type NoopProvider struct{}

func (NoopProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	return &NotificationResponse{Success: true, Token: request.Token}, nil
}

func (NoopProvider) SendBulkNotifications(ctx context.Context, requests []*NotificationRequest) ([]*NotificationResponse, error) {
	responses := make([]*NotificationResponse, len(requests))
	for i, req := range requests {
		responses[i] = &NotificationResponse{Success: true, Token: req.Token}
	}
	return responses, nil
}
