package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// fcmBatchLimit is the most messages FCM accepts in one SendEach call.
const fcmBatchLimit = 500

type FCMProvider struct {
	client *messaging.Client
}

// NewFirebaseApp initialises the Firebase app shared by push and identity.
func NewFirebaseApp(ctx context.Context, projectID, credentialsFile string) (*firebase.App, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return app, nil
}

func NewFCMProvider(ctx context.Context, app *firebase.App) (*FCMProvider, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messaging client: %w", err)
	}

	return &FCMProvider{
		client: client,
	}, nil
}

func (f *FCMProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	response, err := f.client.Send(ctx, buildMessage(request))
	if err != nil {
		return &NotificationResponse{
			Success:      false,
			Error:        err.Error(),
			Token:        request.Token,
			Unregistered: messaging.IsUnregistered(err),
		}, err
	}

	return &NotificationResponse{
		MessageID: response,
		Success:   true,
		Token:     request.Token,
	}, nil
}

func (f *FCMProvider) SendBulkNotifications(ctx context.Context, requests []*NotificationRequest) ([]*NotificationResponse, error) {
	responses := make([]*NotificationResponse, 0, len(requests))

	for start := 0; start < len(requests); start += fcmBatchLimit {
		end := min(start+fcmBatchLimit, len(requests))
		batch := requests[start:end]

		messages := make([]*messaging.Message, len(batch))
		for i, req := range batch {
			messages[i] = buildMessage(req)
		}

		batchResponse, err := f.client.SendEach(ctx, messages)
		if err != nil {
			return responses, fmt.Errorf("failed to send bulk notifications: %w", err)
		}

		for i, response := range batchResponse.Responses {
			if response.Success {
				responses = append(responses, &NotificationResponse{
					MessageID: response.MessageID,
					Success:   true,
					Token:     batch[i].Token,
				})
				continue
			}
			responses = append(responses, &NotificationResponse{
				Success:      false,
				Error:        response.Error.Error(),
				Token:        batch[i].Token,
				Unregistered: messaging.IsUnregistered(response.Error),
			})
		}
	}

	return responses, nil
}

func buildMessage(request *NotificationRequest) *messaging.Message {
	message := &messaging.Message{
		Token: request.Token,
		Data:  request.Data,
		Notification: &messaging.Notification{
			Title: request.Title,
			Body:  request.Body,
		},
	}

	if request.ClickAction != "" || request.CollapseKey != "" {
		message.Android = &messaging.AndroidConfig{
			CollapseKey: request.CollapseKey,
			Notification: &messaging.AndroidNotification{
				ClickAction: request.ClickAction,
			},
		}
		message.Webpush = &messaging.WebpushConfig{
			FCMOptions: &messaging.WebpushFCMOptions{Link: request.ClickAction},
		}
	}

	return message
}
