package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubscriptionChannel string

const (
	SubscriptionChannelPush SubscriptionChannel = "push"
	SubscriptionChannelSMS  SubscriptionChannel = "sms"
)

// UserSubscription is a delivery target for a user: an FCM device token or
// a phone number for SMS reminders.
type UserSubscription struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID    string              `json:"user_id" bson:"user_id"`
	Channel   SubscriptionChannel `json:"channel" bson:"channel"`
	Token     string              `json:"token" bson:"token"`
	Topics    []string            `json:"topics,omitempty" bson:"topics,omitempty"`
	IsActive  bool                `json:"is_active" bson:"is_active"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" bson:"updated_at"`
}

type SubscribeRequest struct {
	Channel SubscriptionChannel `json:"channel" validate:"required,oneof=push sms"`
	Token   string              `json:"token" validate:"required,max=4096"`
	Topics  []string            `json:"topics" validate:"omitempty,dive,max=100"`
}
