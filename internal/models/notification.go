package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTypeRequestSubmitted NotificationType = "request_submitted"
	NotificationTypeRequestApproved  NotificationType = "request_approved"
	NotificationTypeRequestRejected  NotificationType = "request_rejected"
	NotificationTypeRequestOnHold    NotificationType = "request_on_hold"
	NotificationTypeProjectStatus    NotificationType = "project_status"
	NotificationTypePaymentReceived  NotificationType = "payment_received"
	NotificationTypePaymentReminder  NotificationType = "payment_reminder"
	NotificationTypeGeneral          NotificationType = "general"
)

type Notification struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"user_id" bson:"user_id"`
	Type      NotificationType   `json:"type" bson:"type"`
	Title     string             `json:"title" bson:"title"`
	Message   string             `json:"message" bson:"message"`
	Data      map[string]string  `json:"data,omitempty" bson:"data,omitempty"`
	IsRead    bool               `json:"is_read" bson:"is_read"`
	ReadAt    *time.Time         `json:"read_at,omitempty" bson:"read_at,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
