package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DiscountCode struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Code         string             `json:"code" bson:"code"`
	Description  string             `json:"description,omitempty" bson:"description,omitempty"`
	Percentage   float64            `json:"percentage" bson:"percentage"`
	MaxUses      int                `json:"max_uses" bson:"max_uses"`
	CurrentUses  int                `json:"current_uses" bson:"current_uses"`
	ExpiryDate   time.Time          `json:"expiry_date" bson:"expiry_date"`
	IsActive     bool               `json:"is_active" bson:"is_active"`
	IsPublic     bool               `json:"is_public" bson:"is_public"`
	AllowedUsers []string           `json:"allowed_users,omitempty" bson:"allowed_users,omitempty"`
	CreatedBy    string             `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// NormalizeDiscountCode is the lookup form of a code.
func NormalizeDiscountCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (d *DiscountCode) IsExpired(now time.Time) bool {
	return d.ExpiryDate.Before(now)
}

func (d *DiscountCode) IsExhausted() bool {
	return d.CurrentUses >= d.MaxUses
}

func (d *DiscountCode) AllowsEmail(email string) bool {
	if d.IsPublic {
		return true
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, allowed := range d.AllowedUsers {
		if strings.ToLower(allowed) == email {
			return true
		}
	}
	return false
}

// IsRedeemableBy applies every validity rule of a code for one requester.
func (d *DiscountCode) IsRedeemableBy(email string, now time.Time) bool {
	return d.IsActive && !d.IsExpired(now) && !d.IsExhausted() && d.AllowsEmail(email)
}

type CreateDiscountCodeRequest struct {
	Code         string    `json:"code" validate:"required,discount_code"`
	Description  string    `json:"description" validate:"max=500"`
	Percentage   float64   `json:"percentage" validate:"gte=0,lte=100"`
	MaxUses      int       `json:"max_uses" validate:"required,gte=1"`
	ExpiryDate   time.Time `json:"expiry_date" validate:"required"`
	IsActive     *bool     `json:"is_active"`
	IsPublic     bool      `json:"is_public"`
	AllowedUsers []string  `json:"allowed_users" validate:"dive,email"`
}

type UpdateDiscountCodeRequest struct {
	Description  *string    `json:"description" validate:"omitempty,max=500"`
	Percentage   *float64   `json:"percentage" validate:"omitempty,gte=0,lte=100"`
	MaxUses      *int       `json:"max_uses" validate:"omitempty,gte=1"`
	ExpiryDate   *time.Time `json:"expiry_date"`
	IsActive     *bool      `json:"is_active"`
	IsPublic     *bool      `json:"is_public"`
	AllowedUsers []string   `json:"allowed_users" validate:"omitempty,dive,email"`
}
