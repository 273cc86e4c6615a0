package services

import (
	"context"
	"time"

	"agencyportal/internal/models"
)

// Transactor runs fn atomically. Repositories called with the ctx passed to
// fn take part in the transaction.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID  string
	Email   string
	IsAdmin bool
}

func (a *Actor) owns(userID, email string) bool {
	if a.UserID != "" && a.UserID == userID {
		return true
	}
	return email != "" && models.NormalizeEmail(a.Email) == models.NormalizeEmail(email)
}

// CanAccess reports whether the actor may read a resource of the given owner.
func (a *Actor) CanAccess(userID, email string) bool {
	return a.IsAdmin || a.owns(userID, email)
}

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c()
}
