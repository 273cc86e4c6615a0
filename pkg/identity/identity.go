package identity

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("invalid identity token")

// Claims is what a verified token says about its bearer.
type Claims struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
	Phone         string
	Provider      string
}

// Verifier checks a bearer token issued by the identity provider.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}
