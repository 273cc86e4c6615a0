package middleware

import (
	"context"
	"fmt"

	"agencyportal/internal/utils"
	"agencyportal/pkg/identity"
)

// JWTVerifier accepts the portal's own HS256 access tokens.
type JWTVerifier struct {
	secret string
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: secret}
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*identity.Claims, error) {
	claims, err := utils.ValidateAccessToken(token, v.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: missing subject or email", identity.ErrInvalidToken)
	}

	return &identity.Claims{
		UID:           claims.Subject,
		Email:         claims.Email,
		EmailVerified: true,
		Provider:      "portal",
	}, nil
}
