package identity

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
)

type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseVerifier validates Firebase Auth ID tokens.
type FirebaseVerifier struct {
	client idTokenVerifier
}

func NewFirebaseVerifier(ctx context.Context, app *firebase.App) (*FirebaseVerifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get auth client: %w", err)
	}
	return &FirebaseVerifier{client: client}, nil
}

func (f *FirebaseVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	decoded, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := &Claims{
		UID:           decoded.UID,
		Email:         stringClaim(decoded.Claims, "email"),
		EmailVerified: boolClaim(decoded.Claims, "email_verified"),
		Name:          stringClaim(decoded.Claims, "name"),
		Phone:         stringClaim(decoded.Claims, "phone_number"),
		Provider:      decoded.Firebase.SignInProvider,
	}
	if claims.UID == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: token has no uid or email", ErrInvalidToken)
	}
	return claims, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	v, _ := claims[key].(string)
	return v
}

func boolClaim(claims map[string]interface{}, key string) bool {
	v, _ := claims[key].(bool)
	return v
}
