package oauth

import "context"

type OAuthProvider interface {
	Name() string
	GetAuthURL(state string) string

	// Authenticate exchanges an authorization code and returns the profile
	// of the account that granted it.
	Authenticate(ctx context.Context, code string) (*UserInfo, error)
}

type UserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Provider      string `json:"provider"`
}
