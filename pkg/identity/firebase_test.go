package identity

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTokenVerifier struct {
	token *auth.Token
	err   error
}

func (s stubTokenVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	return s.token, s.err
}

func TestFirebaseVerifierMapsClaims(t *testing.T) {
	v := &FirebaseVerifier{client: stubTokenVerifier{token: &auth.Token{
		UID: "uid-1",
		Claims: map[string]interface{}{
			"email":          "client@example.com",
			"email_verified": true,
			"name":           "Client",
		},
		Firebase: auth.FirebaseInfo{SignInProvider: "google.com"},
	}}}

	claims, err := v.Verify(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", claims.UID)
	assert.Equal(t, "client@example.com", claims.Email)
	assert.True(t, claims.EmailVerified)
	assert.Equal(t, "google.com", claims.Provider)
}

func TestFirebaseVerifierRejects(t *testing.T) {
	v := &FirebaseVerifier{client: stubTokenVerifier{err: errors.New("expired")}}
	_, err := v.Verify(context.Background(), "token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	v = &FirebaseVerifier{client: stubTokenVerifier{token: &auth.Token{UID: "uid-1", Claims: map[string]interface{}{}}}}
	_, err = v.Verify(context.Background(), "token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
