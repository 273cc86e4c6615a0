package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestGoogleProvider(t *testing.T, userInfo string) *GoogleOAuthProvider {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "auth-code", r.Form.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(userInfo))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	p := NewGoogleOAuthProvider("client-id", "secret", "http://localhost/callback")
	p.config.Endpoint = oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"}
	p.userInfoURL = srv.URL + "/userinfo"
	return p
}

func TestGoogleAuthenticate(t *testing.T) {
	p := newTestGoogleProvider(t, `{"sub":"g-123","email":"Client@Example.com","email_verified":true,"name":"Client"}`)

	info, err := p.Authenticate(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "g-123", info.ID)
	assert.Equal(t, "Client@Example.com", info.Email)
	assert.True(t, info.EmailVerified)
	assert.Equal(t, "google", info.Provider)
}

func TestGoogleAuthenticateRejectsIncompleteProfile(t *testing.T) {
	p := newTestGoogleProvider(t, `{"sub":"g-123"}`)

	_, err := p.Authenticate(context.Background(), "auth-code")
	assert.Error(t, err)
}

func TestGoogleAuthURLCarriesState(t *testing.T) {
	p := NewGoogleOAuthProvider("client-id", "secret", "http://localhost/callback")
	assert.Contains(t, p.GetAuthURL("state-xyz"), "state=state-xyz")
}
