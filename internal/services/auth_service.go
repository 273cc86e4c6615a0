package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"agencyportal/internal/models"
	"agencyportal/internal/utils"
	"agencyportal/pkg/identity"
	"agencyportal/pkg/logger"
	"agencyportal/pkg/oauth"
)

const (
	oauthStatePrefix = "oauth_state:"
	oauthStateTTL    = 10 * time.Minute
)

var ErrInvalidOAuthState = errors.New("invalid or expired oauth state")

// StateStore keeps single-use OAuth state values.
type StateStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type AuthResult struct {
	Session *models.SessionInfo `json:"session"`
	Tokens  *utils.TokenPair    `json:"tokens"`
}

type AuthService interface {
	// LoginURL returns the provider consent URL with a fresh state value.
	LoginURL(ctx context.Context) (string, error)
	// Callback checks the state, exchanges the code and issues portal tokens.
	Callback(ctx context.Context, state, code string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*utils.TokenPair, error)
}

type authService struct {
	provider oauth.OAuthProvider
	states   StateStore
	users    UserService
	tokens   TokenConfig
	logger   *logger.Logger
}

func NewAuthService(provider oauth.OAuthProvider, states StateStore, users UserService, tokens TokenConfig, log *logger.Logger) AuthService {
	return &authService{
		provider: provider,
		states:   states,
		users:    users,
		tokens:   tokens,
		logger:   log,
	}
}

func (s *authService) LoginURL(ctx context.Context) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	state := hex.EncodeToString(buf)

	ok, err := s.states.SetNX(ctx, oauthStatePrefix+state, s.provider.Name(), oauthStateTTL)
	if err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("failed to store oauth state: %w", models.ErrConflict)
	}

	return s.provider.GetAuthURL(state), nil
}

func (s *authService) Callback(ctx context.Context, state, code string) (*AuthResult, error) {
	if state == "" || code == "" {
		return nil, ErrInvalidOAuthState
	}

	key := oauthStatePrefix + state
	found, err := s.states.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check oauth state: %w", err)
	}
	if !found {
		s.logger.WithContext(ctx).LogSecurityEvent("oauth_state_mismatch", "medium", map[string]interface{}{
			"provider": s.provider.Name(),
		})
		return nil, ErrInvalidOAuthState
	}
	if err := s.states.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("failed to consume oauth state: %w", err)
	}

	info, err := s.provider.Authenticate(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with %s: %w", s.provider.Name(), err)
	}
	if info.Email == "" || !info.EmailVerified {
		return nil, fmt.Errorf("%s account has no verified email: %w", s.provider.Name(), models.ErrForbidden)
	}

	// Emails are unique, so a returning user keeps the account they
	// created through the identity provider.
	email := models.NormalizeEmail(info.Email)
	uid := s.provider.Name() + ":" + info.ID
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		uid = existing.ID
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	session, err := s.users.EnsureUser(ctx, &models.Identity{
		UID:         uid,
		Email:       email,
		DisplayName: info.Name,
		Provider:    s.provider.Name(),
	})
	if err != nil {
		return nil, err
	}

	user := session.User
	tokens, err := utils.GenerateTokenPair(user.ID, user.Email, string(user.Role), s.tokens.Secret, s.tokens.AccessTTL, s.tokens.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	s.logger.WithContext(ctx).LogUserAction(user.ID, "oauth_login", map[string]interface{}{
		"provider": s.provider.Name(),
		"created":  session.Created,
	})

	return &AuthResult{Session: session, Tokens: tokens}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*utils.TokenPair, error) {
	pair, err := utils.RefreshAccessToken(refreshToken, s.tokens.Secret, s.tokens.AccessTTL, s.tokens.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}
	return pair, nil
}
