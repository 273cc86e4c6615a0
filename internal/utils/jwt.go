package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the portal session token. Subject carries the user uid.
type JWTClaims struct {
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

func GenerateTokenPair(userID, email, role, secretKey string, accessTTL, refreshTTL time.Duration) (*TokenPair, error) {
	if accessTTL <= 0 {
		accessTTL = JWTAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = JWTRefreshTokenTTL
	}

	accessToken, err := signToken(userID, email, role, tokenTypeAccess, secretKey, accessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := signToken(userID, email, role, tokenTypeRefresh, secretKey, refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(accessTTL.Seconds()),
		TokenType:    "Bearer",
	}, nil
}

func signToken(userID, email, role, tokenType, secretKey string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		Email:     email,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    AppName,
			Subject:   userID,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
}

func ValidateToken(tokenString, secretKey string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New(ErrInvalidToken)
}

// ValidateAccessToken rejects refresh tokens presented as bearer tokens.
func ValidateAccessToken(tokenString, secretKey string) (*JWTClaims, error) {
	claims, err := ValidateToken(tokenString, secretKey)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, errors.New(ErrInvalidToken)
	}
	return claims, nil
}

func RefreshAccessToken(refreshTokenString, secretKey string, accessTTL, refreshTTL time.Duration) (*TokenPair, error) {
	claims, err := ValidateToken(refreshTokenString, secretKey)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return nil, errors.New(ErrInvalidToken)
	}

	return GenerateTokenPair(claims.Subject, claims.Email, claims.Role, secretKey, accessTTL, refreshTTL)
}
