// Package auth verifies the bearer tokens issued by the identity provider and
// turns their claims into the tenant and actor a request runs as.
package auth

import (
	"errors"
	"time"

	"github.com/Abdihaliim1/tmsv3-sub007/internal/domain/shared"
	"github.com/Abdihaliim1/tmsv3-sub007/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingTenantID  = errors.New("missing tenant_id in claims")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrSecretRequired   = errors.New("jwt secret is required")
)

// Claims are the custom JWT claims
type Claims struct {
	jwt.RegisteredClaims
	TenantID string      `json:"tenant_id"`
	UserID   string      `json:"user_id"`
	Username string      `json:"username,omitempty"`
	Role     shared.Role `json:"role"`
}

// TenantUUID parses the tenant claim
func (c *Claims) TenantUUID() (uuid.UUID, error) {
	if c.TenantID == "" {
		return uuid.Nil, ErrMissingTenantID
	}
	id, err := uuid.Parse(c.TenantID)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrMissingTenantID
	}
	return id, nil
}

// Actor builds the acting user. An unknown role is kept as is so the
// permission check can reject it.
func (c *Claims) Actor() (shared.Actor, error) {
	if c.UserID == "" {
		return shared.Actor{}, ErrMissingUserID
	}
	id, err := uuid.Parse(c.UserID)
	if err != nil || id == uuid.Nil {
		return shared.Actor{}, ErrMissingUserID
	}
	return shared.Actor{UserID: id, Role: c.Role}, nil
}

// IssueInput contains input for token generation
type IssueInput struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Username string
	Role     shared.Role
	TTL      time.Duration
}

// TokenService signs and verifies HS256 access tokens
type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenService creates a token service
func NewTokenService(cfg config.JWTConfig) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, ErrSecretRequired
	}
	return &TokenService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		now:    time.Now,
	}, nil
}

// Issue signs an access token. Production tokens come from the identity
// provider; this serves the dev CLI and tests.
func (s *TokenService) Issue(in IssueInput) (string, time.Time, error) {
	ttl := in.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	now := s.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   in.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID: in.TenantID.String(),
		UserID:   in.UserID.String(),
		Username: in.Username,
		Role:     in.Role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Validate verifies signature, issuer and time claims and requires tenant and user ids
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if _, err := claims.TenantUUID(); err != nil {
		return nil, err
	}
	if _, err := claims.Actor(); err != nil {
		return nil, err
	}
	return claims, nil
}
