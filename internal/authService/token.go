package auth

import (
	"errors"
	"fmt"
	"time"

	"auctions/internal/auctionerrors"
	model "auctions/internal/models"
	"auctions/utils"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer    = "auctions"
	minSecretBytes = 32
)

// Claims is the JWT payload of a session token. Subject holds the user id and
// ID (jti) the session id used for revocation.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 session tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager validates the secret and returns a manager issuing tokens valid for ttl
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretBytes)
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session TTL must be positive")
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a new session token for user
func (m *TokenManager) Issue(user model.User) (string, Identity, error) {
	now := m.now()
	identity := Identity{
		UserID:    user.ID,
		Username:  user.Username,
		SessionID: utils.GenerateID(),
		ExpiresAt: now.Add(m.ttl).Truncate(time.Second),
	}

	claims := Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        identity.SessionID,
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(identity.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", Identity{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, identity, nil
}

// Parse verifies signature, issuer and expiry and returns the identity the token carries
func (m *TokenManager) Parse(token string) (Identity, error) {
	if token == "" {
		return Identity{}, fmt.Errorf("%w - empty token", auctionerrors.ErrUnauthenticated)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w - %v", auctionerrors.ErrUnauthenticated, err)
	}
	if !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return Identity{}, fmt.Errorf("%w - incomplete token claims", auctionerrors.ErrUnauthenticated)
	}

	return Identity{
		UserID:    claims.Subject,
		Username:  claims.Username,
		SessionID: claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
