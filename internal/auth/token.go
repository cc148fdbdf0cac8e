package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/helpdesk-kit/helpdesk-service/internal/domain"
)

// ErrInvalidToken is returned for any token that fails verification:
// bad signature, wrong algorithm, expired or malformed claims.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues and verifies signed session and public tokens.
type TokenManager struct {
	secret     []byte
	sessionTTL time.Duration
	publicTTL  time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, sessionTTLMinutes, publicTTLHours int) *TokenManager {
	if sessionTTLMinutes <= 0 {
		sessionTTLMinutes = 60
	}
	if publicTTLHours <= 0 {
		publicTTLHours = 24 * 30
	}
	return &TokenManager{
		secret:     []byte(secret),
		sessionTTL: time.Duration(sessionTTLMinutes) * time.Minute,
		publicTTL:  time.Duration(publicTTLHours) * time.Hour,
	}
}

// SessionClaims describes the JWT payload of an authenticated session.
type SessionClaims struct {
	UserID string            `json:"sub"`
	Email  string            `json:"email"`
	Roles  []domain.RoleName `json:"roles"`
	jwt.RegisteredClaims
}

// PublicClaims describes the payload of an anonymous public token.
type PublicClaims struct {
	PublicID string `json:"public_id"`
	jwt.RegisteredClaims
}

// GenerateSessionToken builds and signs a session JWT for the user.
func (tm *TokenManager) GenerateSessionToken(userID, email string, roles []domain.RoleName) (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.sessionTTL)
	claims := &SessionClaims{
		UserID: userID,
		Email:  email,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseSessionToken validates a session token and returns its claims.
func (tm *TokenManager) ParseSessionToken(tokenStr string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, tm.keyFunc)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GeneratePublicToken issues an anonymous-session token. An empty publicID
// mints a fresh identifier; each call without one yields a new identity.
func (tm *TokenManager) GeneratePublicToken(publicID string) (string, string, error) {
	if publicID == "" {
		publicID = uuid.NewString()
	}
	claims := &PublicClaims{
		PublicID: publicID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   publicID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tm.publicTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", "", err
	}
	return tokenString, publicID, nil
}

// ParsePublicToken validates a public token and returns its public id.
func (tm *TokenManager) ParsePublicToken(tokenStr string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &PublicClaims{}, tm.keyFunc)
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*PublicClaims)
	if !ok || !parsed.Valid || claims.PublicID == "" {
		return "", ErrInvalidToken
	}
	return claims.PublicID, nil
}

func (tm *TokenManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method != jwt.SigningMethodHS256 {
		return nil, errors.New("unexpected signing method")
	}
	return tm.secret, nil
}
