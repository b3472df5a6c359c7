package auth

import (
	"errors"
	"fmt"
	"time"

	"stock-data-service/src/models"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// -----------------------------------------------------------------------------

// Validator verifies access tokens issued by an Authenticator sharing the same key.
// A token is rejected once now >= exp + skew, skew defaults to zero.
type Validator struct {
	key  []byte
	skew time.Duration
	now  func() time.Time
}

// -----------------------------------------------------------------------------

// NewValidator creates a Validator from the auth section of the config.
func NewValidator(config models.MAuthConfig) *Validator {
	return &Validator{
		key:  []byte(config.TokenKey),
		skew: config.ClockSkew,
		now:  time.Now,
	}
}

// -----------------------------------------------------------------------------

// SetClock replaces the time source.
func (v *Validator) SetClock(now func() time.Time) {
	v.now = now
}

// -----------------------------------------------------------------------------

// Validate checks signature and expiry and returns the embedded client id.
func (v *Validator) Validate(token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, v.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.skew),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	// The library compares with its own precision; the boundary is enforced here.
	if !v.now().Before(claims.ExpiresAt.Time.Add(v.skew)) {
		return "", ErrTokenExpired
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}

	return claims.Subject, nil
}

// -----------------------------------------------------------------------------

func (v *Validator) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return v.key, nil
}
