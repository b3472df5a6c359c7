package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"stock-data-service/src/logger"
	"stock-data-service/src/metrics"
	"stock-data-service/src/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidCredentials is returned for any unknown id or wrong secret.
var ErrInvalidCredentials = errors.New("invalid credentials")

// dummySecret is compared against when the client id is unknown so both
// failure paths do the same amount of work.
const dummySecret = "\x00unregistered-client\x00"

// -----------------------------------------------------------------------------

// Claims is the payload of an access token. Subject carries the client id.
type Claims struct {
	jwt.RegisteredClaims
}

// -----------------------------------------------------------------------------

// Authenticator validates client credentials and issues signed access tokens.
// It keeps no state between calls.
type Authenticator struct {
	Name     string
	clients  map[string]string
	key      []byte
	lifetime time.Duration
	now      func() time.Time
	logger   *logger.Logger
}

// -----------------------------------------------------------------------------

// NewAuthenticator creates an Authenticator from the auth section of the config.
func NewAuthenticator(config models.MAuthConfig, logger *logger.Logger) *Authenticator {
	clients := make(map[string]string, len(config.Clients))
	for id, secret := range config.Clients {
		clients[id] = secret
	}

	return &Authenticator{
		Name:     "Authenticator",
		clients:  clients,
		key:      []byte(config.TokenKey),
		lifetime: config.TokenLifetime,
		now:      time.Now,
		logger:   logger,
	}
}

// -----------------------------------------------------------------------------

// SetClock replaces the time source.
func (a *Authenticator) SetClock(now func() time.Time) {
	a.now = now
}

// -----------------------------------------------------------------------------

// Authenticate checks the credential pair and returns a token valid until expiresAt.
func (a *Authenticator) Authenticate(clientID, secret string) (string, time.Time, error) {
	expected, known := a.clients[clientID]
	if !known {
		expected = dummySecret
	}

	match := subtle.ConstantTimeCompare([]byte(expected), []byte(secret)) == 1
	if !known || !match {
		metrics.AuthRejected("invalid_credentials")
		a.logger.Warning("%s : rejected credentials for client '%s'", a.Name, clientID)
		return "", time.Time{}, ErrInvalidCredentials
	}

	issuedAt := a.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(a.lifetime)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token for %s: %w", clientID, err)
	}

	a.logger.Debug("%s : issued token %s for client '%s' expiring at %s",
		a.Name, claims.ID, clientID, claims.ExpiresAt.Time.Format(time.RFC3339))

	return token, claims.ExpiresAt.Time, nil
}
