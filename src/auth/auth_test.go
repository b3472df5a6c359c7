package auth

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stock-data-service/src/logger"
	"stock-data-service/src/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testAuthConfig() models.MAuthConfig {
	return models.MAuthConfig{
		TokenKey:      "This is gRPC demo sample key",
		TokenLifetime: time.Minute,
		Clients: map[string]string{
			"clientId1": "secret1",
			"clientId2": "secret2",
		},
	}
}

func fixedClock(t *time.Time) func() time.Time {
	return func() time.Time { return *t }
}

func issue(t *testing.T, config models.MAuthConfig, now time.Time, clientID, secret string) (string, time.Time) {
	t.Helper()
	a := NewAuthenticator(config, logger.NewNopLogger())
	a.SetClock(func() time.Time { return now })
	token, exp, err := a.Authenticate(clientID, secret)
	require.NoError(t, err)
	return token, exp
}

// --- Authenticator ---

func TestAuthenticate_ValidCredentials(t *testing.T) {
	token, exp := issue(t, testAuthConfig(), baseTime, "clientId1", "secret1")

	assert.NotEmpty(t, token)
	assert.Equal(t, baseTime.Add(time.Minute), exp)

	now := baseTime
	v := NewValidator(testAuthConfig())
	v.SetClock(fixedClock(&now))
	clientID, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "clientId1", clientID)
}

func TestAuthenticate_InvalidCredentials(t *testing.T) {
	a := NewAuthenticator(testAuthConfig(), logger.NewNopLogger())

	cases := []struct{ id, secret string }{
		{"clientId1", "wrong"},
		{"unknown", "secret1"},
		{"", ""},
		{"clientId1", ""},
	}
	for _, c := range cases {
		token, exp, err := a.Authenticate(c.id, c.secret)
		assert.ErrorIs(t, err, ErrInvalidCredentials, "id=%q", c.id)
		assert.Empty(t, token)
		assert.True(t, exp.IsZero())
	}
}

func TestAuthenticate_TokensAreUnique(t *testing.T) {
	first, _ := issue(t, testAuthConfig(), baseTime, "clientId2", "secret2")
	second, _ := issue(t, testAuthConfig(), baseTime, "clientId2", "secret2")
	assert.NotEqual(t, first, second)
}

// --- Validator ---

func TestValidate_ExpiryBoundary(t *testing.T) {
	token, exp := issue(t, testAuthConfig(), baseTime, "clientId1", "secret1")

	now := exp.Add(-time.Second)
	v := NewValidator(testAuthConfig())
	v.SetClock(fixedClock(&now))

	_, err := v.Validate(token)
	require.NoError(t, err)

	now = exp
	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	now = exp.Add(time.Hour)
	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidate_ClockSkew(t *testing.T) {
	config := testAuthConfig()
	config.ClockSkew = 5 * time.Second
	token, exp := issue(t, config, baseTime, "clientId1", "secret1")

	now := exp.Add(4 * time.Second)
	v := NewValidator(config)
	v.SetClock(fixedClock(&now))
	_, err := v.Validate(token)
	require.NoError(t, err)

	now = exp.Add(5 * time.Second)
	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidate_RejectsBadTokens(t *testing.T) {
	token, _ := issue(t, testAuthConfig(), baseTime, "clientId1", "secret1")
	now := baseTime
	v := NewValidator(testAuthConfig())
	v.SetClock(fixedClock(&now))

	_, err := v.Validate("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = v.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	dot := strings.LastIndex(token, ".")
	first := byte('A')
	if token[dot+1] == 'A' {
		first = 'B'
	}
	tampered := token[:dot+1] + string(first) + token[dot+2:]
	_, err = v.Validate(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := testAuthConfig()
	other.TokenKey = "a completely different signing key"
	foreign, _ := issue(t, other, baseTime, "clientId1", "secret1")
	_, err = v.Validate(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidate_RejectsUnsignedAndMissingExpiry(t *testing.T) {
	now := baseTime
	v := NewValidator(testAuthConfig())
	v.SetClock(fixedClock(&now))

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "clientId1",
		ExpiresAt: jwt.NewNumericDate(baseTime.Add(time.Minute)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Validate(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "clientId1",
	}).SignedString([]byte(testAuthConfig().TokenKey))
	require.NoError(t, err)
	_, err = v.Validate(noExp)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// --- BearerToken ---

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)

	token, ok = BearerToken("bearer   xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", token)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
	_, ok = BearerToken("")
	assert.False(t, ok)
}

// --- Gate ---

func newTestGate(now *time.Time) *Gate {
	v := NewValidator(testAuthConfig())
	v.SetClock(fixedClock(now))
	isPublic := func(m string) bool { return m == "/stockdetails.AuthService/Authenticate" }
	return NewGate(v, isPublic, logger.NewNopLogger())
}

func withToken(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(),
		metadata.Pairs(AuthorizationHeader, "Bearer "+token))
}

func TestGate_Unary(t *testing.T) {
	now := baseTime
	gate := newTestGate(&now)
	interceptor := gate.UnaryServerInterceptor()
	token, _ := issue(t, testAuthConfig(), baseTime, "clientId2", "secret2")

	var seen string
	handler := func(ctx context.Context, req any) (any, error) {
		seen, _ = ClientIDFromContext(ctx)
		return "ok", nil
	}
	info := &grpc.UnaryServerInfo{FullMethod: "/stockdetails.StockService/GetStockPrice"}

	resp, err := interceptor(withToken(token), nil, info, handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, "clientId2", seen)

	_, err = interceptor(context.Background(), nil, info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "unauthenticated", status.Convert(err).Message())

	now = baseTime.Add(time.Minute)
	_, err = interceptor(withToken(token), nil, info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "unauthenticated", status.Convert(err).Message())
}

func TestGate_PublicMethodBypasses(t *testing.T) {
	now := baseTime
	gate := newTestGate(&now)
	called := false
	handler := func(ctx context.Context, req any) (any, error) {
		called = true
		return nil, nil
	}
	info := &grpc.UnaryServerInfo{FullMethod: "/stockdetails.AuthService/Authenticate"}

	_, err := gate.UnaryServerInterceptor()(context.Background(), nil, info, handler)
	require.NoError(t, err)
	assert.True(t, called)
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeServerStream) Context() context.Context { return s.ctx }

func TestGate_Stream(t *testing.T) {
	now := baseTime
	gate := newTestGate(&now)
	interceptor := gate.StreamServerInterceptor()
	token, _ := issue(t, testAuthConfig(), baseTime, "clientId1", "secret1")
	info := &grpc.StreamServerInfo{FullMethod: "/stockdetails.StockService/GetCompanyStockPriceStream"}

	var seen string
	handler := func(srv any, ss grpc.ServerStream) error {
		seen, _ = ClientIDFromContext(ss.Context())
		return nil
	}

	require.NoError(t, interceptor(nil, &fakeServerStream{ctx: withToken(token)}, info, handler))
	assert.Equal(t, "clientId1", seen)

	err := interceptor(nil, &fakeServerStream{ctx: withToken("garbage")}, info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestGate_AuthorizeRequest(t *testing.T) {
	now := baseTime
	gate := newTestGate(&now)
	token, _ := issue(t, testAuthConfig(), baseTime, "clientId1", "secret1")

	r := httptest.NewRequest("GET", "/ws/prices", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	clientID, err := gate.AuthorizeRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "clientId1", clientID)

	r = httptest.NewRequest("GET", "/ws/prices?token="+token, nil)
	clientID, err = gate.AuthorizeRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "clientId1", clientID)

	r = httptest.NewRequest("GET", "/ws/prices", nil)
	_, err = gate.AuthorizeRequest(r)
	assert.ErrorIs(t, err, ErrMissingToken)
}
