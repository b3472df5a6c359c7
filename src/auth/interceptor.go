package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"stock-data-service/src/logger"
	"stock-data-service/src/metrics"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// AuthorizationHeader is the metadata key carrying "Bearer <token>".
const AuthorizationHeader = "authorization"

const bearerPrefix = "bearer "

type clientIDKey struct{}

// -----------------------------------------------------------------------------

// WithClientID stores the authenticated client id in ctx.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey{}, clientID)
}

// ClientIDFromContext returns the client id placed by the gate.
func ClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDKey{}).(string)
	return id, ok
}

// -----------------------------------------------------------------------------

// BearerToken extracts the token from an authorization header value.
func BearerToken(header string) (string, bool) {
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

// -----------------------------------------------------------------------------

// TokenFromMetadata reads the bearer token of an incoming call.
func TokenFromMetadata(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", ErrMissingToken
	}
	for _, value := range md.Get(AuthorizationHeader) {
		if token, ok := BearerToken(value); ok {
			return token, nil
		}
	}
	return "", ErrMissingToken
}

// -----------------------------------------------------------------------------

// Gate runs ahead of every RPC and rejects calls without a valid token.
// Streams are checked once, when they are established.
type Gate struct {
	Name      string
	validator *Validator
	isPublic  func(fullMethod string) bool
	logger    *logger.Logger
}

// -----------------------------------------------------------------------------

// NewGate creates the call gate. isPublic lists methods that skip validation.
func NewGate(validator *Validator, isPublic func(fullMethod string) bool, logger *logger.Logger) *Gate {
	if isPublic == nil {
		isPublic = func(string) bool { return false }
	}
	return &Gate{
		Name:      "TokenGate",
		validator: validator,
		isPublic:  isPublic,
		logger:    logger,
	}
}

// -----------------------------------------------------------------------------

// authorize validates the incoming token and returns a context carrying the client id.
func (g *Gate) authorize(ctx context.Context, fullMethod string) (context.Context, error) {
	if g.isPublic(fullMethod) {
		return ctx, nil
	}

	token, err := TokenFromMetadata(ctx)
	if err == nil {
		var clientID string
		clientID, err = g.validator.Validate(token)
		if err == nil {
			g.logger.Debug("%s : client '%s' authorized for %s", g.Name, clientID, fullMethod)
			return WithClientID(ctx, clientID), nil
		}
	}

	metrics.AuthRejected(rejectionReason(err))
	g.logger.Info("%s : rejected call to %s: %v", g.Name, fullMethod, err)
	return nil, status.Error(codes.Unauthenticated, "unauthenticated")
}

// -----------------------------------------------------------------------------

// UnaryServerInterceptor gates unary calls.
func (g *Gate) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := g.authorize(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// -----------------------------------------------------------------------------

// StreamServerInterceptor gates streaming calls at establishment.
func (g *Gate) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := g.authorize(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: ctx})
	}
}

// -----------------------------------------------------------------------------

// AuthorizeRequest validates a plain HTTP request carrying the token in the
// Authorization header or, for browsers opening websockets, the token query parameter.
func (g *Gate) AuthorizeRequest(r *http.Request) (string, error) {
	token, ok := BearerToken(r.Header.Get("Authorization"))
	if !ok {
		token = r.URL.Query().Get("token")
	}

	clientID, err := g.validator.Validate(token)
	if err != nil {
		metrics.AuthRejected(rejectionReason(err))
		g.logger.Info("%s : rejected HTTP request to %s: %v", g.Name, r.URL.Path, err)
		return "", err
	}
	return clientID, nil
}

// -----------------------------------------------------------------------------

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}

// -----------------------------------------------------------------------------

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrTokenExpired):
		return "expired_token"
	default:
		return "invalid_token"
	}
}
