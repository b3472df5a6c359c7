package grpc_control

import (
	context "context"
	"time"

	"stock-data-service/src/logger"

	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// remoteAddr returns the caller address, preferring x-forwarded-for set by a proxy.
func remoteAddr(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if forwardedFor := md.Get("x-forwarded-for"); len(forwardedFor) > 0 {
			return forwardedFor[0]
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p != nil && p.Addr != nil {
		return p.Addr.String()
	}
	return "unknown"
}

// -----------------------------------------------------------------------------

// accessLogUnaryInterceptor logs caller, method, status and duration of unary calls.
func accessLogUnaryInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Debug("%s : %s from %s -> %s (%s)",
			log.Name, info.FullMethod, remoteAddr(ctx), status.Code(err), time.Since(start))
		return resp, err
	}
}

// -----------------------------------------------------------------------------

// accessLogStreamInterceptor logs streaming calls when they end.
func accessLogStreamInterceptor(log *logger.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		log.Debug("%s : %s from %s -> %s (%s)",
			log.Name, info.FullMethod, remoteAddr(ss.Context()), status.Code(err), time.Since(start))
		return err
	}
}
