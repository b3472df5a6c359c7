package grpc_control_test

import (
	"context"

	"stock-data-service/src/auth"

	"google.golang.org/grpc/metadata"
)

func authorized(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), auth.AuthorizationHeader, "Bearer "+token)
}
