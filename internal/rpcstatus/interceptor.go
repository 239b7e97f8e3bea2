package rpcstatus

import (
	"context"

	"github.com/dmitrijs2005/funnel/internal/auth"
	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// IdentityInterceptor places the caller's auth.Identity, read from the
// access token and anchor metadata, in the context of every unary call. Calls without an access token run anonymously.
func IdentityInterceptor(a *auth.Authenticator, logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		var (
			accessToken string
			anchors     []string
		)
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
				accessToken = values[0]
			}
			anchors = md.Get(common.AnchorHeaderName)
		}

		id, err := a.Identify(ctx, accessToken, anchors)
		if err != nil {
			logger.Warn(ctx, "identification failed", "method", info.FullMethod, "error", err)
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		}

		return handler(auth.WithIdentity(ctx, id), req)
	}
}

// ErrorInterceptor converts handler errors with Error.
func ErrorInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err != nil && Code(err) == codes.Internal {
			logger.Error(ctx, "call failed", "method", info.FullMethod, "error", err)
		}
		return resp, Error(err)
	}
}
