package grpc

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var publicMethods = map[string]struct{}{
	MethodRegister: {},
	MethodLogin:    {},
	MethodRefresh:  {},
}

func isPublic(fullMethod string) bool {
	if strings.HasPrefix(fullMethod, "/grpc.health.v1.Health/") {
		return true
	}
	_, ok := publicMethods[fullMethod]
	return ok
}

// accessTokenInterceptor authenticates every non-public call and puts the
// user into the handler context.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if isPublic(info.FullMethod) {
		return handler(ctx, req)
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AuthorizationHeaderName); len(values) > 0 {
			header = values[0]
		}
	}

	user, err := s.authn.Authenticate(ctx, auth.BearerToken(header))
	if err != nil {
		return nil, toStatus(err)
	}

	return handler(logging.ContextWith(auth.WithUser(ctx, user), "user_id", user.ID), req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(logging.ContextWith(ctx, "grpc_method", info.FullMethod), req)

	args := []any{"method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start)}
	if err != nil {
		s.logger.Warn(ctx, "gRPC call failed", args...)
	} else {
		s.logger.Info(ctx, "gRPC call", args...)
	}
	return resp, err
}
