package bridge

import (
	"context"

	"github.com/dmitrijs2005/gophlock/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const requestIDCtxKey ctxKey = "requestID"

// authInterceptor rejects calls without a valid token.
func (s *Server) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AuthorizationHeaderName)
		if len(values) > 0 {
			header = values[0]
		}
	}
	if len(header) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	token, err := fromBearer(header)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	claims, err := ParseToken(token, s.secretKey)
	if err != nil {
		s.logger.Warn(ctx, "rejected bridge call", "method", info.FullMethod, "error", err)
		return nil, status.Error(codes.Unauthenticated, common.ErrorUnauthorized.Error())
	}

	ctx = context.WithValue(ctx, requestIDCtxKey, claims.RequestID)
	return handler(ctx, req)
}

// recoverInterceptor turns a platform panic into an Internal status.
func (s *Server) recoverInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "bridge handler panicked", "method", info.FullMethod, "panic", r)
			err = status.Error(codes.Internal, "UnknownError: internal bridge failure")
		}
	}()
	return handler(ctx, req)
}
