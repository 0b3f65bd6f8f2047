package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/dmitrijs2005/gophlock/internal/biometric"
	"github.com/dmitrijs2005/gophlock/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Platform is the biometric capability the server fronts.
type Platform = biometric.Authenticator

type Server struct {
	address   string
	platform  Platform
	logger    logging.Logger
	secretKey []byte
}

func NewServer(address string, p Platform, l logging.Logger, secretKey string) (*Server, error) {
	if p == nil {
		return nil, errors.New("bridge: nil platform")
	}
	if secretKey == "" {
		return nil, errors.New("bridge: empty secret key")
	}
	if l == nil {
		l = logging.Nop{}
	}
	return &Server{
		address:   address,
		platform:  p,
		logger:    l.With("module", "bridge_server"),
		secretKey: []byte(secretKey),
	}, nil
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoverInterceptor, s.authInterceptor))
	RegisterBiometricServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping bridge server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting bridge server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}

func (s *Server) Assert(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeAssertRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if rid, ok := ctx.Value(requestIDCtxKey).(string); ok && rid != req.RequestID {
		return nil, status.Error(codes.Unauthenticated, "token was not issued for this request")
	}

	log := s.logger.With("request_id", req.RequestID, "rp_id", req.Request.RelyingPartyID)
	log.Info(ctx, "assertion requested")

	proof, err := s.platform.Assert(ctx, req.Request)
	if err != nil {
		log.Info(ctx, "assertion failed", "error", err)
		return nil, statusFromError(ctx, err)
	}
	if len(proof) == 0 {
		return nil, status.Error(codes.Internal, fmt.Sprintf("%s: platform returned an empty credential", biometric.KindUnknown))
	}

	log.Info(ctx, "assertion granted")
	return encodeProof(proof), nil
}

func (s *Server) Available(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	ok, err := s.platform.Available(ctx)
	if err != nil {
		return nil, statusFromError(ctx, err)
	}
	return encodeAvailable(ok), nil
}

// statusFromError is the inverse of kindFromStatus. The platform kind is kept
// as a message prefix.
func statusFromError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return status.FromContextError(ctx.Err()).Err()
	}

	var pe *biometric.PlatformError
	if !errors.As(err, &pe) {
		pe = &biometric.PlatformError{Kind: biometric.KindUnknown, Message: err.Error()}
	}

	var code codes.Code
	switch pe.Kind {
	case biometric.KindAbort:
		code = codes.Aborted
	case biometric.KindNotAllowed:
		code = codes.PermissionDenied
	case biometric.KindTimeout:
		code = codes.DeadlineExceeded
	case biometric.KindNetwork:
		code = codes.Unavailable
	case biometric.KindNotSupported:
		code = codes.Unimplemented
	case biometric.KindInvalidState:
		code = codes.FailedPrecondition
	default:
		code = codes.Internal
	}
	return status.Error(code, fmt.Sprintf("%s: %s", pe.Kind, pe.Message))
}
