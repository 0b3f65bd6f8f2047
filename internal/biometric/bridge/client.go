package bridge

import (
	"context"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophlock/internal/biometric"
	"github.com/dmitrijs2005/gophlock/internal/common"
	"github.com/dmitrijs2005/gophlock/internal/logging"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client is a biometric.Authenticator backed by a bridge server.
type Client struct {
	conn      *grpc.ClientConn
	secretKey []byte
	tokenTTL  time.Duration
	logger    logging.Logger
}

// NewClient connects lazily to the bridge at address. opts are appended to
// the default dial options, which use plaintext transport.
func NewClient(address, secretKey string, l logging.Logger, opts ...grpc.DialOption) (*Client, error) {
	if l == nil {
		l = logging.Nop{}
	}
	c := &Client{
		secretKey: []byte(secretKey),
		tokenTTL:  DefaultTokenTTL,
		logger:    l.With("module", "bridge_client"),
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.tokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(address, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

type requestIDKey struct{}

func withAuthorization(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationHeaderName, bearer(token))

	return metadata.NewOutgoingContext(ctx, md)
}

// tokenInterceptor signs a fresh token for every call.
func (c *Client) tokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	rid, _ := ctx.Value(requestIDKey{}).(string)
	token, err := GenerateToken(rid, c.secretKey, c.tokenTTL)
	if err != nil {
		return err
	}
	return invoker(withAuthorization(ctx, token), method, req, reply, cc, opts...)
}

// Assert forwards req to the bridge and returns the credential proof.
func (c *Client) Assert(ctx context.Context, req biometric.Request) ([]byte, error) {
	rid := uuid.NewString()
	in, err := encodeAssertRequest(rid, req)
	if err != nil {
		return nil, err
	}

	ctx = context.WithValue(ctx, requestIDKey{}, rid)
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, MethodAssert, in, out); err != nil {
		err = c.mapError(ctx, err)
		c.logger.Debug(ctx, "bridge assert failed", "request_id", rid, "error", err)
		return nil, err
	}

	return decodeProof(out)
}

// Available asks the bridge whether a user-verifying authenticator is ready.
func (c *Client) Available(ctx context.Context) (bool, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, MethodAvailable, &structpb.Struct{}, out); err != nil {
		return false, c.mapError(ctx, err)
	}
	return decodeAvailable(out), nil
}

// mapError turns a call failure into a *biometric.PlatformError, or into the
// context error when the caller gave up.
func (c *Client) mapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	st, _ := status.FromError(err)
	kind, msg := kindFromStatus(st)
	return &biometric.PlatformError{Kind: kind, Message: msg}
}

func kindFromStatus(st *status.Status) (biometric.ErrorKind, string) {
	msg := st.Message()

	var kind biometric.ErrorKind
	switch st.Code() {
	case codes.Canceled, codes.Aborted:
		kind = biometric.KindAbort
	case codes.PermissionDenied, codes.Unauthenticated:
		kind = biometric.KindNotAllowed
	case codes.DeadlineExceeded:
		kind = biometric.KindTimeout
	case codes.Unavailable:
		kind = biometric.KindNetwork
	case codes.Unimplemented:
		kind = biometric.KindNotSupported
	case codes.FailedPrecondition:
		kind = biometric.KindInvalidState
	default:
		kind = biometric.KindUnknown
	}

	// servers prefix the platform kind; it refines codes that carry no kind
	if name, rest, ok := strings.Cut(msg, ": "); ok {
		if k := biometric.ParseErrorKind(name); k != biometric.KindUnknown || name == string(biometric.KindUnknown) {
			if kind == biometric.KindUnknown {
				kind = k
			}
			msg = rest
		}
	}
	return kind, msg
}
