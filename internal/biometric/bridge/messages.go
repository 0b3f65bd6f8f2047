package bridge

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophlock/internal/biometric"
	"github.com/go-webauthn/webauthn/protocol"
	"google.golang.org/protobuf/types/known/structpb"
)

// Struct field names.
const (
	fieldRequestID = "request_id"
	fieldOptions   = "options"
	fieldProof     = "proof"
	fieldAvailable = "available"
)

var ErrMalformed = errors.New("bridge: malformed message")

type assertRequest struct {
	RequestID string
	Request   biometric.Request
}

func encodeAssertRequest(id string, req biometric.Request) (*structpb.Struct, error) {
	opts, err := json.Marshal(req.Options())
	if err != nil {
		return nil, fmt.Errorf("marshal request options: %w", err)
	}
	return structpb.NewStruct(map[string]any{
		fieldRequestID: id,
		fieldOptions:   string(opts),
	})
}

func decodeAssertRequest(s *structpb.Struct) (assertRequest, error) {
	raw := s.GetFields()[fieldOptions].GetStringValue()
	if raw == "" {
		return assertRequest{}, fmt.Errorf("%w: missing %s", ErrMalformed, fieldOptions)
	}

	var opts protocol.PublicKeyCredentialRequestOptions
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return assertRequest{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(opts.Challenge) != biometric.ChallengeSize {
		return assertRequest{}, fmt.Errorf("%w: challenge is %d bytes", ErrMalformed, len(opts.Challenge))
	}

	return assertRequest{
		RequestID: s.GetFields()[fieldRequestID].GetStringValue(),
		Request:   biometric.RequestFromOptions(opts),
	}, nil
}

func encodeProof(proof []byte) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldProof: structpb.NewStringValue(base64.StdEncoding.EncodeToString(proof)),
	}}
}

func decodeProof(s *structpb.Struct) ([]byte, error) {
	proof, err := base64.StdEncoding.DecodeString(s.GetFields()[fieldProof].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return proof, nil
}

func encodeAvailable(ok bool) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldAvailable: structpb.NewBoolValue(ok),
	}}
}

func decodeAvailable(s *structpb.Struct) bool {
	return s.GetFields()[fieldAvailable].GetBoolValue()
}
