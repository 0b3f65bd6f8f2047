// Package bridge reaches the platform biometric capability over gRPC.
//
// The lock process holds a Client, which implements biometric.Authenticator.
// A Server runs next to the platform authenticator (cmd/biobridge) and hands
// each request to a Platform. Messages are google.protobuf.Struct values so
// the bridge needs no generated code; every call carries a short-lived HS256
// token signed with a shared secret.
//
// Platform failures travel as gRPC status codes and are mapped back onto the
// biometric.ErrorKind set on the client side.
package bridge
