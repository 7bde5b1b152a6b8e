// Package client is the gateway's gRPC client. It keeps the current token
// pair, attaches the access token to protected calls and, when the server
// answers "token expired", rotates the pair once and retries the call.
//
// Errors are mapped to ErrUnauthorized, ErrNotFound and ErrUnavailable so
// callers do not depend on gRPC status codes.
package client
