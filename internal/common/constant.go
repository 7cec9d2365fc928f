// Package common contains shared constants and sentinel errors used across
// groupchat components.
package common

// AuthorizationHeaderName is the gRPC metadata key (and HTTP header) that
// carries the bearer token on one-shot requests.
const AuthorizationHeaderName = "authorization"

// BearerPrefix precedes the token inside the authorization header value.
const BearerPrefix = "Bearer "

// ErrorKindTrailerName is the gRPC trailer that carries the error kind of a
// failed call so clients can react to it without parsing messages.
const ErrorKindTrailerName = "x-error-kind"
