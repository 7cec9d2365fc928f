// Package client is a thin gRPC client for the groupchat chat service. It
// keeps the bearer token of the current session and attaches it to every
// call.
package client
