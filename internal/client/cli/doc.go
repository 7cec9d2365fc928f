// Package cli is an interactive command-line client for the groupchat
// server. It covers accounts, friends, groups, messages and group icons
// over gRPC; live subscriptions are left to WebSocket clients.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits
// or input ends.
package cli
