// Package cli provides the interactive authkeeper command-line client.
//
// It wires configuration, the HTTP API client and an interactive REPL.
// A background watcher pings the server and flips the prompt between online
// and offline.
//
// Commands:
//   - register, login, logout
//   - refresh (mint a new access token from the refresh token)
//   - me (show the current user, refreshing the access token once on 401)
//   - status, help, exit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
