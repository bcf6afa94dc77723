// Package client talks to the authkeeper HTTP API.
//
// HTTPClient is stateless: callers pass the access token to the methods that
// need it. Transport failures come back as ErrUnavailable, a 401 as
// ErrUnauthorized, a 409 as ErrConflict and a 404 on logout as ErrNoSession.
// Any other error status is returned as *APIError.
package client
