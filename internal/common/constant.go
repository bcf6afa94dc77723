// Package common contains shared constants and sentinel errors used across
// authkeeper components.
package common

// AuthorizationHeaderName is the HTTP header / gRPC metadata key carrying
// the bearer access token.
const AuthorizationHeaderName = "authorization"

// BearerScheme is the authorization scheme expected in front of the token.
const BearerScheme = "Bearer"
