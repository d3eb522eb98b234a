// Package auth provides authentication for the todo API.
package auth

import (
	"context"
	"errors"
	"net/http"
)

// AuthMethod represents the authentication method used.
type AuthMethod string

const (
	// AuthMethodNone indicates no authentication.
	AuthMethodNone AuthMethod = "none"
	// AuthMethodBasic indicates HTTP Basic authentication.
	AuthMethodBasic AuthMethod = "basic"
)

// AuthInfo holds authenticated identity information.
type AuthInfo struct {
	Method  AuthMethod
	Subject string
}

// Authenticator validates a request and returns auth info.
type Authenticator interface {
	Authenticate(r *http.Request) (*AuthInfo, error)
	Method() AuthMethod
}

// Sentinel errors for authentication failures.
var (
	ErrUnauthenticated    = errors.New("unauthenticated: no credentials provided")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// contextKey is the type for context keys in this package.
type contextKey string

// authInfoKey is the context key for AuthInfo.
const authInfoKey contextKey = "auth_info"

// FromContext retrieves AuthInfo from the context.
func FromContext(ctx context.Context) (*AuthInfo, bool) {
	info, ok := ctx.Value(authInfoKey).(*AuthInfo)
	return info, ok
}

// WithAuthInfo stores AuthInfo in the context.
func WithAuthInfo(ctx context.Context, info *AuthInfo) context.Context {
	return context.WithValue(ctx, authInfoKey, info)
}
