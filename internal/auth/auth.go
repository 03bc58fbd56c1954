// Package auth resolves caller tokens to principals.
//
// The only implementation is a shared secret: one username/password pair that
// yields one static token. Holding the token does not bind a caller to the
// username they put in an order request.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

type Principal struct {
	Username string
}

type TokenAuthenticator interface {
	Login(ctx context.Context, username, password string) (string, Principal, error)
	Authenticate(ctx context.Context, token string) (Principal, error)
}

type StaticAuthenticator struct {
	username string
	password string
	token    string
}

func NewStaticAuthenticator(username, password, token string) *StaticAuthenticator {
	return &StaticAuthenticator{
		username: username,
		password: password,
		token:    token,
	}
}

func (a *StaticAuthenticator) Login(_ context.Context, username, password string) (string, Principal, error) {
	userOK := equal(username, a.username)
	passOK := equal(password, a.password)
	if !userOK || !passOK {
		return "", Principal{}, ErrInvalidCredentials
	}
	return a.token, Principal{Username: username}, nil
}

func (a *StaticAuthenticator) Authenticate(_ context.Context, token string) (Principal, error) {
	if token == "" || !equal(token, a.token) {
		return Principal{}, ErrUnauthorized
	}
	return Principal{Username: a.username}, nil
}

// TokenFromRequest reads x-auth-token, falling back to a Bearer authorization header.
func TokenFromRequest(r *http.Request) string {
	if token := r.Header.Get("X-Auth-Token"); token != "" {
		return token
	}
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
