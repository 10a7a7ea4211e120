package auth

import (
	"errors"
	"net/http"
	"strings"
)

// Authenticator decorates outgoing requests with credentials
type Authenticator interface {
	Authenticate(*http.Request) error
}

// No authentication
type NoneAuth struct{}

func (a *NoneAuth) Authenticate(r *http.Request) error {
	return nil
}

// HTTP Basic Auth
type BasicAuth struct {
	Username string
	Password string
}

func (a *BasicAuth) Authenticate(r *http.Request) error {
	r.SetBasicAuth(a.Username, a.Password)
	return nil
}

// Token-based auth
type TokenAuth struct {
	Token string
}

func (a *TokenAuth) Authenticate(r *http.Request) error {
	r.Header.Set("Authorization", "Bearer "+a.Token)
	return nil
}

// ErrUnauthorized is returned by verifiers for rejected requests
var ErrUnauthorized = errors.New("unauthorized")

// Verifier checks incoming requests on the serving side
type Verifier interface {
	Verify(*http.Request) error
}

// Open access
type NoneVerifier struct{}

func (v *NoneVerifier) Verify(r *http.Request) error {
	return nil
}

// TokenVerifier accepts requests carrying a matching bearer token
type TokenVerifier struct {
	Token string
}

func (v *TokenVerifier) Verify(r *http.Request) error {
	header := r.Header.Get("Authorization")
	if strings.TrimPrefix(header, "Bearer ") != v.Token || header == "" {
		return ErrUnauthorized
	}
	return nil
}
