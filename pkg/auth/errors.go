package auth

import "errors"

var (
	ErrNoIdentity       = errors.New("auth: no caller identity")
	ErrNoPrincipal      = errors.New("auth: identity response has no principal")
	ErrInvalidToken     = errors.New("auth: invalid token")
	ErrIdentityEndpoint = errors.New("auth: identity endpoint failed")
	ErrNotConfigured    = errors.New("auth: identity endpoint not configured")
)
