// Package auth guards the administrative surface.
package auth

import "crypto/subtle"

// Authorizer decides whether a presented credential grants admin access.
type Authorizer interface {
	Check(credential string) bool
}

// StaticToken authorizes requests carrying one fixed shared secret.
type StaticToken struct {
	token string
}

func NewStaticToken(token string) *StaticToken {
	return &StaticToken{token: token}
}

func (a *StaticToken) Check(credential string) bool {
	if credential == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(credential), []byte(a.token)) == 1
}
