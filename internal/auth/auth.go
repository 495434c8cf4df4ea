// Package auth exposes the identity collaborator as an interface: resolve
// the current user id or fail. The ledger treats a failure as a hard
// precondition violation on every operation.
package auth

import (
	"context"
	"errors"
	"os"
)

// ErrNoUser means no identity is resolved for the current session.
var ErrNoUser = errors.New("auth: no authenticated user")

// Provider resolves the current user id.
type Provider interface {
	UserID(ctx context.Context) (string, error)
}

// Static always resolves the same user id. The CLI builds one from
// configuration; tests build one directly.
type Static struct {
	uid string
}

// NewStatic creates a Static provider for uid.
func NewStatic(uid string) Static {
	return Static{uid: uid}
}

// FromEnv creates a Static provider from the SALDO_USER_ID variable.
// The returned provider fails on every call when the variable is unset.
func FromEnv() Static {
	return Static{uid: os.Getenv("SALDO_USER_ID")}
}

// UserID implements Provider.
func (s Static) UserID(context.Context) (string, error) {
	if s.uid == "" {
		return "", ErrNoUser
	}
	return s.uid, nil
}
