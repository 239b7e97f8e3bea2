// Package common defines shared constants and sentinel errors used across
// the access, membership and workflow layers. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Workflow errors.
	ErrGuardViolation         = errors.New("guard violation")
	ErrInvalidSource          = errors.New("invalid source state")
	ErrUnknownTransition      = errors.New("unknown transition")
	ErrInvalidDefinition      = errors.New("invalid workflow definition")
	ErrConcurrentModification = errors.New("concurrent modification")

	// Membership errors.
	ErrEmptyRoleSet     = errors.New("empty role set")
	ErrAlreadyRevoked   = errors.New("membership already revoked")
	ErrUnknownFlag      = errors.New("unknown role flag")
	ErrMembershipExists = errors.New("active membership already exists")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
