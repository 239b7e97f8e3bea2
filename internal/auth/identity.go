package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/logging"
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/google/uuid"
)

// Identity is who is calling: an optional user and the anchors presented.
type Identity struct {
	Actor   *models.User
	Anchors []roles.Anchor
}

// ActorID returns the actor's id or uuid.Nil when anonymous.
func (i Identity) ActorID() uuid.UUID {
	if i.Actor == nil {
		return uuid.Nil
	}
	return i.Actor.ID
}

// Provider exposes the identity of the current request.
type Provider interface {
	CurrentActor(ctx context.Context) *models.User
	CurrentAnchors(ctx context.Context) []roles.Anchor
}

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, anonymous if none.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(ctxKey{}).(Identity)
	return id
}

// ContextProvider reads the identity placed by WithIdentity.
type ContextProvider struct{}

func (ContextProvider) CurrentActor(ctx context.Context) *models.User {
	return FromContext(ctx).Actor
}

func (ContextProvider) CurrentAnchors(ctx context.Context) []roles.Anchor {
	return FromContext(ctx).Anchors
}

// UserLookup loads a user by id.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Authenticator turns raw tokens into an Identity.
type Authenticator struct {
	secret []byte
	users  UserLookup
	logger logging.Logger
}

func NewAuthenticator(secret []byte, users UserLookup, logger logging.Logger) *Authenticator {
	return &Authenticator{secret: secret, users: users, logger: logger}
}

// Identify verifies accessToken, if any, and every anchor token. A bad
// access token is an error. Bad anchors are logged and dropped.
func (a *Authenticator) Identify(ctx context.Context, accessToken string, anchorTokens []string) (Identity, error) {
	var id Identity

	if accessToken != "" {
		userID, err := GetUserIDFromToken(accessToken, a.secret)
		if err != nil {
			return Identity{}, err
		}
		u, err := a.users.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return Identity{}, common.ErrorUnauthorized
			}
			return Identity{}, fmt.Errorf("load actor: %w", err)
		}
		id.Actor = u
	}

	for _, tok := range anchorTokens {
		anchor, err := ParseAnchor(tok, a.secret)
		if err != nil {
			a.logger.Warn(ctx, "dropping anchor", "error", err)
			continue
		}
		id.Anchors = append(id.Anchors, anchor)
	}
	return id, nil
}
