package auth

import (
	"time"

	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AnchorClaims is the payload of an anchor token.
type AnchorClaims struct {
	jwt.RegisteredClaims
	Kind       string `json:"knd"`
	TargetKind string `json:"tk"`
	TargetID   string `json:"tid"`
}

// IssueAnchor signs a. A zero ExpiresAt produces a token that never expires.
func IssueAnchor(a roles.Anchor, secretKey []byte) (string, error) {
	claims := AnchorClaims{
		RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(time.Now())},
		Kind:             a.Kind,
		TargetKind:       a.Target.Kind,
		TargetID:         a.Target.ID.String(),
	}
	if !a.ExpiresAt.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(a.ExpiresAt)
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
}

// ParseAnchor verifies an anchor token.
func ParseAnchor(tokenString string, secretKey []byte) (roles.Anchor, error) {
	claims := &AnchorClaims{}
	if err := parse(tokenString, claims, secretKey); err != nil {
		return roles.Anchor{}, err
	}
	if claims.Kind == "" || claims.TargetKind == "" {
		return roles.Anchor{}, common.ErrInvalidToken
	}

	id, err := uuid.Parse(claims.TargetID)
	if err != nil {
		return roles.Anchor{}, common.ErrInvalidToken
	}

	a := roles.Anchor{
		Kind:   claims.Kind,
		Target: roles.Ref{Kind: claims.TargetKind, ID: id},
	}
	if claims.ExpiresAt != nil {
		a.ExpiresAt = claims.ExpiresAt.Time
	}
	return a, nil
}
