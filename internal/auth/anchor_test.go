package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseAnchor(t *testing.T) {
	t.Parallel()

	secret := []byte("anchor-secret")
	in := roles.Anchor{
		Kind:      "review_link",
		Target:    roles.Ref{Kind: "proposal", ID: uuid.New()},
		ExpiresAt: time.Now().Add(time.Hour).Truncate(time.Second),
	}

	tok, err := IssueAnchor(in, secret)
	require.NoError(t, err)

	out, err := ParseAnchor(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, in.Kind, out.Kind)
	assert.Equal(t, in.Target, out.Target)
	assert.True(t, in.ExpiresAt.Equal(out.ExpiresAt))
}

func TestParseAnchor_NoExpiry(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := IssueAnchor(roles.Anchor{Kind: "participant_ticket", Target: roles.Ref{Kind: "project", ID: uuid.New()}}, secret)
	require.NoError(t, err)

	out, err := ParseAnchor(tok, secret)
	require.NoError(t, err)
	assert.True(t, out.ExpiresAt.IsZero())
}

func TestParseAnchor_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := IssueAnchor(roles.Anchor{
		Kind:      "review_link",
		Target:    roles.Ref{Kind: "proposal", ID: uuid.New()},
		ExpiresAt: time.Now().Add(-time.Minute),
	}, secret)
	require.NoError(t, err)

	_, err = ParseAnchor(tok, secret)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestParseAnchor_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := IssueAnchor(roles.Anchor{Kind: "review_link", Target: roles.Ref{Kind: "proposal", ID: uuid.New()}}, []byte("a"))
	require.NoError(t, err)

	_, err = ParseAnchor(tok, []byte("b"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseAnchor_AccessTokenIsNotAnAnchor(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := GenerateToken(uuid.New(), secret, time.Hour)
	require.NoError(t, err)

	_, err = ParseAnchor(tok, secret)
	require.True(t, errors.Is(err, common.ErrInvalidToken))
}

func TestParseAnchor_BadTargetID(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AnchorClaims{Kind: "review_link", TargetKind: "proposal", TargetID: "42"}).
		SignedString(secret)
	require.NoError(t, err)

	_, err = ParseAnchor(tok, secret)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseAnchor_CarriesNoRoles(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	target := uuid.New()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"knd":   "review_link",
		"tk":    "proposal",
		"tid":   target.String(),
		"roles": []string{"project_editor"},
	}).SignedString(secret)
	require.NoError(t, err)

	out, err := ParseAnchor(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, roles.Anchor{Kind: "review_link", Target: roles.Ref{Kind: "proposal", ID: target}}, out)
}
