package rpcstatus

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/funnel/internal/auth"
	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/logging"
	"github.com/dmitrijs2005/funnel/internal/models"
	"github.com/dmitrijs2005/funnel/internal/roles"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type users map[uuid.UUID]*models.User

func (u users) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, common.ErrorNotFound
}

var info = &grpc.UnaryServerInfo{FullMethod: "/funnel.Proposals/Transition"}

func TestIdentityInterceptor_Anonymous(t *testing.T) {
	i := IdentityInterceptor(auth.NewAuthenticator([]byte("secret"), users{}, logging.Nop()), logging.Nop())

	var got auth.Identity
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		got = auth.FromContext(ctx)
		return "ok", nil
	}

	resp, err := i(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
	if got.Actor != nil || len(got.Anchors) != 0 {
		t.Fatalf("expected anonymous identity, got %+v", got)
	}
}

func TestIdentityInterceptor_ActorAndAnchor(t *testing.T) {
	secret := []byte("secret")
	u := &models.User{ID: uuid.New(), Username: "alice"}
	i := IdentityInterceptor(auth.NewAuthenticator(secret, users{u.ID: u}, logging.Nop()), logging.Nop())

	token, err := auth.GenerateToken(u.ID, secret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	anchor, err := auth.IssueAnchor(roles.Anchor{
		Kind: "review_link", Target: roles.Ref{Kind: "proposal", ID: uuid.New()},
	}, secret)
	if err != nil {
		t.Fatalf("IssueAnchor: %v", err)
	}

	md := metadata.Pairs(common.AccessTokenHeaderName, token, common.AnchorHeaderName, anchor, common.AnchorHeaderName, "garbage")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	var got auth.Identity
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		got = auth.FromContext(ctx)
		return nil, nil
	}

	if _, err := i(ctx, nil, info, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ActorID() != u.ID {
		t.Fatalf("expected actor %s, got %s", u.ID, got.ActorID())
	}
	if len(got.Anchors) != 1 {
		t.Fatalf("expected 1 anchor, got %d", len(got.Anchors))
	}
}

func TestIdentityInterceptor_InvalidToken(t *testing.T) {
	i := IdentityInterceptor(auth.NewAuthenticator([]byte("secret"), users{}, logging.Nop()), logging.Nop())
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.AccessTokenHeaderName, "bad"))

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called with a bad token")
		return nil, nil
	}

	_, err := i(ctx, nil, info, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
}

func TestErrorInterceptor_Translates(t *testing.T) {
	i := ErrorInterceptor(logging.Nop())
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, common.ErrGuardViolation
	}

	_, err := i(context.Background(), nil, info, h)
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", status.Code(err))
	}
}
