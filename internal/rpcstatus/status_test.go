package rpcstatus

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/funnel/internal/common"
	"github.com/dmitrijs2005/funnel/internal/workflow"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"nil", nil, codes.OK},
		{"not found", fmt.Errorf("load: %w", common.ErrorNotFound), codes.NotFound},
		{"guard", &workflow.TransitionError{Transition: "confirm", From: "draft", Err: common.ErrGuardViolation}, codes.PermissionDenied},
		{"source", &workflow.TransitionError{Transition: "submit", From: "submitted", Err: common.ErrInvalidSource}, codes.FailedPrecondition},
		{"unknown transition", common.ErrUnknownTransition, codes.InvalidArgument},
		{"empty roles", common.ErrEmptyRoleSet, codes.InvalidArgument},
		{"revoked", common.ErrAlreadyRevoked, codes.FailedPrecondition},
		{"exists", common.ErrMembershipExists, codes.AlreadyExists},
		{"race", common.ErrConcurrentModification, codes.Aborted},
		{"expired", errors.Join(common.ErrTokenExpired), codes.Unauthenticated},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"other", errors.New("db error: boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestError_HidesInternalText(t *testing.T) {
	err := Error(errors.New("db error: password=hunter2"))
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.Equal(t, "internal error", status.Convert(err).Message())
}

func TestError_KeepsStatus(t *testing.T) {
	in := status.Error(codes.Unavailable, "down")
	assert.Equal(t, in, Error(in))
	assert.NoError(t, Error(nil))
}
