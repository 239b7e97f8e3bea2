// Package rpcstatus adapts the service layer to gRPC: it turns domain
// errors into status codes and identifies callers from request metadata.
package rpcstatus

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/funnel/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code maps a service error onto a gRPC code.
func Code(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, common.ErrorNotFound):
		return codes.NotFound
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return codes.Unauthenticated
	case errors.Is(err, common.ErrGuardViolation):
		return codes.PermissionDenied
	case errors.Is(err, common.ErrInvalidSource),
		errors.Is(err, common.ErrAlreadyRevoked):
		return codes.FailedPrecondition
	case errors.Is(err, common.ErrConcurrentModification):
		return codes.Aborted
	case errors.Is(err, common.ErrMembershipExists):
		return codes.AlreadyExists
	case errors.Is(err, common.ErrUnknownTransition),
		errors.Is(err, common.ErrEmptyRoleSet),
		errors.Is(err, common.ErrUnknownFlag):
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// Error converts err into a status error. Internal errors lose their text.
func Error(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := Code(err)
	if code == codes.Internal {
		return status.Error(codes.Internal, common.ErrorInternal.Error())
	}
	return status.Error(code, err.Error())
}
