package grpc

import (
	"errors"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC statuses. Auth failures never carry
// detail about which check failed.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrConflict):
		return status.Error(codes.AlreadyExists, "user already exists")
	case common.IsLoginFailure(err):
		return status.Error(codes.Unauthenticated, "login failed")
	case common.IsUnauthorized(err):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrNoActiveSession):
		return status.Error(codes.NotFound, "no active session")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
