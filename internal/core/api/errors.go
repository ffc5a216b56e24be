package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/datastreamer/internal/types"
)

// Error mapping for handlers.
// Samples that do not fit the root type map to INVALID_ARGUMENT.
// Types the flattener rejects map to FAILED_PRECONDITION.
// Index/reader disagreement maps to INTERNAL.
// Catalog errors map to UNAVAILABLE (see ingest).
// Context timeouts map to DEADLINE_EXCEEDED.
func statusFromError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, types.ErrTypeMismatch),
		errors.Is(err, types.ErrResolution),
		errors.Is(err, types.ErrElementAbsent):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, types.ErrUnsupportedKind),
		errors.Is(err, types.ErrMissingInstance),
		errors.Is(err, types.ErrPathTooDeep):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, types.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
