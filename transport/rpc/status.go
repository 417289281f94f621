package rpc

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// newStatusError builds a *grpc/status.Status-backed error from a wire
// status code/message pair, the same shape bulkwriter expects for every
// PerOperation and Transport failure (spec.md §7).
func newStatusError(code int32, message string) error {
	return status.Error(codes.Code(code), message)
}
