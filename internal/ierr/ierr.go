// Package ierr maps the core's concept-level error kinds onto gRPC status
// codes, the way _examples/other_examples' vad-silero server reports
// validation failures.
package ierr

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// InvalidArgument reports a user-supplied value failing a stated invariant:
// unknown enum, duplicate id, size/count mismatch, narrowing overflow, etc.
func InvalidArgument(format string, args ...any) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}

// OutOfRange reports a narrowing cast that lost information.
func OutOfRange(format string, args ...any) error {
	return status.Errorf(codes.OutOfRange, format, args...)
}

// Unknown reports a stray parameter block or other configuration accepted
// provisionally but missing a required prerequisite.
func Unknown(format string, args ...any) error {
	return status.Errorf(codes.Unknown, format, args...)
}

// Unimplemented reports a stable-spec code with no implementation here.
func Unimplemented(format string, args ...any) error {
	return status.Errorf(codes.Unimplemented, format, args...)
}

// FailedPrecondition reports an ordering violation of a state machine.
func FailedPrecondition(format string, args ...any) error {
	return status.Errorf(codes.FailedPrecondition, format, args...)
}

// MalformedObu reports a parse-time violation of the bitstream codec.
func MalformedObu(format string, args ...any) error {
	return status.Errorf(codes.DataLoss, format, args...)
}

// Is reports whether err carries the given gRPC code, unwrapping through
// fmt.Errorf("...: %w", err) chains the way the rest of the module wraps
// these errors when adding context.
func Is(err error, code codes.Code) bool {
	return status.Code(err) == code
}

// Wrap adds context to err while preserving its status code, mirroring the
// teacher's fmt.Errorf("...: %w", err) convention.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}
