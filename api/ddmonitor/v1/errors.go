package ddmv1

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solanafuns/ddmonitor/internal/ledger"
	"github.com/solanafuns/ddmonitor/internal/program"
)

// ToStatus converts a ledger or program error into a gRPC status. Known
// errors carry their program code as a "[code] " message prefix.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	c := statusCode(err)
	if n := program.Code(err); n != 0 {
		return status.Errorf(c, "[%d] %s", n, err.Error())
	}
	return status.Error(c, err.Error())
}

func statusCode(err error) codes.Code {
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, ledger.ErrAccountNotFound):
		return codes.NotFound
	case errors.Is(err, ledger.ErrClosed):
		return codes.Unavailable
	case errors.Is(err, ledger.ErrFaucetDisabled):
		return codes.Unimplemented
	case errors.Is(err, ledger.ErrMissingRequiredSignature),
		errors.Is(err, ledger.ErrInvalidSignature),
		errors.Is(err, program.ErrUnauthorized):
		return codes.PermissionDenied
	case errors.Is(err, ledger.ErrDuplicateTransaction),
		errors.Is(err, ledger.ErrAccountAlreadyInitialized):
		return codes.AlreadyExists
	case errors.Is(err, ledger.ErrInvalidInstructionData),
		errors.Is(err, ledger.ErrMalformedTransaction),
		errors.Is(err, ledger.ErrNotEnoughAccountKeys),
		errors.Is(err, ledger.ErrAccountDataTooLarge),
		errors.Is(err, program.ErrMalformedIdentity),
		errors.Is(err, program.ErrPayloadTooLarge),
		errors.Is(err, program.ErrInvalidSeeds):
		return codes.InvalidArgument
	case program.Code(err) != 0:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

// RemoteError is a server-side error reconstructed on the client. It
// unwraps to the matching sentinel so errors.Is works across the wire.
type RemoteError struct {
	Code    codes.Code
	Message string
	cause   error
}

func (e *RemoteError) Error() string { return e.Message }
func (e *RemoteError) Unwrap() error { return e.cause }

// FromStatus reverses ToStatus. Errors without a program code are returned
// unchanged.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	msg := st.Message()
	if !strings.HasPrefix(msg, "[") {
		return err
	}
	end := strings.IndexByte(msg, ']')
	if end < 0 {
		return err
	}
	n, perr := strconv.ParseUint(msg[1:end], 10, 32)
	if perr != nil {
		return err
	}
	sentinel := program.FromCode(uint32(n))
	if sentinel == nil {
		return err
	}
	return &RemoteError{
		Code:    st.Code(),
		Message: strings.TrimSpace(msg[end+1:]),
		cause:   sentinel,
	}
}

// Errorf builds an InvalidArgument status for request validation failures.
func Errorf(format string, args ...any) error {
	return status.Error(codes.InvalidArgument, fmt.Sprintf(format, args...))
}
