package ddmv1

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solanafuns/ddmonitor/internal/ledger"
	"github.com/solanafuns/ddmonitor/internal/program"
)

func TestStatusRoundTrip(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{program.ErrUnauthorized, codes.PermissionDenied},
		{program.ErrAllowListFull, codes.FailedPrecondition},
		{program.ErrInvalidSeeds, codes.InvalidArgument},
		{program.ErrAccountAlreadyInitialized, codes.AlreadyExists},
		{ledger.ErrAccountNotFound, codes.NotFound},
		{program.ErrInsufficientFunds, codes.FailedPrecondition},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("instruction 0: %w", tc.err)
		st := ToStatus(wrapped)
		if status.Code(st) != tc.code {
			t.Fatalf("%v: code %v, want %v", tc.err, status.Code(st), tc.code)
		}
		back := FromStatus(st)
		if !errors.Is(back, tc.err) {
			t.Fatalf("%v: lost sentinel, got %v", tc.err, back)
		}
		if back.Error() != wrapped.Error() {
			t.Fatalf("message %q, want %q", back.Error(), wrapped.Error())
		}
	}
}

func TestStatusUncoded(t *testing.T) {
	if ToStatus(nil) != nil || FromStatus(nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	st := ToStatus(errors.New("disk on fire"))
	if status.Code(st) != codes.Internal {
		t.Fatalf("code: %v", status.Code(st))
	}
	if FromStatus(st) != st {
		t.Fatalf("uncoded status should pass through")
	}
	if status.Code(ToStatus(context.Canceled)) != codes.Canceled {
		t.Fatalf("canceled")
	}
	already := status.Error(codes.Aborted, "x")
	if ToStatus(already) != already {
		t.Fatalf("status errors pass through")
	}
}
