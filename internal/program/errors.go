package program

import (
	"errors"

	"github.com/solanafuns/ddmonitor/internal/address"
	"github.com/solanafuns/ddmonitor/internal/ledger"
	"github.com/solanafuns/ddmonitor/internal/queue"
)

var (
	ErrInvalidSeeds              = ledger.ErrInvalidSeeds
	ErrAccountAlreadyInitialized = ledger.ErrAccountAlreadyInitialized
	ErrMissingRequiredSignature  = ledger.ErrMissingRequiredSignature
	ErrAccountNotWritable        = ledger.ErrAccountNotWritable
	ErrIncorrectProgramID        = ledger.ErrIncorrectProgramID
	ErrUninitializedAccount      = ledger.ErrUninitializedAccount
	ErrInvalidInstructionData    = ledger.ErrInvalidInstructionData
	ErrInsufficientFunds         = ledger.ErrInsufficientFunds
	ErrNotEnoughAccountKeys      = ledger.ErrNotEnoughAccountKeys

	ErrUnauthorized      = queue.ErrUnauthorized
	ErrMalformedIdentity = queue.ErrMalformedIdentity
	ErrAllowListFull     = queue.ErrAllowListFull
	ErrPayloadTooLarge   = queue.ErrPayloadTooLarge
	ErrMalformedRecord   = queue.ErrMalformedRecord

	ErrAddressExhausted = address.ErrAddressExhausted
)

// codes assigns stable numbers to every error a transaction can fail with.
// Append only; a code is its index plus one.
var codes = []error{
	ErrInvalidSeeds,
	ErrAccountAlreadyInitialized,
	ErrUnauthorized,
	ErrMalformedIdentity,
	ErrAllowListFull,
	ErrAddressExhausted,
	ErrPayloadTooLarge,
	ErrMalformedRecord,
	ErrMissingRequiredSignature,
	ErrAccountNotWritable,
	ErrIncorrectProgramID,
	ErrUninitializedAccount,
	ErrInvalidInstructionData,
	ErrInsufficientFunds,
	ErrNotEnoughAccountKeys,
	ledger.ErrInvalidSignature,
	ledger.ErrUnknownProgram,
	ledger.ErrExternalAccountModified,
	ledger.ErrUnbalancedInstruction,
	ledger.ErrAccountDataTooLarge,
	ledger.ErrCallDepth,
	ledger.ErrFaucetDisabled,
	ledger.ErrMalformedTransaction,
	ledger.ErrDuplicateTransaction,
	ledger.ErrAccountNotFound,
}

// Code returns the stable number of the first known error in err's chain,
// or 0.
func Code(err error) uint32 {
	if err == nil {
		return 0
	}
	for i, c := range codes {
		if errors.Is(err, c) {
			return uint32(i + 1)
		}
	}
	return 0
}

// FromCode returns the sentinel for code, or nil if unknown.
func FromCode(code uint32) error {
	if code == 0 || int(code) > len(codes) {
		return nil
	}
	return codes[code-1]
}
