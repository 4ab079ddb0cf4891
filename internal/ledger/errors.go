package ledger

import "errors"

// Host errors. Programs return these (wrapped) so callers can match them
// with errors.Is on either side of the RPC boundary.
var (
	ErrMissingRequiredSignature  = errors.New("ledger: missing required signature")
	ErrInvalidSignature          = errors.New("ledger: invalid signature")
	ErrAccountNotWritable        = errors.New("ledger: account not writable")
	ErrIncorrectProgramID        = errors.New("ledger: incorrect program id")
	ErrUninitializedAccount      = errors.New("ledger: uninitialized account")
	ErrAccountAlreadyInitialized = errors.New("ledger: account already initialized")
	ErrInvalidInstructionData    = errors.New("ledger: invalid instruction data")
	ErrInvalidSeeds              = errors.New("ledger: invalid seeds")
	ErrInsufficientFunds         = errors.New("ledger: insufficient funds")
	ErrNotEnoughAccountKeys      = errors.New("ledger: not enough account keys")
	ErrUnknownProgram            = errors.New("ledger: unknown program")
	ErrExternalAccountModified   = errors.New("ledger: program modified an account it does not own")
	ErrUnbalancedInstruction     = errors.New("ledger: lamports not conserved")
	ErrAccountDataTooLarge       = errors.New("ledger: account data too large")
	ErrCallDepth                 = errors.New("ledger: cross-program call depth exceeded")
	ErrFaucetDisabled            = errors.New("ledger: faucet disabled")
	ErrMalformedTransaction      = errors.New("ledger: malformed transaction")
	ErrDuplicateTransaction      = errors.New("ledger: duplicate transaction")
	ErrAccountNotFound           = errors.New("ledger: account not found")
	ErrClosed                    = errors.New("ledger: closed")
)
