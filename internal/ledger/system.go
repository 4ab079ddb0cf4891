package ledger

import (
	"fmt"

	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/wire"
)

// System instruction tags (u32 little-endian, as on Solana). Tag 1, assign,
// is not implemented.
const (
	SystemCreateAccount uint32 = 0
	SystemTransfer      uint32 = 2
)

// CreateAccount funds, sizes and assigns a fresh account. Both accounts sign;
// for a derived address the owning program signs through InvokeSigned.
func CreateAccount(from, to identity.Identity, lamports, space uint64, owner identity.Identity) Instruction {
	w := wire.NewWriter(4 + 8 + 8 + identity.Size)
	w.U32(SystemCreateAccount)
	w.U64(lamports)
	w.U64(space)
	w.Identity(owner)
	return Instruction{
		ProgramID: SystemProgramID,
		Accounts:  []AccountMeta{NewAccountMeta(from, true), NewAccountMeta(to, true)},
		Data:      w.Bytes(),
	}
}

// Transfer moves lamports out of a system-owned account.
func Transfer(from, to identity.Identity, lamports uint64) Instruction {
	w := wire.NewWriter(12)
	w.U32(SystemTransfer)
	w.U64(lamports)
	return Instruction{
		ProgramID: SystemProgramID,
		Accounts:  []AccountMeta{NewAccountMeta(from, true), NewAccountMeta(to, false)},
		Data:      w.Bytes(),
	}
}

type systemProgram struct{}

func (systemProgram) Process(ctx InvokeContext, accounts []*AccountInfo, data []byte) error {
	r := wire.NewReader(data)
	tag := r.U32()
	switch tag {
	case SystemCreateAccount:
		lamports, space, owner := r.U64(), r.U64(), r.Identity()
		if err := r.Finish(); err != nil {
			return fmt.Errorf("%w: create account: %v", ErrInvalidInstructionData, err)
		}
		if len(accounts) < 2 {
			return ErrNotEnoughAccountKeys
		}
		return createAccount(accounts[0], accounts[1], lamports, space, owner)
	case SystemTransfer:
		lamports := r.U64()
		if err := r.Finish(); err != nil {
			return fmt.Errorf("%w: transfer: %v", ErrInvalidInstructionData, err)
		}
		if len(accounts) < 2 {
			return ErrNotEnoughAccountKeys
		}
		return transfer(accounts[0], accounts[1], lamports)
	default:
		if r.Err() != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstructionData, r.Err())
		}
		return fmt.Errorf("%w: system instruction %d", ErrInvalidInstructionData, tag)
	}
}

func transfer(from, to *AccountInfo, lamports uint64) error {
	if !from.IsSigner {
		return fmt.Errorf("%w: transfer from %s", ErrMissingRequiredSignature, from.Address)
	}
	if len(from.Data) > 0 {
		return fmt.Errorf("%w: transfer source %s carries data", ErrInvalidInstructionData, from.Address)
	}
	if from.Lamports < lamports {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, from.Address, from.Lamports, lamports)
	}
	from.Lamports -= lamports
	to.Lamports += lamports
	return nil
}

func createAccount(from, to *AccountInfo, lamports, space uint64, owner identity.Identity) error {
	if !to.IsSigner {
		return fmt.Errorf("%w: new account %s", ErrMissingRequiredSignature, to.Address)
	}
	if to.Owner != SystemProgramID || len(to.Data) > 0 || to.Executable {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInitialized, to.Address)
	}
	if space > MaxAccountDataSize {
		return fmt.Errorf("%w: %d bytes", ErrAccountDataTooLarge, space)
	}
	if err := transfer(from, to, lamports); err != nil {
		return err
	}
	to.Data = make([]byte, space)
	to.Owner = owner
	return nil
}
