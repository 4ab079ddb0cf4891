package ledger

import (
	"time"

	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/pkg/log"
)

// AccountInfo is a program's view of one account for one instruction. The
// embedded Account is shared by every instruction of the transaction, so
// writes are visible to later instructions and to cross-program calls.
type AccountInfo struct {
	Address    identity.Identity
	IsSigner   bool
	IsWritable bool
	*Account
}

// InvokeContext is what the host offers a running program.
type InvokeContext interface {
	// ProgramID is the identity of the running program.
	ProgramID() identity.Identity
	// UnixTimestamp is the host clock at transaction start.
	UnixTimestamp() int64
	Rent() Rent
	// Invoke calls another program with the caller's signer privileges.
	Invoke(ix Instruction) error
	// InvokeSigned also signs for each address derived from signerSeeds
	// under the calling program.
	InvokeSigned(ix Instruction, signerSeeds ...[][]byte) error
	Logger() log.Logger
}

// Program executes instructions addressed to its ID.
type Program interface {
	Process(ctx InvokeContext, accounts []*AccountInfo, data []byte) error
}

// ProgramFunc adapts a function to Program.
type ProgramFunc func(ctx InvokeContext, accounts []*AccountInfo, data []byte) error

func (f ProgramFunc) Process(ctx InvokeContext, accounts []*AccountInfo, data []byte) error {
	return f(ctx, accounts, data)
}

// Clock supplies host time.
type Clock func() time.Time
