package ledger

import (
	"fmt"
	"time"

	"github.com/solanafuns/ddmonitor/internal/address"
	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/pkg/log"
)

// MaxInvokeDepth bounds nested cross-program calls.
const MaxInvokeDepth = 4

// txState holds the working copy of every account a transaction touches.
type txState struct {
	l        *Ledger
	accounts map[identity.Identity]*Account
	now      int64
	logger   log.Logger
}

// frame is the InvokeContext of one executing instruction.
type frame struct {
	st        *txState
	programID identity.Identity
	infos     []*AccountInfo
	pre       map[identity.Identity]*Account
	depth     int
}

func (f *frame) ProgramID() identity.Identity { return f.programID }
func (f *frame) UnixTimestamp() int64         { return f.st.now }
func (f *frame) Rent() Rent                   { return f.st.l.opts.Rent }
func (f *frame) Logger() log.Logger           { return f.st.logger.With(log.Stringer("program", f.programID)) }

func (f *frame) Invoke(ix Instruction) error { return f.InvokeSigned(ix) }

func (f *frame) InvokeSigned(ix Instruction, signerSeeds ...[][]byte) error {
	if f.depth+1 > MaxInvokeDepth {
		return ErrCallDepth
	}
	signers := make(map[identity.Identity]bool)
	writable := make(map[identity.Identity]bool)
	for _, info := range f.infos {
		if info.IsSigner {
			signers[info.Address] = true
		}
		if info.IsWritable {
			writable[info.Address] = true
		}
	}
	for _, seeds := range signerSeeds {
		pda, err := address.CreateProgramAddress(seeds, f.programID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSeeds, err)
		}
		signers[pda] = true
	}

	touched := make([]identity.Identity, 0, len(ix.Accounts))
	for _, m := range ix.Accounts {
		if _, ok := f.pre[m.Address]; !ok {
			return fmt.Errorf("%w: %s not passed to caller", ErrNotEnoughAccountKeys, m.Address)
		}
		touched = append(touched, m.Address)
	}
	// Changes the caller made so far must be legal before the callee sees them.
	if err := f.verify(touched); err != nil {
		return err
	}
	if err := f.st.execute(ix, signers, writable, f.depth+1); err != nil {
		return err
	}
	for _, addr := range touched {
		f.pre[addr] = f.st.accounts[addr].Clone()
	}
	return nil
}

// execute runs ix. callerWritable is nil at the top level.
func (st *txState) execute(ix Instruction, signers, callerWritable map[identity.Identity]bool, depth int) error {
	prog, ok := st.l.program(ix.ProgramID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID)
	}
	f := &frame{
		st:        st,
		programID: ix.ProgramID,
		infos:     make([]*AccountInfo, len(ix.Accounts)),
		pre:       make(map[identity.Identity]*Account, len(ix.Accounts)),
		depth:     depth,
	}
	for i, m := range ix.Accounts {
		acct, ok := st.accounts[m.Address]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotEnoughAccountKeys, m.Address)
		}
		if m.IsSigner && !signers[m.Address] {
			return fmt.Errorf("%w: %s", ErrMissingRequiredSignature, m.Address)
		}
		if m.IsWritable && callerWritable != nil && !callerWritable[m.Address] {
			return fmt.Errorf("%w: %s escalated to writable", ErrAccountNotWritable, m.Address)
		}
		f.infos[i] = &AccountInfo{Address: m.Address, IsSigner: m.IsSigner, IsWritable: m.IsWritable, Account: acct}
		if _, seen := f.pre[m.Address]; !seen {
			f.pre[m.Address] = acct.Clone()
		}
	}

	start := time.Now()
	err := prog.Process(f, f.infos, ix.Data)
	st.l.opts.Metrics.ObserveInstruction(programLabel(st.l, ix.ProgramID), time.Since(start))
	if err != nil {
		return err
	}
	all := make([]identity.Identity, 0, len(f.pre))
	for addr := range f.pre {
		all = append(all, addr)
	}
	return f.verify(all)
}

// verify checks the changes made to addrs since f.pre was taken.
func (f *frame) verify(addrs []identity.Identity) error {
	var before, after uint64
	seen := make(map[identity.Identity]bool, len(addrs))
	for _, addr := range addrs {
		if seen[addr] {
			continue
		}
		seen[addr] = true
		pre, post := f.pre[addr], f.st.accounts[addr]
		before += pre.Lamports
		after += post.Lamports
		if pre.equal(post) {
			continue
		}
		if !f.writable(addr) {
			return fmt.Errorf("%w: %s modified", ErrAccountNotWritable, addr)
		}
		if pre.Executable != post.Executable {
			return fmt.Errorf("%w: %s executable flag", ErrExternalAccountModified, addr)
		}
		if pre.Owner != f.programID {
			if pre.Owner != post.Owner || string(pre.Data) != string(post.Data) {
				return fmt.Errorf("%w: %s", ErrExternalAccountModified, addr)
			}
			if post.Lamports < pre.Lamports {
				return fmt.Errorf("%w: %s debited", ErrExternalAccountModified, addr)
			}
		}
		if len(post.Data) > MaxAccountDataSize {
			return fmt.Errorf("%w: %s", ErrAccountDataTooLarge, addr)
		}
	}
	if before != after {
		return fmt.Errorf("%w: %d before, %d after", ErrUnbalancedInstruction, before, after)
	}
	return nil
}

func (f *frame) writable(addr identity.Identity) bool {
	for _, info := range f.infos {
		if info.Address == addr && info.IsWritable {
			return true
		}
	}
	return false
}

func programLabel(l *Ledger, id identity.Identity) string {
	if id == SystemProgramID {
		return "system"
	}
	if name, ok := l.names[id]; ok {
		return name
	}
	return id.String()
}
