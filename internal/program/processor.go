package program

import (
	"errors"
	"fmt"

	"github.com/solanafuns/ddmonitor/internal/address"
	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/ledger"
	"github.com/solanafuns/ddmonitor/internal/queue"
	"github.com/solanafuns/ddmonitor/pkg/log"
)

// Processor executes queue instructions for one configured program ID.
type Processor struct {
	programID identity.Identity
	derive    func(programID identity.Identity, name string) (identity.Identity, uint8, error)
}

// NewProcessor returns a processor that only accepts calls addressed to
// programID.
func NewProcessor(programID identity.Identity) *Processor {
	return &Processor{programID: programID, derive: address.QueueAddress}
}

func (p *Processor) ProgramID() identity.Identity { return p.programID }

// Process implements ledger.Program.
func (p *Processor) Process(ctx ledger.InvokeContext, accounts []*ledger.AccountInfo, data []byte) error {
	if ctx.ProgramID() != p.programID {
		return fmt.Errorf("%w: invoked as %s, configured as %s", ErrIncorrectProgramID, ctx.ProgramID(), p.programID)
	}
	ix, err := DecodeInstruction(data)
	if err != nil {
		return err
	}
	if len(accounts) < 3 {
		return fmt.Errorf("%w: want payer, queue, system program", ErrNotEnoughAccountKeys)
	}
	payer, target, sys := accounts[0], accounts[1], accounts[2]
	if !payer.IsSigner {
		return fmt.Errorf("%w: payer %s", ErrMissingRequiredSignature, payer.Address)
	}
	if !payer.IsWritable {
		return fmt.Errorf("%w: payer %s", ErrAccountNotWritable, payer.Address)
	}
	if !target.IsWritable {
		return fmt.Errorf("%w: queue %s", ErrAccountNotWritable, target.Address)
	}
	bump, err := p.checkAddress(ix.QueueName(), target.Address)
	if err != nil {
		return err
	}

	logger := ctx.Logger().With(log.Str("queue", ix.QueueName()), log.Stringer("payer", payer.Address))
	switch v := ix.(type) {
	case RegisterQueue:
		if sys.Address != ledger.SystemProgramID {
			return fmt.Errorf("%w: account 2 is %s, want the system program", ErrIncorrectProgramID, sys.Address)
		}
		if err := p.register(ctx, payer, target, v, bump); err != nil {
			return err
		}
		logger.Info("queue registered", log.Uint64("data_size", v.DataSize), log.Int("allow_count", int(v.AllowCount)))
	case PushMessage:
		err := p.update(target, func(rec *queue.Record) error {
			return rec.Push(payer.Address, v.Data, ctx.UnixTimestamp())
		})
		if err != nil {
			return err
		}
		logger.Debug("message pushed", log.Int("bytes", len(v.Data)))
	case UserPubOperation:
		err := p.update(target, func(rec *queue.Record) error {
			return editAllowList(rec, payer.Address, v, ctx.UnixTimestamp())
		})
		if err != nil {
			return err
		}
		logger.Info("allow list updated", log.Str("user", v.UserPub), log.Bool("allow", v.Allow))
	}
	return nil
}

// checkAddress re-derives the queue address and compares it with the
// supplied account.
func (p *Processor) checkAddress(name string, got identity.Identity) (uint8, error) {
	want, bump, err := p.derive(p.programID, name)
	switch {
	case errors.Is(err, address.ErrAddressExhausted):
		return 0, err
	case err != nil:
		return 0, fmt.Errorf("%w: %v", ErrInvalidSeeds, err)
	case want != got:
		return 0, fmt.Errorf("%w: queue %q lives at %s, got %s", ErrInvalidSeeds, name, want, got)
	}
	return bump, nil
}

func (p *Processor) register(ctx ledger.InvokeContext, payer, target *ledger.AccountInfo, ix RegisterQueue, bump uint8) error {
	if target.Owner != ledger.SystemProgramID || len(target.Data) > 0 {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInitialized, target.Address)
	}
	if ix.AllowCount == 0 || ix.DataSize == 0 {
		return fmt.Errorf("%w: allow_count and data_size must be positive", ErrInvalidInstructionData)
	}
	if ix.DataSize > ledger.MaxAccountDataSize {
		return fmt.Errorf("%w: data_size %d", ErrInvalidInstructionData, ix.DataSize)
	}
	rec, err := queue.NewForCreator(payer.Address, ix.AllowCount, ix.DataSize, ctx.UnixTimestamp())
	if err != nil {
		return err
	}
	size := queue.SerializedSize(ix.DataSize, int(ix.AllowCount))
	need := ctx.Rent().MinimumBalance(size)
	if target.Lamports >= need {
		need = 0
	} else {
		need -= target.Lamports
	}
	create := ledger.CreateAccount(payer.Address, target.Address, need, uint64(size), p.programID)
	seeds := append(address.QueueSeeds(p.programID, ix.Name), []byte{bump})
	if err := ctx.InvokeSigned(create, seeds); err != nil {
		return err
	}
	copy(target.Data, rec.Encode())
	return nil
}

// update loads the record, applies fn and stores it back. Nothing is written
// when fn fails.
func (p *Processor) update(target *ledger.AccountInfo, fn func(*queue.Record) error) error {
	if target.Owner == ledger.SystemProgramID && len(target.Data) == 0 {
		return fmt.Errorf("%w: %s", ErrUninitializedAccount, target.Address)
	}
	if target.Owner != p.programID {
		return fmt.Errorf("%w: %s is owned by %s", ErrIncorrectProgramID, target.Address, target.Owner)
	}
	rec, err := queue.Decode(target.Data)
	if err != nil {
		return err
	}
	if err := fn(rec); err != nil {
		return err
	}
	enc := rec.Encode()
	if len(enc) != len(target.Data) {
		return fmt.Errorf("%w: record size changed from %d to %d", ErrMalformedRecord, len(target.Data), len(enc))
	}
	copy(target.Data, enc)
	return nil
}

func editAllowList(rec *queue.Record, payer identity.Identity, op UserPubOperation, now int64) error {
	if payer != rec.Creator {
		return fmt.Errorf("%w: only the creator edits the allow list", ErrUnauthorized)
	}
	user, err := identity.Parse(op.UserPub)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedIdentity, err)
	}
	if op.Allow {
		return rec.AddPushIdentity(user, now)
	}
	return rec.RevokePushIdentity(user, now)
}
