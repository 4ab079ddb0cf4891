package program

import (
	"fmt"

	"github.com/solanafuns/ddmonitor/internal/address"
	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/ledger"
	"github.com/solanafuns/ddmonitor/internal/wire"
)

// Instruction tags.
const (
	TagRegisterQueue uint8 = iota
	TagPushMessage
	TagUserPubOperation
)

// Instruction is one of RegisterQueue, PushMessage or UserPubOperation.
type Instruction interface {
	QueueName() string
	Encode() []byte
}

type RegisterQueue struct {
	Name       string
	DataSize   uint64
	AllowCount uint8
}

type PushMessage struct {
	Name string
	Data []byte
}

// UserPubOperation grants (Allow) or revokes push rights for UserPub, a
// base58 identity.
type UserPubOperation struct {
	Name    string
	UserPub string
	Allow   bool
}

func (i RegisterQueue) QueueName() string    { return i.Name }
func (i PushMessage) QueueName() string      { return i.Name }
func (i UserPubOperation) QueueName() string { return i.Name }

func (i RegisterQueue) Encode() []byte {
	w := wire.NewWriter(1 + 4 + len(i.Name) + 8 + 1)
	w.U8(TagRegisterQueue)
	w.String(i.Name)
	w.U64(i.DataSize)
	w.U8(i.AllowCount)
	return w.Bytes()
}

func (i PushMessage) Encode() []byte {
	w := wire.NewWriter(1 + 4 + len(i.Name) + 4 + len(i.Data))
	w.U8(TagPushMessage)
	w.String(i.Name)
	w.ByteSeq(i.Data)
	return w.Bytes()
}

func (i UserPubOperation) Encode() []byte {
	w := wire.NewWriter(1 + 4 + len(i.Name) + 4 + len(i.UserPub) + 1)
	w.U8(TagUserPubOperation)
	w.String(i.Name)
	w.String(i.UserPub)
	w.Bool(i.Allow)
	return w.Bytes()
}

// DecodeInstruction parses instruction data. Any failure, including trailing
// bytes, is ErrInvalidInstructionData.
func DecodeInstruction(b []byte) (Instruction, error) {
	r := wire.NewReader(b)
	tag := r.U8()
	var ix Instruction
	switch tag {
	case TagRegisterQueue:
		name := r.String()
		size := r.U64()
		ix = RegisterQueue{Name: name, DataSize: size, AllowCount: r.U8()}
	case TagPushMessage:
		name := r.String()
		ix = PushMessage{Name: name, Data: r.ByteSeq()}
	case TagUserPubOperation:
		name := r.String()
		pub := r.String()
		ix = UserPubOperation{Name: name, UserPub: pub, Allow: r.Bool()}
	default:
		if r.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInstructionData, r.Err())
		}
		return nil, fmt.Errorf("%w: unknown tag %d", ErrInvalidInstructionData, tag)
	}
	if err := r.Finish(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
	}
	return ix, nil
}

// NewInstruction wraps ix for submission by payer. It derives the queue
// address from the instruction's name.
func NewInstruction(programID, payer identity.Identity, ix Instruction) (ledger.Instruction, error) {
	queueAddr, _, err := address.QueueAddress(programID, ix.QueueName())
	if err != nil {
		return ledger.Instruction{}, err
	}
	return ledger.Instruction{
		ProgramID: programID,
		Accounts: []ledger.AccountMeta{
			ledger.NewAccountMeta(payer, true),
			ledger.NewAccountMeta(queueAddr, false),
			ledger.NewReadonlyAccountMeta(ledger.SystemProgramID, false),
		},
		Data: ix.Encode(),
	}, nil
}
