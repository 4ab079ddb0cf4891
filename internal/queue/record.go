package queue

import (
	"errors"
	"fmt"

	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/wire"
)

var (
	ErrUnauthorized      = errors.New("queue: unauthorized")
	ErrPayloadTooLarge   = errors.New("queue: payload exceeds data capacity")
	ErrAllowListFull     = errors.New("queue: allow list full")
	ErrMalformedIdentity = errors.New("queue: malformed identity")
	ErrMalformedRecord   = errors.New("queue: malformed record")
	ErrInvalidShape      = errors.New("queue: allow count and data size must be positive")
)

// AllowSlot is one entry of the fixed-capacity allow list. Encoded, an empty
// slot is the zero identity.
type AllowSlot struct {
	Identity identity.Identity
	Occupied bool
}

// Record is the decoded content of a queue account.
type Record struct {
	Creator      identity.Identity
	Allow        []AllowSlot
	Data         []byte
	NeedDataSize uint64
	CreatedAt    int64
	LastChange   int64
}

// New builds a record with the given identities in the leading slots and
// allowCount-len(allow) empty slots after them.
func New(creator identity.Identity, allow []identity.Identity, allowCount int, dataSize uint64, now int64) (*Record, error) {
	if allowCount <= 0 || dataSize == 0 {
		return nil, ErrInvalidShape
	}
	if len(allow) > allowCount {
		return nil, fmt.Errorf("%w: %d identities for %d slots", ErrAllowListFull, len(allow), allowCount)
	}
	slots := make([]AllowSlot, allowCount)
	for i, id := range allow {
		if id.IsZero() {
			return nil, fmt.Errorf("%w: zero identity in slot %d", ErrMalformedIdentity, i)
		}
		slots[i] = AllowSlot{Identity: id, Occupied: true}
	}
	return &Record{
		Creator:      creator,
		Allow:        slots,
		Data:         make([]byte, dataSize),
		NeedDataSize: dataSize,
		CreatedAt:    now,
		LastChange:   now,
	}, nil
}

// NewForCreator places creator in slot 0 and leaves the rest empty.
func NewForCreator(creator identity.Identity, allowCount uint8, dataSize uint64, now int64) (*Record, error) {
	return New(creator, []identity.Identity{creator}, int(allowCount), dataSize, now)
}

// IsAllowed reports whether id holds an occupied slot.
func (r *Record) IsAllowed(id identity.Identity) bool {
	return r.slotOf(id) >= 0
}

func (r *Record) slotOf(id identity.Identity) int {
	for i, s := range r.Allow {
		if s.Occupied && s.Identity == id {
			return i
		}
	}
	return -1
}

// AllowList returns the occupied identities in slot order.
func (r *Record) AllowList() []identity.Identity {
	out := make([]identity.Identity, 0, len(r.Allow))
	for _, s := range r.Allow {
		if s.Occupied {
			out = append(out, s.Identity)
		}
	}
	return out
}

// Push replaces the data buffer with payload, zero padded. On error the
// record is untouched.
func (r *Record) Push(sender identity.Identity, payload []byte, now int64) error {
	if !r.IsAllowed(sender) {
		return fmt.Errorf("%w: %s may not push", ErrUnauthorized, sender)
	}
	if uint64(len(payload)) > r.NeedDataSize {
		return fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), r.NeedDataSize)
	}
	n := copy(r.Data, payload)
	clear(r.Data[n:])
	r.LastChange = now
	return nil
}

// AddPushIdentity fills the first empty slot with id. Adding an identity that
// already holds a slot changes nothing.
func (r *Record) AddPushIdentity(id identity.Identity, now int64) error {
	if id.IsZero() {
		return fmt.Errorf("%w: zero identity cannot be granted", ErrMalformedIdentity)
	}
	if r.IsAllowed(id) {
		return nil
	}
	for i := range r.Allow {
		if !r.Allow[i].Occupied {
			r.Allow[i] = AllowSlot{Identity: id, Occupied: true}
			r.LastChange = now
			return nil
		}
	}
	return fmt.Errorf("%w: %d slots", ErrAllowListFull, len(r.Allow))
}

// RevokePushIdentity empties the slot holding id in place. Revoking an absent
// identity is a no-op; the creator cannot be revoked.
func (r *Record) RevokePushIdentity(id identity.Identity, now int64) error {
	if id == r.Creator {
		return fmt.Errorf("%w: creator keeps push rights", ErrUnauthorized)
	}
	i := r.slotOf(id)
	if i < 0 {
		return nil
	}
	r.Allow[i] = AllowSlot{}
	r.LastChange = now
	return nil
}

// SerializedSize is the exact encoded length of a record with the given shape.
func SerializedSize(dataSize uint64, allowCount int) int {
	return identity.Size + 4 + identity.Size*allowCount + 4 + int(dataSize) + 8 + 8 + 8
}

// Size is SerializedSize for r.
func (r *Record) Size() int { return SerializedSize(r.NeedDataSize, len(r.Allow)) }

// Encode serializes r.
func (r *Record) Encode() []byte {
	w := wire.NewWriter(r.Size())
	w.Identity(r.Creator)
	w.U32(uint32(len(r.Allow)))
	for _, s := range r.Allow {
		if s.Occupied {
			w.Identity(s.Identity)
		} else {
			w.Identity(identity.Zero)
		}
	}
	w.ByteSeq(r.Data)
	w.U64(r.NeedDataSize)
	w.I64(r.CreatedAt)
	w.I64(r.LastChange)
	return w.Bytes()
}

// Decode parses an encoded record. Trailing bytes, a data length that does
// not match need_data_size, or a short buffer give ErrMalformedRecord.
func Decode(b []byte) (*Record, error) {
	r := wire.NewReader(b)
	rec := &Record{}
	rec.Creator = r.Identity()
	n := r.U32()
	if r.Err() == nil && uint64(n)*identity.Size > uint64(r.Remaining()) {
		return nil, fmt.Errorf("%w: %d allow slots exceed buffer", ErrMalformedRecord, n)
	}
	rec.Allow = make([]AllowSlot, n)
	for i := range rec.Allow {
		id := r.Identity()
		if !id.IsZero() {
			rec.Allow[i] = AllowSlot{Identity: id, Occupied: true}
		}
	}
	rec.Data = r.ByteSeq()
	rec.NeedDataSize = r.U64()
	rec.CreatedAt = r.I64()
	rec.LastChange = r.I64()
	if err := r.Finish(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if uint64(len(rec.Data)) != rec.NeedDataSize {
		return nil, fmt.Errorf("%w: data is %d bytes, declared %d", ErrMalformedRecord, len(rec.Data), rec.NeedDataSize)
	}
	return rec, nil
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := *r
	c.Allow = append([]AllowSlot(nil), r.Allow...)
	c.Data = append([]byte(nil), r.Data...)
	return &c
}
