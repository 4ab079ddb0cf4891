// Package action frames typed actions into a queue's data buffer.
//
// An envelope is a u32 little-endian length L followed by L bytes holding a
// u8 variant tag and the variant's fields. Whatever follows the envelope in
// the buffer is padding and is never read.
package action

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/wire"
)

// Variant tags. Order is fixed by existing buffers; new variants append.
const (
	TagRaw uint8 = iota
	TagSample
	TagUserMessage
	TagNoop
)

const prefixLen = 4

var (
	ErrTruncatedEnvelope = errors.New("action: truncated envelope")
	ErrUnknownVariant    = errors.New("action: unknown variant")
	ErrMalformedPayload  = errors.New("action: malformed payload")
)

// Action is one of Raw, Sample, UserMessage or Noop.
type Action interface {
	Kind() string
	encode(w *wire.Writer)
	sealed()
}

// Raw carries free text.
type Raw struct {
	Text string
}

// Sample is the two-field numeric example action.
type Sample struct {
	X, Y uint8
}

// UserMessage is a chat line from Sender.
type UserMessage struct {
	Sender identity.Identity
	Text   string
}

// Noop is the explicit empty action and the result of any failed decode, in
// which case Err holds the cause.
type Noop struct {
	Err error
}

func (Raw) Kind() string         { return "raw" }
func (Sample) Kind() string      { return "sample" }
func (UserMessage) Kind() string { return "user_message" }
func (Noop) Kind() string        { return "noop" }

func (Raw) sealed()         {}
func (Sample) sealed()      {}
func (UserMessage) sealed() {}
func (Noop) sealed()        {}

func (a Raw) encode(w *wire.Writer) {
	w.U8(TagRaw)
	w.String(a.Text)
}

func (a Sample) encode(w *wire.Writer) {
	w.U8(TagSample)
	w.U8(a.X)
	w.U8(a.Y)
}

func (a UserMessage) encode(w *wire.Writer) {
	w.U8(TagUserMessage)
	w.Identity(a.Sender)
	w.String(a.Text)
}

func (Noop) encode(w *wire.Writer) { w.U8(TagNoop) }

// Encode returns the envelope for a. Text that is not valid UTF-8 is
// refused with ErrMalformedPayload, since Decode would refuse it too.
func Encode(a Action) ([]byte, error) {
	w := wire.NewWriter(64)
	w.U32(0)
	a.encode(w)
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, a.Kind(), err)
	}
	b := w.Bytes()
	binary.LittleEndian.PutUint32(b[:prefixLen], uint32(len(b)-prefixLen))
	return b, nil
}

// Decode reads one envelope from the front of buf.
func Decode(buf []byte) (Action, error) {
	if len(buf) < prefixLen {
		return Noop{}, fmt.Errorf("%w: %d bytes, need length prefix", ErrTruncatedEnvelope, len(buf))
	}
	n := uint64(binary.LittleEndian.Uint32(buf[:prefixLen]))
	if uint64(len(buf)-prefixLen) < n {
		return Noop{}, fmt.Errorf("%w: declared %d, have %d", ErrTruncatedEnvelope, n, len(buf)-prefixLen)
	}
	return decodePayload(buf[prefixLen : prefixLen+int(n)])
}

func decodePayload(p []byte) (Action, error) {
	r := wire.NewReader(p)
	tag := r.U8()
	if r.Err() != nil {
		return Noop{}, fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}
	var a Action
	switch tag {
	case TagRaw:
		a = Raw{Text: r.String()}
	case TagSample:
		x := r.U8()
		a = Sample{X: x, Y: r.U8()}
	case TagUserMessage:
		sender := r.Identity()
		a = UserMessage{Sender: sender, Text: r.String()}
	case TagNoop:
		a = Noop{}
	default:
		return Noop{}, fmt.Errorf("%w: tag %d", ErrUnknownVariant, tag)
	}
	if err := r.Finish(); err != nil {
		return Noop{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return a, nil
}

// DecodeOrNoop never fails: decode errors come back as Noop{Err}.
func DecodeOrNoop(buf []byte) Action {
	a, err := Decode(buf)
	if err != nil {
		return Noop{Err: err}
	}
	return a
}
