package queue

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solanafuns/ddmonitor/internal/identity"
)

func TestPropertySerializedSizeMatchesEncoding(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("SerializedSize == len(Encode)", prop.ForAll(
		func(creator []byte, dataSize uint16, allowCount uint8) bool {
			var c identity.Identity
			copy(c[:], creator)
			c[0] |= 1
			rec, err := NewForCreator(c, allowCount, uint64(dataSize), 0)
			if err != nil {
				return false
			}
			return len(rec.Encode()) == SerializedSize(uint64(dataSize), int(allowCount))
		},
		gen.SliceOfN(32, gen.UInt8()),
		gen.UInt16Range(1, 4096),
		gen.UInt8Range(1, 255),
	))

	properties.Property("push mutates iff sender is allowed", prop.ForAll(
		func(sender uint8, payload []byte) bool {
			c := ident(1)
			rec, _ := NewForCreator(c, 3, 64, 0)
			_ = rec.AddPushIdentity(ident(2), 0)
			before := rec.Encode()
			s := ident(sender)
			err := rec.Push(s, payload, 9)
			if rec.IsAllowed(s) {
				return err == nil && bytes.HasPrefix(rec.Data, payload) && rec.LastChange == 9
			}
			return err != nil && bytes.Equal(before, rec.Encode())
		},
		gen.UInt8Range(1, 4),
		gen.SliceOfN(16, gen.UInt8()),
	))

	properties.TestingRun(t)
}
