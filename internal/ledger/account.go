package ledger

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/wire"
)

// MaxAccountDataSize bounds a single account's data.
const MaxAccountDataSize = 10 << 20

// SystemProgramID owns every account that has not been assigned elsewhere.
var SystemProgramID = identity.Zero

// Account is the persisted state at an address.
type Account struct {
	Owner      identity.Identity `json:"owner"`
	Lamports   uint64            `json:"lamports"`
	Data       []byte            `json:"data"`
	Executable bool              `json:"executable"`
}

// Exists reports whether the account holds anything worth persisting.
func (a *Account) Exists() bool {
	return a.Lamports > 0 || len(a.Data) > 0 || a.Executable || a.Owner != SystemProgramID
}

func (a *Account) Clone() *Account {
	c := *a
	c.Data = append([]byte(nil), a.Data...)
	return &c
}

func (a *Account) equal(b *Account) bool {
	return a.Owner == b.Owner && a.Lamports == b.Lamports && a.Executable == b.Executable && string(a.Data) == string(b.Data)
}

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// EncodeAccount serializes a with a trailing crc32c.
func EncodeAccount(a *Account) []byte {
	w := wire.NewWriter(identity.Size + 8 + 1 + 4 + len(a.Data) + 4)
	w.Identity(a.Owner)
	w.U64(a.Lamports)
	w.Bool(a.Executable)
	w.ByteSeq(a.Data)
	b := w.Bytes()
	return binary.BigEndian.AppendUint32(b, crc32.Checksum(b, castagnoli))
}

// DecodeAccount reverses EncodeAccount.
func DecodeAccount(b []byte) (*Account, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("ledger: account record too short")
	}
	body := b[:len(b)-4]
	if crc32.Checksum(body, castagnoli) != binary.BigEndian.Uint32(b[len(b)-4:]) {
		return nil, fmt.Errorf("ledger: account record checksum mismatch")
	}
	r := wire.NewReader(body)
	a := &Account{}
	a.Owner = r.Identity()
	a.Lamports = r.U64()
	a.Executable = r.Bool()
	a.Data = r.ByteSeq()
	if err := r.Finish(); err != nil {
		return nil, fmt.Errorf("ledger: account record: %w", err)
	}
	return a, nil
}
