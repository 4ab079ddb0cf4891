package changelog

import (
	"encoding/binary"

	"github.com/solanafuns/ddmonitor/internal/identity"
)

var (
	acctPrefix = []byte("acct/")
	logSeg     = []byte("/log")
	metaSuffix = []byte("/m")
	entrySeg   = []byte("/e/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

func keyLogPrefix(addr identity.Identity) []byte {
	k := make([]byte, 0, len(acctPrefix)+identity.Size+len(logSeg)+16)
	k = append(k, acctPrefix...)
	k = append(k, addr[:]...)
	k = append(k, logSeg...)
	return k
}

// KeyLogMeta is the key holding the last assigned sequence for addr.
func KeyLogMeta(addr identity.Identity) []byte {
	return append(keyLogPrefix(addr), metaSuffix...)
}

// KeyLogEntry is the entry key for seq; big-endian keeps entries ordered.
func KeyLogEntry(addr identity.Identity, seq uint64) []byte {
	k := append(keyLogPrefix(addr), entrySeg...)
	return appendBE8(k, seq)
}
