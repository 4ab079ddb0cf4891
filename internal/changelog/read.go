package changelog

import (
	"encoding/binary"

	"github.com/cockroachdb/pebble"
)

// Token is a resume position: a sequence, 8 bytes big-endian.
type Token [8]byte

func TokenFromSeq(seq uint64) Token { var t Token; binary.BigEndian.PutUint64(t[:], seq); return t }
func (t Token) Seq() uint64         { return binary.BigEndian.Uint64(t[:]) }

type ReadOptions struct {
	Start   Token // zero begins at the first (or, reversed, the last) entry
	Limit   int
	Reverse bool
}

type Item struct {
	Seq     uint64
	Header  Header
	Payload []byte
}

func (l *Log) bounds() (low, hi []byte) {
	low = KeyLogEntry(l.addr, 0)
	hi = append(KeyLogEntry(l.addr, ^uint64(0)), 0x00)
	return low, hi
}

// Read returns up to Limit items starting at Start (inclusive) and the token
// of the next unread entry. Corrupt entries are skipped.
func (l *Log) Read(opts ReadOptions) ([]Item, Token) {
	startSeq := opts.Start.Seq()
	startKey := KeyLogEntry(l.addr, startSeq)
	seqOff := len(startKey) - 8
	low, hi := l.bounds()

	items := make([]Item, 0, max(1, opts.Limit))
	var next Token
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return items, next
	}
	defer iter.Close()

	var ok bool
	switch {
	case opts.Reverse && startSeq == 0:
		ok = iter.Last()
	case opts.Reverse:
		ok = iter.SeekLT(startKey)
	case startSeq == 0:
		ok = iter.First()
	default:
		ok = iter.SeekGE(startKey)
	}
	for ; ok && (opts.Limit == 0 || len(items) < opts.Limit); ok = step(iter, opts.Reverse) {
		seq := binary.BigEndian.Uint64(iter.Key()[seqOff:])
		dec, valid := DecodeRecord(iter.Value())
		if !valid {
			continue
		}
		h, valid := decodeHeader(dec.Header)
		if !valid {
			continue
		}
		items = append(items, Item{Seq: seq, Header: h, Payload: dec.Payload})
	}
	if ok {
		copy(next[:], iter.Key()[seqOff:])
	}
	return items, next
}

func step(iter *pebble.Iterator, reverse bool) bool {
	if reverse {
		return iter.Prev()
	}
	return iter.Next()
}
