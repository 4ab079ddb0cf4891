package changelog

import (
	"encoding/binary"
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Header is the per-entry metadata.
type Header struct {
	Slot     uint64
	CommitMs int64
}

const headerLen = 16

func (h Header) encode() []byte {
	b := make([]byte, headerLen)
	binary.BigEndian.PutUint64(b[:8], h.Slot)
	binary.BigEndian.PutUint64(b[8:], uint64(h.CommitMs))
	return b
}

func decodeHeader(b []byte) (Header, bool) {
	if len(b) != headerLen {
		return Header{}, false
	}
	return Header{
		Slot:     binary.BigEndian.Uint64(b[:8]),
		CommitMs: int64(binary.BigEndian.Uint64(b[8:])),
	}, true
}

func EncodeRecord(header, payload []byte) []byte {
	out := make([]byte, 0, binary.MaxVarintLen64+len(header)+len(payload)+4)
	out = binary.AppendUvarint(out, uint64(len(header)))
	out = append(out, header...)
	out = append(out, payload...)

	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	return binary.BigEndian.AppendUint32(out, crc)
}

type Decoded struct {
	Header  []byte
	Payload []byte
}

// DecodeRecord reverses EncodeRecord; ok is false on framing or checksum errors.
func DecodeRecord(b []byte) (Decoded, bool) {
	if len(b) < 1+4 {
		return Decoded{}, false
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 || hlen > uint64(len(b)) {
		return Decoded{}, false
	}
	if n+int(hlen)+4 > len(b) {
		return Decoded{}, false
	}
	header := b[n : n+int(hlen)]
	payload := b[n+int(hlen) : len(b)-4]
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != binary.BigEndian.Uint32(b[len(b)-4:]) {
		return Decoded{}, false
	}
	return Decoded{Header: append([]byte(nil), header...), Payload: append([]byte(nil), payload...)}, true
}
