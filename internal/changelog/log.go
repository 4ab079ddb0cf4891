package changelog

import (
	"encoding/binary"
	"sync"

	"github.com/cockroachdb/pebble"

	"github.com/solanafuns/ddmonitor/internal/identity"
	pebblestore "github.com/solanafuns/ddmonitor/internal/storage/pebble"
)

// Store hands out one Log per address so every subscriber of an address
// shares the same wake-up channel.
type Store struct {
	db     *pebblestore.DB
	retain uint64

	mu   sync.Mutex
	logs map[identity.Identity]*Log
}

// NewStore opens logs over db. retain > 0 keeps only the newest retain
// entries per address.
func NewStore(db *pebblestore.DB, retain int) *Store {
	if retain < 0 {
		retain = 0
	}
	return &Store{db: db, retain: uint64(retain), logs: make(map[identity.Identity]*Log)}
}

// Open returns the log for addr, loading its last sequence on first use.
func (s *Store) Open(addr identity.Identity) *Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.logs[addr]; ok {
		return l
	}
	l := &Log{db: s.db, addr: addr, retain: s.retain, notifyCh: make(chan struct{})}
	if meta, err := s.db.Get(KeyLogMeta(addr)); err == nil && len(meta) >= 8 {
		l.lastSeq = binary.BigEndian.Uint64(meta[:8])
	}
	s.logs[addr] = l
	return l
}

// Log is the snapshot log of one address.
type Log struct {
	db     *pebblestore.DB
	addr   identity.Identity
	retain uint64

	mu       sync.Mutex
	lastSeq  uint64
	staged   uint64
	notifyCh chan struct{}
}

// Stage writes the next entry into b without committing it. Publish or Abort
// must follow once the batch outcome is known.
func (l *Log) Stage(b *pebble.Batch, h Header, payload []byte) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	seq := l.lastSeq + 1
	if l.staged != 0 {
		seq = l.staged + 1
	}
	if err := b.Set(KeyLogEntry(l.addr, seq), EncodeRecord(h.encode(), payload), nil); err != nil {
		return 0, err
	}
	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], seq)
	if err := b.Set(KeyLogMeta(l.addr), meta[:], nil); err != nil {
		return 0, err
	}
	if l.retain > 0 && seq > l.retain {
		if err := b.Delete(KeyLogEntry(l.addr, seq-l.retain), nil); err != nil {
			return 0, err
		}
	}
	l.staged = seq
	return seq, nil
}

// Publish makes staged entries visible and wakes waiters.
func (l *Log) Publish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.staged == 0 {
		return
	}
	l.lastSeq = l.staged
	l.staged = 0
	close(l.notifyCh)
	l.notifyCh = make(chan struct{})
}

// Abort forgets staged entries after a failed commit.
func (l *Log) Abort() {
	l.mu.Lock()
	l.staged = 0
	l.mu.Unlock()
}

// LastSeq is the sequence of the newest published entry, 0 if none.
func (l *Log) LastSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSeq
}

// Changed returns a channel closed by the next Publish. Grab it before
// reading so an append between the read and the wait is not missed.
func (l *Log) Changed() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.notifyCh
}
