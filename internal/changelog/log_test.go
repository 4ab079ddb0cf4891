package changelog

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/solanafuns/ddmonitor/internal/identity"
	pebblestore "github.com/solanafuns/ddmonitor/internal/storage/pebble"
)

var testAddr = identity.Identity{7, 7, 7}

func openTestDB(t *testing.T, dir string) *pebblestore.DB {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	return db
}

func newTestStore(t *testing.T, retain int) (*pebblestore.DB, *Store) {
	t.Helper()
	db := openTestDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })
	return db, NewStore(db, retain)
}

func appendOne(t *testing.T, db *pebblestore.DB, l *Log, slot uint64, payload []byte) uint64 {
	t.Helper()
	b := db.NewBatch()
	defer b.Close()
	seq, err := l.Stage(b, Header{Slot: slot, CommitMs: int64(slot) * 1000}, payload)
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := db.CommitBatch(context.Background(), b); err != nil {
		l.Abort()
		t.Fatalf("commit: %v", err)
	}
	l.Publish()
	return seq
}

func TestStagePublishSequential(t *testing.T) {
	db, s := newTestStore(t, 0)
	l := s.Open(testAddr)
	if s.Open(testAddr) != l {
		t.Fatalf("store should cache logs per address")
	}
	a := appendOne(t, db, l, 1, []byte("a"))
	b := appendOne(t, db, l, 2, []byte("b"))
	if a != 1 || b != 2 || l.LastSeq() != 2 {
		t.Fatalf("seqs %d %d last %d", a, b, l.LastSeq())
	}
	items, _ := l.Read(ReadOptions{Reverse: true, Limit: 1})
	if len(items) != 1 || items[0].Header.Slot != 2 || !bytes.Equal(items[0].Payload, []byte("b")) {
		t.Fatalf("newest = %+v", items)
	}
}

func TestAbortLeavesNothing(t *testing.T) {
	db, s := newTestStore(t, 0)
	l := s.Open(testAddr)
	b := db.NewBatch()
	if _, err := l.Stage(b, Header{Slot: 1}, []byte("x")); err != nil {
		t.Fatalf("stage: %v", err)
	}
	b.Close()
	l.Abort()
	if items, _ := l.Read(ReadOptions{}); len(items) != 0 {
		t.Fatalf("aborted entry visible: %+v", items)
	}
	if seq := appendOne(t, db, l, 2, []byte("y")); seq != 1 {
		t.Fatalf("seq after abort = %d", seq)
	}
}

func TestSequenceDurableAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	db := openTestDB(t, dir)
	appendOne(t, db, NewStore(db, 0).Open(testAddr), 1, []byte("x"))
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	db2 := openTestDB(t, dir)
	t.Cleanup(func() { _ = db2.Close() })
	if seq := appendOne(t, db2, NewStore(db2, 0).Open(testAddr), 2, []byte("y")); seq != 2 {
		t.Fatalf("seq after reopen = %d", seq)
	}
}

func TestReadForwardReverseAndToken(t *testing.T) {
	db, s := newTestStore(t, 0)
	l := s.Open(testAddr)
	for i := 1; i <= 5; i++ {
		appendOne(t, db, l, uint64(i), []byte{byte(i)})
	}
	items, next := l.Read(ReadOptions{Limit: 3})
	if len(items) != 3 || items[0].Seq != 1 || items[2].Seq != 3 || next.Seq() != 4 {
		t.Fatalf("forward items=%v next=%d", items, next.Seq())
	}
	items, _ = l.Read(ReadOptions{Start: next})
	if len(items) != 2 || items[0].Seq != 4 {
		t.Fatalf("resume items=%v", items)
	}
	items, _ = l.Read(ReadOptions{Reverse: true, Limit: 2})
	if len(items) != 2 || items[0].Seq != 5 || items[1].Seq != 4 {
		t.Fatalf("reverse items=%v", items)
	}

	other := s.Open(identity.Identity{8})
	if got, _ := other.Read(ReadOptions{}); len(got) != 0 {
		t.Fatalf("logs of different addresses overlap")
	}
}

func TestRetainDropsOldest(t *testing.T) {
	db, s := newTestStore(t, 2)
	l := s.Open(testAddr)
	for i := 1; i <= 4; i++ {
		appendOne(t, db, l, uint64(i), []byte{byte(i)})
	}
	items, _ := l.Read(ReadOptions{})
	if len(items) != 2 || items[0].Seq != 3 || items[1].Seq != 4 {
		t.Fatalf("retained %v", items)
	}
}

func TestTrimToLast(t *testing.T) {
	db, s := newTestStore(t, 0)
	l := s.Open(testAddr)
	for i := 1; i <= 10; i++ {
		appendOne(t, db, l, uint64(i), []byte{byte(i)})
	}
	n, err := l.TrimToLast(context.Background(), 3, 4)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if n != 7 {
		t.Fatalf("deleted %d", n)
	}
	items, _ := l.Read(ReadOptions{})
	if len(items) != 3 || items[0].Seq != 8 {
		t.Fatalf("after trim %v", items)
	}
	if n, _ := l.TrimToLast(context.Background(), 3, 0); n != 0 {
		t.Fatalf("second trim deleted %d", n)
	}
}

func TestSweepAppliesLoweredRetention(t *testing.T) {
	dir := t.TempDir()
	db := openTestDB(t, dir)
	s := NewStore(db, 0)
	other := identity.Identity{0xff, 1}
	for i := 1; i <= 10; i++ {
		appendOne(t, db, s.Open(testAddr), uint64(i), []byte{byte(i)})
		if i <= 3 {
			appendOne(t, db, s.Open(other), uint64(i), []byte{byte(i)})
		}
	}
	if n, err := s.Sweep(context.Background()); err != nil || n != 0 {
		t.Fatalf("sweep without retention: n=%d err=%v", n, err)
	}
	_ = db.Close()

	db = openTestDB(t, dir)
	t.Cleanup(func() { _ = db.Close() })
	s = NewStore(db, 2)
	n, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 8+1 {
		t.Fatalf("deleted %d", n)
	}
	l := s.Open(testAddr)
	appendOne(t, db, l, 11, []byte{11})
	items, _ := l.Read(ReadOptions{})
	if len(items) != 2 || items[0].Seq != 10 || items[1].Seq != 11 {
		t.Fatalf("retained %+v", items)
	}
	items, _ = s.Open(other).Read(ReadOptions{})
	if len(items) != 2 || items[0].Seq != 2 {
		t.Fatalf("other retained %+v", items)
	}
}

func TestFollowDeliversInOrderAndStops(t *testing.T) {
	db, s := newTestStore(t, 0)
	l := s.Open(testAddr)
	appendOne(t, db, l, 1, []byte("a"))

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan uint64, 8)
	errc := make(chan error, 1)
	go func() {
		errc <- l.Follow(ctx, 0, func(it Item) error {
			got <- it.Seq
			return nil
		})
	}()
	appendOne(t, db, l, 2, []byte("b"))
	for want := uint64(1); want <= 2; want++ {
		select {
		case seq := <-got:
			if seq != want {
				t.Fatalf("got seq %d want %d", seq, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for seq %d", want)
		}
	}
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("follow err = %v", err)
	}
}

func TestRecordCRC(t *testing.T) {
	rec := EncodeRecord([]byte("h"), []byte("payload"))
	dec, ok := DecodeRecord(rec)
	if !ok || string(dec.Header) != "h" || string(dec.Payload) != "payload" {
		t.Fatalf("round trip failed: %+v %v", dec, ok)
	}
	rec[len(rec)-1] ^= 0xFF
	if _, ok := DecodeRecord(rec); ok {
		t.Fatalf("expected crc failure")
	}
}

func TestKeyOrdering(t *testing.T) {
	a := KeyLogEntry(testAddr, 10)
	b := KeyLogEntry(testAddr, 11)
	if bytes.Compare(a, b) >= 0 {
		t.Fatalf("expected seq 10 < seq 11")
	}
	if !bytes.HasPrefix(KeyLogMeta(testAddr), keyLogPrefix(testAddr)) || !bytes.HasPrefix(a, keyLogPrefix(testAddr)) {
		t.Fatalf("meta and entries should share the address prefix")
	}
}
