package queue

import (
	"bytes"
	"errors"
	"testing"

	"github.com/solanafuns/ddmonitor/internal/identity"
)

func ident(b byte) identity.Identity {
	var id identity.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

func TestRoom1Scenario(t *testing.T) {
	c, d := ident(0xC), ident(0xD)
	rec, err := NewForCreator(c, 3, 64, 100)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := rec.AllowList(); len(got) != 1 || got[0] != c {
		t.Fatalf("allow = %v", got)
	}
	if len(rec.Allow) != 3 || rec.Allow[1].Occupied || rec.Allow[2].Occupied {
		t.Fatalf("slots = %+v", rec.Allow)
	}
	if !bytes.Equal(rec.Data, make([]byte, 64)) {
		t.Fatalf("data not zeroed")
	}

	if err := rec.Push(c, []byte("hi"), 101); err != nil {
		t.Fatalf("push: %v", err)
	}
	want := append([]byte("hi"), make([]byte, 62)...)
	if !bytes.Equal(rec.Data, want) || rec.LastChange != 101 {
		t.Fatalf("after push data=%q last=%d", rec.Data[:4], rec.LastChange)
	}

	before := rec.Encode()
	if err := rec.Push(d, []byte("nope"), 102); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("push from d err = %v", err)
	}
	if !bytes.Equal(before, rec.Encode()) {
		t.Fatalf("rejected push mutated record")
	}

	if err := rec.AddPushIdentity(d, 103); err != nil {
		t.Fatalf("allow d: %v", err)
	}
	if got := rec.AllowList(); len(got) != 2 || got[1] != d {
		t.Fatalf("allow = %v", got)
	}
	if err := rec.Push(d, []byte("yo"), 104); err != nil {
		t.Fatalf("push from d after allow: %v", err)
	}
	if !bytes.Equal(rec.Data[:3], []byte{'y', 'o', 0}) {
		t.Fatalf("data = %q", rec.Data[:3])
	}
}

func TestPushTooLarge(t *testing.T) {
	c := ident(1)
	rec, _ := NewForCreator(c, 1, 4, 0)
	if err := rec.Push(c, []byte("12345"), 5); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("err = %v", err)
	}
	if rec.LastChange != 0 {
		t.Fatalf("last change moved")
	}
	if err := rec.Push(c, []byte("1234"), 6); err != nil {
		t.Fatalf("exact fit: %v", err)
	}
}

func TestAllowListEdits(t *testing.T) {
	c, d, e := ident(1), ident(2), ident(3)
	rec, _ := NewForCreator(c, 2, 8, 0)
	if err := rec.AddPushIdentity(identity.Zero, 1); !errors.Is(err, ErrMalformedIdentity) {
		t.Fatalf("zero grant err = %v", err)
	}
	if err := rec.AddPushIdentity(d, 1); err != nil {
		t.Fatalf("add d: %v", err)
	}
	if err := rec.AddPushIdentity(d, 2); err != nil {
		t.Fatalf("re-add d: %v", err)
	}
	if rec.LastChange != 1 {
		t.Fatalf("duplicate grant touched record")
	}
	if err := rec.AddPushIdentity(e, 3); !errors.Is(err, ErrAllowListFull) {
		t.Fatalf("full err = %v", err)
	}

	if err := rec.RevokePushIdentity(c, 4); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("revoke creator err = %v", err)
	}
	if err := rec.RevokePushIdentity(e, 4); err != nil {
		t.Fatalf("revoke absent: %v", err)
	}
	if err := rec.RevokePushIdentity(d, 5); err != nil {
		t.Fatalf("revoke d: %v", err)
	}
	if rec.IsAllowed(d) || rec.Allow[1].Occupied || len(rec.Allow) != 2 {
		t.Fatalf("revoke did not clear slot in place: %+v", rec.Allow)
	}
	if err := rec.AddPushIdentity(e, 6); err != nil {
		t.Fatalf("reuse freed slot: %v", err)
	}
	if rec.Allow[1].Identity != e {
		t.Fatalf("slot 1 = %s", rec.Allow[1].Identity)
	}
}

func TestEncodeDecode(t *testing.T) {
	c := ident(7)
	rec, _ := New(c, []identity.Identity{c, ident(8)}, 4, 16, -3)
	_ = rec.Push(c, []byte("abc"), 42)
	b := rec.Encode()
	if len(b) != SerializedSize(16, 4) {
		t.Fatalf("len = %d want %d", len(b), SerializedSize(16, 4))
	}
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Creator != c || got.CreatedAt != -3 || got.LastChange != 42 || got.NeedDataSize != 16 {
		t.Fatalf("decoded = %+v", got)
	}
	if len(got.Allow) != 4 || !got.Allow[1].Occupied || got.Allow[2].Occupied {
		t.Fatalf("allow = %+v", got.Allow)
	}
	if !bytes.Equal(got.Encode(), b) {
		t.Fatalf("re-encode differs")
	}
}

func TestDecodeMalformed(t *testing.T) {
	rec, _ := NewForCreator(ident(1), 1, 4, 0)
	b := rec.Encode()
	cases := map[string][]byte{
		"short":      b[:len(b)-1],
		"trailing":   append(append([]byte(nil), b...), 0),
		"empty":      nil,
		"huge allow": append(append([]byte(nil), b[:32]...), 0xff, 0xff, 0xff, 0x7f),
	}
	for name, in := range cases {
		if _, err := Decode(in); !errors.Is(err, ErrMalformedRecord) {
			t.Fatalf("%s: err = %v", name, err)
		}
	}

	// data length disagreeing with need_data_size
	bad := append([]byte(nil), b...)
	bad[len(bad)-24] = 5
	if _, err := Decode(bad); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("size mismatch err = %v", err)
	}
}

func TestNewRejectsBadShape(t *testing.T) {
	if _, err := NewForCreator(ident(1), 0, 8, 0); !errors.Is(err, ErrInvalidShape) {
		t.Fatalf("zero allow count err = %v", err)
	}
	if _, err := NewForCreator(ident(1), 1, 0, 0); !errors.Is(err, ErrInvalidShape) {
		t.Fatalf("zero data size err = %v", err)
	}
	if _, err := New(ident(1), []identity.Identity{ident(1), ident(2)}, 1, 8, 0); !errors.Is(err, ErrAllowListFull) {
		t.Fatalf("overfull err = %v", err)
	}
}
