package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/solanafuns/ddmonitor/internal/action"
	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/ledger"
	"github.com/solanafuns/ddmonitor/internal/queue"
)

// fakeSource replays canned updates, then blocks until ctx is done or
// returns err.
type fakeSource struct {
	updates []ledger.Update
	err     error
	gotFrom uint64
}

func (f *fakeSource) Subscribe(ctx context.Context, _ identity.Identity, fromSeq uint64, fn func(ledger.Update) error) error {
	f.gotFrom = fromSeq
	for _, u := range f.updates {
		if err := fn(u); err != nil {
			return err
		}
	}
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func snapshot(t *testing.T, seq uint64, creator identity.Identity, payload []byte, now int64) ledger.Update {
	t.Helper()
	rec, err := queue.NewForCreator(creator, 2, 64, 100)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if payload != nil {
		if err := rec.Push(creator, payload, now); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	return ledger.Update{Seq: seq, Slot: seq, Account: &ledger.Account{Lamports: 1, Data: rec.Encode()}}
}

func envelope(t *testing.T, a action.Action) []byte {
	t.Helper()
	b, err := action.Encode(a)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b
}

func TestWatchDecodesAndStopsOnCancel(t *testing.T) {
	k, _ := identity.Generate()
	src := &fakeSource{updates: []ledger.Update{
		snapshot(t, 1, k.Identity(), envelope(t, action.Raw{Text: "one"}), 101),
		{Seq: 2, Account: &ledger.Account{Data: []byte{1, 2, 3}}}, // not a record
		snapshot(t, 3, k.Identity(), []byte{9, 9}, 102),           // not an envelope
		snapshot(t, 4, k.Identity(), envelope(t, action.Sample{X: 1, Y: 2}), 103),
	}}
	ctx, cancel := context.WithCancel(context.Background())
	var got []action.Action
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, src, k.Identity(), func(a action.Action) {
			got = append(got, a)
			if len(got) == 3 {
				cancel()
			}
		})
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("watch did not stop")
	}
	if len(got) != 3 {
		t.Fatalf("got %d actions", len(got))
	}
	if r, ok := got[0].(action.Raw); !ok || r.Text != "one" {
		t.Fatalf("first: %#v", got[0])
	}
	if n, ok := got[1].(action.Noop); !ok || n.Err == nil {
		t.Fatalf("second should be a failed decode: %#v", got[1])
	}
	if s, ok := got[2].(action.Sample); !ok || s.X != 1 || s.Y != 2 {
		t.Fatalf("third: %#v", got[2])
	}
}

func TestWatchReturnsStreamError(t *testing.T) {
	k, _ := identity.Generate()
	boom := errors.New("stream reset")
	src := &fakeSource{err: boom}
	err := WatchEvents(context.Background(), src, k.Identity(), Options{FromSeq: 7}, func(Event) {})
	if !errors.Is(err, boom) {
		t.Fatalf("want stream error, got %v", err)
	}
	if src.gotFrom != 7 {
		t.Fatalf("from seq %d", src.gotFrom)
	}
}

func TestWatchDedupeAndFilter(t *testing.T) {
	k, _ := identity.Generate()
	hello := envelope(t, action.UserMessage{Sender: k.Identity(), Text: "hello"})
	src := &fakeSource{
		updates: []ledger.Update{
			snapshot(t, 1, k.Identity(), hello, 101),
			snapshot(t, 2, k.Identity(), hello, 101), // lamports-only change
			snapshot(t, 3, k.Identity(), envelope(t, action.Raw{Text: "skip me"}), 102),
			snapshot(t, 4, k.Identity(), hello, 103),
		},
		err: errors.New("end"),
	}
	f, err := NewFilter(`kind == "user_message" && text.startsWith("hel")`)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	var seqs []uint64
	_ = WatchEvents(context.Background(), src, k.Identity(), Options{Dedupe: true, Filter: f}, func(ev Event) {
		seqs = append(seqs, ev.Seq)
	})
	if len(seqs) != 2 || seqs[0] != 1 || seqs[1] != 4 {
		t.Fatalf("delivered seqs %v", seqs)
	}
}

func TestFilterCompile(t *testing.T) {
	if f, err := NewFilter("  "); err != nil || f != nil {
		t.Fatalf("empty filter: %v %v", f, err)
	}
	if _, err := NewFilter(`kind ==`); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := NewFilter(`x + 1`); err == nil {
		t.Fatalf("expected non-boolean error")
	}
	f, err := NewFilter(`x > 2 && last_change >= 100`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	rec := &queue.Record{LastChange: 100}
	if !f.Match(Event{Record: rec, Action: action.Sample{X: 3}}) {
		t.Fatalf("should match")
	}
	if f.Match(Event{Record: rec, Action: action.Sample{X: 1}}) {
		t.Fatalf("should not match")
	}
}
