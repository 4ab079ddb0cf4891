// Package watch follows a queue account and turns every committed snapshot
// into a decoded action.
package watch

import (
	"bytes"
	"context"
	"errors"

	"github.com/solanafuns/ddmonitor/internal/action"
	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/ledger"
	"github.com/solanafuns/ddmonitor/internal/queue"
	"github.com/solanafuns/ddmonitor/pkg/log"
)

// Source streams committed snapshots of one account. fromSeq 0 delivers
// only snapshots committed after the call. Implementations return ctx.Err()
// once ctx is done.
type Source interface {
	Subscribe(ctx context.Context, addr identity.Identity, fromSeq uint64, fn func(ledger.Update) error) error
}

// Event is one decoded snapshot.
type Event struct {
	Seq    uint64
	Slot   uint64
	Record *queue.Record
	Action action.Action
}

type Options struct {
	// FromSeq resumes at a change log sequence; 0 follows new snapshots only.
	FromSeq uint64
	Filter  *Filter
	// Dedupe skips a snapshot whose last_change and data match the previous one.
	Dedupe  bool
	Logger  log.Logger
}

// Watch calls onUpdate with the action framed in every new snapshot of
// addr. It returns nil when ctx is canceled and the stream error otherwise.
func Watch(ctx context.Context, src Source, addr identity.Identity, onUpdate func(action.Action)) error {
	return WatchEvents(ctx, src, addr, Options{}, func(ev Event) { onUpdate(ev.Action) })
}

// WatchEvents is Watch with options and full event metadata. Snapshots whose
// record does not decode are logged and skipped; envelopes that do not
// decode are delivered as action.Noop.
func WatchEvents(ctx context.Context, src Source, addr identity.Identity, opts Options, fn func(Event)) error {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	logger = logger.WithComponent("watch").With(log.Stringer("address", addr))

	var prev *queue.Record
	err := src.Subscribe(ctx, addr, opts.FromSeq, func(u ledger.Update) error {
		if u.Account == nil {
			logger.Warn("snapshot without account", log.Uint64("seq", u.Seq))
			return nil
		}
		rec, err := queue.Decode(u.Account.Data)
		if err != nil {
			logger.Warn("skipping undecodable record", log.Uint64("seq", u.Seq), log.Err(err))
			return nil
		}
		if opts.Dedupe && prev != nil && prev.LastChange == rec.LastChange && bytes.Equal(prev.Data, rec.Data) {
			logger.Debug("duplicate snapshot", log.Uint64("seq", u.Seq))
			return nil
		}
		prev = rec
		ev := Event{Seq: u.Seq, Slot: u.Slot, Record: rec, Action: action.DecodeOrNoop(rec.Data)}
		if !opts.Filter.Match(ev) {
			return nil
		}
		fn(ev)
		return nil
	})
	if ctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		logger.Debug("watch stopped")
		return nil
	}
	return err
}
