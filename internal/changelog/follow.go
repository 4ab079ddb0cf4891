package changelog

import "context"

// Follow calls fn for every entry after the one at seq, in order, waiting for
// new entries until ctx is done or fn returns an error. seq 0 starts at the
// oldest retained entry.
func (l *Log) Follow(ctx context.Context, seq uint64, fn func(Item) error) error {
	next := seq + 1
	for {
		ch := l.Changed()
		items, _ := l.Read(ReadOptions{Start: TokenFromSeq(next), Limit: 64})
		for _, it := range items {
			if err := fn(it); err != nil {
				return err
			}
			next = it.Seq + 1
		}
		if len(items) > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}
