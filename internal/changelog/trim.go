package changelog

import (
	"bytes"
	"context"
	"encoding/binary"

	"github.com/cockroachdb/pebble"

	"github.com/solanafuns/ddmonitor/internal/identity"
)

// Sweep trims every stored log to the store's retention. Stage only drops
// the entry that falls out of the window, so logs written under a larger
// retention keep their old entries until swept. It returns the number of
// entries deleted; with retention off it does nothing.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	if s.retain == 0 {
		return 0, nil
	}
	addrs, err := s.logAddrs()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, addr := range addrs {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.Open(addr).TrimToLast(ctx, int(s.retain), 0)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// logAddrs lists addresses that have a log meta key, skipping over entry
// ranges with a seek.
func (s *Store) logAddrs() ([]identity.Identity, error) {
	hi := append([]byte{}, acctPrefix...)
	hi[len(hi)-1]++
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: acctPrefix, UpperBound: hi})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var addrs []identity.Identity
	for ok := iter.First(); ok; {
		key := iter.Key()
		if len(key) < len(acctPrefix)+identity.Size {
			ok = iter.Next()
			continue
		}
		var addr identity.Identity
		copy(addr[:], key[len(acctPrefix):])
		meta := KeyLogMeta(addr)
		switch c := bytes.Compare(key, meta); {
		case c == 0:
			addrs = append(addrs, addr)
			ok = iter.Next()
		case c < 0:
			ok = iter.SeekGE(meta)
		default:
			ok = iter.Next()
		}
	}
	return addrs, iter.Error()
}

// TrimToLast deletes all but the newest keep entries, committing deletes in
// batches of up to batchLimit keys. It returns the number deleted.
func (l *Log) TrimToLast(ctx context.Context, keep int, batchLimit int) (int, error) {
	if batchLimit <= 0 {
		batchLimit = 1024
	}
	if keep < 0 {
		keep = 0
	}
	last := l.LastSeq()
	if last <= uint64(keep) {
		return 0, nil
	}
	cutoff := last - uint64(keep) // delete seq <= cutoff

	low, hi := l.bounds()
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	deleted := 0
	for ok := iter.First(); ok; {
		b := l.db.NewBatch()
		n := 0
		for ok && n < batchLimit {
			seq := binary.BigEndian.Uint64(iter.Key()[len(low)-8:])
			if seq > cutoff {
				ok = false
				break
			}
			if err := b.Delete(iter.Key(), nil); err != nil {
				b.Close()
				return deleted, err
			}
			n++
			ok = iter.Next()
		}
		if n == 0 {
			b.Close()
			break
		}
		if err := l.db.CommitBatch(ctx, b); err != nil {
			b.Close()
			return deleted, err
		}
		b.Close()
		deleted += n
	}
	return deleted, nil
}
