// Package changelog keeps an append-only log of account snapshots per
// address. The ledger stages one entry per changed account into the same
// Pebble batch that writes the account, then wakes subscribers once the batch
// is committed.
//
// Keys are lexicographically ordered for range scans:
//   - acct/{addr}/log/m           (last sequence)
//   - acct/{addr}/log/e/{seq_be8} (entries)
//
// Entries are stored as varint headerLen | header | payload | crc32c(header|payload),
// where header is slot(8B BE) | commitMs(8B BE) and payload is the encoded account.
//
//	l := store.Open(addr)
//	seq, _ := l.Stage(batch, changelog.Header{Slot: 7, CommitMs: now}, accountBytes)
//	_ = db.CommitBatch(ctx, batch)
//	l.Publish()
//
//	items, next := l.Read(changelog.ReadOptions{Start: changelog.TokenFromSeq(seq), Limit: 10})
package changelog
