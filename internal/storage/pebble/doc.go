// Package pebblestore is a thin wrapper around Pebble that adds an fsync
// policy, storage metrics and logger bridging. The ledger keeps accounts and
// the account change log in one store.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	b := db.NewBatch()
//	_ = b.Set([]byte("acct/..."), record, nil)
//	_ = db.CommitBatch(ctx, b)
//	b.Close()
package pebblestore
