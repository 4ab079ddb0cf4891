// Package runtime wires storage, config, the local ledger and the queue
// program into a single-node ddmonitor host. It exposes Open/Close, basic
// health checks and accessors used by the servers.
//
// Example:
//
//	cfg := config.Default()
//	cfg.ProgramID = "..."
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	rcpt, err := rt.Ledger().Submit(ctx, tx)
package runtime
