// Package grpcserver hosts the ddmonitor.v1.Ledger gRPC service on top of
// a runtime: transaction submission, account reads, rent quotes, the dev
// faucet, health and account change streams.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	s := grpcserver.New(rt)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":7600")
package grpcserver
