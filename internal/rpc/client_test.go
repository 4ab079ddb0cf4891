package rpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/solanafuns/ddmonitor/internal/action"
	cfgpkg "github.com/solanafuns/ddmonitor/internal/config"
	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/ledger"
	"github.com/solanafuns/ddmonitor/internal/program"
	"github.com/solanafuns/ddmonitor/internal/runtime"
	"github.com/solanafuns/ddmonitor/internal/sdk"
	grpcserver "github.com/solanafuns/ddmonitor/internal/server/grpc"
	pebblestore "github.com/solanafuns/ddmonitor/internal/storage/pebble"
	"github.com/solanafuns/ddmonitor/internal/watch"
)

var (
	_ sdk.Host     = (*Client)(nil)
	_ watch.Source = (*Client)(nil)
)

func newClient(t *testing.T) (*runtime.Runtime, *Client) {
	t.Helper()
	pk, err := identity.Generate()
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	cfg := cfgpkg.Default()
	cfg.ProgramID = pk.Identity().String()
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever, Config: cfg})
	if err != nil {
		t.Fatalf("runtime: %v", err)
	}
	srv := grpcserver.New(rt)
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	c, err := Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Close()
		srv.Close()
		_ = rt.Close()
	})
	return rt, c
}

func TestClientBasics(t *testing.T) {
	rt, c := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, _, err := c.Health(ctx)
	if err != nil || st != "ok" {
		t.Fatalf("health: %q %v", st, err)
	}
	k, _ := identity.Generate()
	if _, err := c.GetAccount(ctx, k.Identity()); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Fatalf("want ErrAccountNotFound, got %v", err)
	}
	if _, err := c.Airdrop(ctx, k.Identity(), 500); err != nil {
		t.Fatalf("airdrop: %v", err)
	}
	a, err := c.GetAccount(ctx, k.Identity())
	if err != nil || a.Lamports != 500 {
		t.Fatalf("account: %+v %v", a, err)
	}
	if _, err := c.Airdrop(ctx, k.Identity(), 1); err != nil {
		t.Fatalf("airdrop: %v", err)
	}
	if seq, err := c.AccountSeq(ctx, k.Identity()); err != nil || seq != 2 {
		t.Fatalf("account seq: %d %v", seq, err)
	}
	mb, err := c.MinimumBalance(ctx, 10)
	if err != nil || mb != rt.Ledger().MinimumBalance(10) {
		t.Fatalf("minimum balance: %d %v", mb, err)
	}
}

func TestSDKOverRPC(t *testing.T) {
	rt, c := newClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice, _ := identity.Generate()
	bob, _ := identity.Generate()
	for _, k := range []identity.Keypair{alice, bob} {
		if _, err := c.Airdrop(ctx, k.Identity(), 1_000_000_000); err != nil {
			t.Fatalf("airdrop: %v", err)
		}
	}
	ac := sdk.New(c, rt.ProgramID(), alice, nil)
	bc := sdk.New(c, rt.ProgramID(), bob, nil)

	addr, created, err := ac.EnsureQueue(ctx, "room1", 128, 4)
	if err != nil || !created {
		t.Fatalf("ensure: %v %v", created, err)
	}
	if _, err := bc.Push(ctx, "room1", []byte("nope")); !errors.Is(err, program.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized across the wire, got %v", err)
	}
	if _, _, err := ac.EnsureQueue(ctx, "room1", 128, 4); err != nil {
		t.Fatalf("ensure again: %v", err)
	}

	got := make(chan action.Action, 4)
	wctx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- watch.WatchEvents(wctx, c, addr, watch.Options{FromSeq: 2}, func(ev watch.Event) { got <- ev.Action })
	}()
	if _, err := ac.Allow(ctx, "room1", bob.Identity()); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if _, err := bc.PushAction(ctx, "room1", action.Sample{X: 4, Y: 2}); err != nil {
		t.Fatalf("bob push: %v", err)
	}

	// the allow-list edit produces a snapshot too; its data is still empty
	first := <-got
	if _, ok := first.(action.Noop); !ok {
		t.Fatalf("first: %#v", first)
	}
	select {
	case a := <-got:
		if s, ok := a.(action.Sample); !ok || s.X != 4 || s.Y != 2 {
			t.Fatalf("second: %#v", a)
		}
	case <-ctx.Done():
		t.Fatalf("timed out")
	}
	stop()
	if err := <-done; err != nil {
		t.Fatalf("watch: %v", err)
	}
}
