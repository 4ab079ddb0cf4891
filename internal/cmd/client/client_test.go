package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/solanafuns/ddmonitor/internal/address"
	cfgpkg "github.com/solanafuns/ddmonitor/internal/config"
	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/runtime"
	grpcserver "github.com/solanafuns/ddmonitor/internal/server/grpc"
	pebblestore "github.com/solanafuns/ddmonitor/internal/storage/pebble"
	"github.com/solanafuns/ddmonitor/internal/wallet"
)

type testHost struct {
	programID identity.Identity
	endpoint  string
	wallet    string
}

func startHost(t *testing.T) testHost {
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
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := grpcserver.New(rt)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() {
		srv.Close()
		_ = rt.Close()
	})
	return testHost{
		programID: pk.Identity(),
		endpoint:  lis.Addr().String(),
		wallet:    filepath.Join(t.TempDir(), "id.json"),
	}
}

// run executes one CLI invocation against h with the given stdin.
func (h testHost) run(ctx context.Context, stdin string, args ...string) (string, error) {
	root := NewRoot(&Globals{})
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	base := []string{
		"--program", h.programID.String(),
		"--endpoint", h.endpoint,
		"--wallet", h.wallet,
		"--log-level", "error",
	}
	root.SetArgs(append(base, args...))
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func (h testHost) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out, err := h.run(ctx, "", args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func decodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return m
}

func TestAddressCommand(t *testing.T) {
	h := startHost(t)
	out := h.mustRun(t, "address", "demo")
	want, _, err := address.QueueAddress(h.programID, "demo")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if got := decodeJSON(t, out)["address"]; got != want.String() {
		t.Fatalf("address = %v, want %s", got, want)
	}
}

func TestKeygenRefusesOverwrite(t *testing.T) {
	h := startHost(t)
	path := filepath.Join(t.TempDir(), "k.json")
	out := h.mustRun(t, "keygen", "--outfile", path)
	k, err := wallet.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(out, k.Identity().String()) {
		t.Fatalf("output %q missing identity %s", out, k.Identity())
	}
	if _, err := h.run(context.Background(), "", "keygen", "--outfile", path); err == nil {
		t.Fatal("expected overwrite refusal")
	}
	h.mustRun(t, "keygen", "--outfile", path, "--force")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestQueueLifecycle(t *testing.T) {
	h := startHost(t)
	h.mustRun(t, "airdrop", "5000000000")

	created := decodeJSON(t, h.mustRun(t, "queue", "create", "demo", "--size", "64", "--allow-count", "3"))
	if created["created"] != true {
		t.Fatalf("first create: %v", created)
	}
	again := decodeJSON(t, h.mustRun(t, "queue", "create", "demo"))
	if again["created"] != false || again["address"] != created["address"] {
		t.Fatalf("second create: %v", again)
	}

	h.mustRun(t, "queue", "push", "demo", "--message", "hello there")
	show := decodeJSON(t, h.mustRun(t, "queue", "show", "demo"))
	act := show["action"].(map[string]any)
	if act["kind"] != "user_message" || act["text"] != "hello there" {
		t.Fatalf("action = %v", act)
	}

	other, err := identity.Generate()
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	h.mustRun(t, "queue", "allow", "demo", other.Identity().String())
	show = decodeJSON(t, h.mustRun(t, "queue", "show", "demo"))
	if !strings.Contains(strings.Join(toStrings(show["allow"]), ","), other.Identity().String()) {
		t.Fatalf("allow list %v missing %s", show["allow"], other.Identity())
	}
	h.mustRun(t, "queue", "revoke", "demo", other.Identity().String())
	show = decodeJSON(t, h.mustRun(t, "queue", "show", "demo"))
	if strings.Contains(strings.Join(toStrings(show["allow"]), ","), other.Identity().String()) {
		t.Fatalf("revoked identity still listed: %v", show["allow"])
	}

	h.mustRun(t, "queue", "push", "demo", "--sample", "4,2")
	out := h.mustRun(t, "queue", "watch", "demo", "--from-seq", "1", "--filter", `kind == "sample"`, "--limit", "1")
	ev := decodeJSON(t, strings.TrimSpace(out))
	if ev["kind"] != "sample" || ev["x"] != float64(4) || ev["y"] != float64(2) {
		t.Fatalf("watch event = %v", ev)
	}
}

func toStrings(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, _ := it.(string)
		out = append(out, s)
	}
	return out
}

func TestPushRequiresOneAction(t *testing.T) {
	h := startHost(t)
	if _, err := h.run(context.Background(), "", "queue", "push", "demo"); err == nil {
		t.Fatal("expected error without an action flag")
	}
	if _, err := h.run(context.Background(), "", "queue", "push", "demo", "--raw", "a", "--noop"); err == nil {
		t.Fatal("expected error with two action flags")
	}
	if _, err := parseSample("300,1"); err == nil {
		t.Fatal("expected range error")
	}
}

func TestChatPushesLinesUntilExit(t *testing.T) {
	h := startHost(t)
	h.mustRun(t, "airdrop")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out, err := h.run(ctx, "hello room\nexit\nnot sent\n", "chat", "--room", "lobby", "--start")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !strings.Contains(out, ": "+chatGreeting+"\n") || !strings.Contains(out, ": hello room\n") {
		t.Fatalf("own messages not echoed: %q", out)
	}
	if strings.Contains(out, "not sent") {
		t.Fatalf("line after exit was sent: %q", out)
	}
	show := decodeJSON(t, h.mustRun(t, "queue", "show", "lobby"))
	act := show["action"].(map[string]any)
	if act["text"] != "hello room" {
		t.Fatalf("last message = %v", act)
	}
	if show["need_data_size"] != float64(chatDataSize) {
		t.Fatalf("room size = %v", show["need_data_size"])
	}
}

func TestChatReplacesInvalidUTF8(t *testing.T) {
	h := startHost(t)
	h.mustRun(t, "airdrop")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := h.run(ctx, "caf\xe9\n", "chat", "--room", "bytes", "--start"); err != nil {
		t.Fatalf("chat: %v", err)
	}
	act := decodeJSON(t, h.mustRun(t, "queue", "show", "bytes"))["action"].(map[string]any)
	if act["kind"] != "user_message" || act["text"] != "caf\uFFFD" {
		t.Fatalf("last message = %v", act)
	}
}

func TestMonitorStopsOnCancel(t *testing.T) {
	h := startHost(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := h.run(ctx, "", "monitor", "--name", "watched"); err != nil {
		t.Fatalf("monitor: %v", err)
	}
	if out := h.mustRun(t, "queue", "show", "watched"); !strings.Contains(out, `"need_data_size": 64`) {
		t.Fatalf("monitor did not create the queue: %s", out)
	}
}
