package httpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/solanafuns/ddmonitor/internal/action"
	cfgpkg "github.com/solanafuns/ddmonitor/internal/config"
	"github.com/solanafuns/ddmonitor/internal/identity"
	"github.com/solanafuns/ddmonitor/internal/ledger"
	"github.com/solanafuns/ddmonitor/internal/program"
	"github.com/solanafuns/ddmonitor/internal/runtime"
	pebblestore "github.com/solanafuns/ddmonitor/internal/storage/pebble"
	logpkg "github.com/solanafuns/ddmonitor/pkg/log"
)

func newServer(t *testing.T) (*runtime.Runtime, *Server) {
	t.Helper()
	pk, err := identity.Generate()
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	cfg := cfgpkg.Default()
	cfg.ProgramID = pk.Identity().String()
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever, Config: cfg})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	logger, _ := logpkg.ApplyConfig(&logpkg.Config{Level: "error", Format: "text", Outputs: []string{"null"}})
	return rt, New(rt, logger)
}

func submit(t *testing.T, rt *runtime.Runtime, signer identity.Keypair, nonce uint64, ix program.Instruction) {
	t.Helper()
	lix, err := program.NewInstruction(rt.ProgramID(), signer.Identity(), ix)
	if err != nil {
		t.Fatalf("instruction: %v", err)
	}
	tx := ledger.NewTransaction(signer.Identity(), nonce, lix)
	tx.Sign(signer)
	if _, err := rt.Ledger().Submit(context.Background(), tx); err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func TestHealthHandler(t *testing.T) {
	_, s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestQueueHandler(t *testing.T) {
	rt, s := newServer(t)
	alice, _ := identity.Generate()
	if _, err := rt.Ledger().Airdrop(context.Background(), alice.Identity(), 1_000_000_000); err != nil {
		t.Fatalf("airdrop: %v", err)
	}
	submit(t, rt, alice, 1, program.RegisterQueue{Name: "room1", DataSize: 64, AllowCount: 2})
	hello, err := action.Encode(action.Raw{Text: "hello"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	submit(t, rt, alice, 2, program.PushMessage{Name: "room1", Data: hello})

	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/queues/room1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d body %s", w.Code, w.Body.String())
	}
	var view struct {
		Creator      string         `json:"creator"`
		Allow        []string       `json:"allow"`
		Slots        int            `json:"slots"`
		NeedDataSize uint64         `json:"need_data_size"`
		Action       map[string]any `json:"action"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Creator != alice.Identity().String() || view.Slots != 2 || len(view.Allow) != 1 || view.NeedDataSize != 64 {
		t.Fatalf("view: %+v", view)
	}
	if view.Action["kind"] != "raw" || view.Action["text"] != "hello" {
		t.Fatalf("action: %v", view.Action)
	}

	w = httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/queues/nobody-here", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing queue status: %d", w.Code)
	}
}

func TestAccountHandler(t *testing.T) {
	rt, s := newServer(t)
	k, _ := identity.Generate()
	if _, err := rt.Ledger().Airdrop(context.Background(), k.Identity(), 42); err != nil {
		t.Fatalf("airdrop: %v", err)
	}
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/accounts/"+k.Identity().String(), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"lamports":42`) {
		t.Fatalf("body: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/accounts/not-an-address!", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad address status: %d", w.Code)
	}
}

func TestSubscribeSSE(t *testing.T) {
	rt, s := newServer(t)
	ts := httptest.NewServer(s.srv.Handler)
	defer ts.Close()

	k, _ := identity.Generate()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/accounts/subscribe?from_seq=1&address="+k.Identity().String(), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %s", ct)
	}

	if _, err := rt.Ledger().Airdrop(context.Background(), k.Identity(), 7); err != nil {
		t.Fatalf("airdrop: %v", err)
	}
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var u ledger.Update
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &u); err != nil {
			t.Fatalf("event: %v", err)
		}
		if u.Seq != 1 || u.Account.Lamports != 7 {
			t.Fatalf("update: %+v", u)
		}
		return
	}
	t.Fatalf("stream ended: %v", sc.Err())
}

func TestMetricsEndpoint(t *testing.T) {
	_, s := newServer(t)
	s.srv.Handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ddm_http_requests_total") {
		t.Fatalf("metrics: %d", w.Code)
	}
}
