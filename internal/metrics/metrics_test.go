package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solanafuns/ddmonitor/internal/ledger"
	pebblestore "github.com/solanafuns/ddmonitor/internal/storage/pebble"
)

var (
	_ pebblestore.MetricsHook = (*Registry)(nil)
	_ ledger.Metrics          = (*Registry)(nil)
)

func TestLedgerCounters(t *testing.T) {
	r := New()
	r.ObserveTransaction("ok", time.Millisecond)
	r.ObserveTransaction("ok", time.Millisecond)
	r.ObserveTransaction("error", time.Millisecond)
	r.AddAccountBytes(100)
	r.AddAccountBytes(0)

	if got := testutil.ToFloat64(r.transactions.WithLabelValues("ok")); got != 2 {
		t.Fatalf("ok transactions: %v", got)
	}
	if got := testutil.ToFloat64(r.transactions.WithLabelValues("error")); got != 1 {
		t.Fatalf("error transactions: %v", got)
	}
	if got := testutil.ToFloat64(r.accountBytes); got != 100 {
		t.Fatalf("account bytes: %v", got)
	}
}

func TestStoreCounters(t *testing.T) {
	r := New()
	r.ObserveWrite(time.Microsecond, 10)
	r.ObserveBatchCommit(time.Microsecond, 3, 40)
	if got := testutil.ToFloat64(r.batchOps); got != 3 {
		t.Fatalf("batch ops: %v", got)
	}
	if got := testutil.ToFloat64(r.storeBytes.WithLabelValues("write")); got != 10 {
		t.Fatalf("write bytes: %v", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	r := New()
	h := r.Middleware("/v1/accounts/{addr}", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/accounts/abc", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: %d", rec.Code)
	}
	if got := testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "/v1/accounts/{addr}", "404")); got != 1 {
		t.Fatalf("http requests: %v", got)
	}

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ddm_http_requests_total") {
		t.Fatalf("scrape missing http counter")
	}
}

func TestUnaryInterceptor(t *testing.T) {
	r := New()
	ic := r.UnaryInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/ddmonitor.v1.Ledger/GetAccount"}
	_, _ = ic(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.NotFound, "missing")
	})
	if got := testutil.ToFloat64(r.grpcRequests.WithLabelValues(info.FullMethod, codes.NotFound.String())); got != 1 {
		t.Fatalf("grpc requests: %v", got)
	}
}
