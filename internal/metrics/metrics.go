// Package metrics exposes Prometheus collectors for the store, the ledger
// and the HTTP and gRPC front ends. A Registry satisfies both
// pebblestore.MetricsHook and ledger.Metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const namespace = "ddm"

// Registry owns an isolated Prometheus registry and every ddmonitor collector.
type Registry struct {
	reg *prometheus.Registry

	storeWrites     prometheus.Histogram
	storeReads      prometheus.Histogram
	storeBytes      *prometheus.CounterVec
	batchCommits    prometheus.Histogram
	batchOps        prometheus.Counter
	transactions    *prometheus.CounterVec
	txDuration      *prometheus.HistogramVec
	instructions    *prometheus.HistogramVec
	accountBytes    prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	grpcRequests    *prometheus.CounterVec
	grpcStreamsOpen prometheus.Gauge
}

// New builds a registry with Go runtime and process collectors attached.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Registry{
		reg: reg,
		storeWrites: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "store", Name: "write_seconds",
			Help:    "Latency of single-key writes.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14),
		}),
		storeReads: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "store", Name: "read_seconds",
			Help:    "Latency of point reads.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14),
		}),
		storeBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "store", Name: "bytes_total",
			Help: "Bytes moved through the store.",
		}, []string{"op"}),
		batchCommits: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "store", Name: "batch_commit_seconds",
			Help:    "Latency of batch commits.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		batchOps: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "store", Name: "batch_ops_total",
			Help: "Operations committed through batches.",
		}),
		transactions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "transactions_total",
			Help: "Submitted transactions by result.",
		}, []string{"result"}),
		txDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "transaction_seconds",
			Help:    "End-to-end transaction latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"result"}),
		instructions: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "instruction_seconds",
			Help:    "Instruction execution latency by program.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14),
		}, []string{"program"}),
		accountBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "account_bytes_written_total",
			Help: "Account data bytes committed.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		grpcRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "grpc", Name: "requests_total",
			Help: "gRPC calls by method and status code.",
		}, []string{"method", "code"}),
		grpcStreamsOpen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "grpc", Name: "streams_open",
			Help: "Currently open server streams.",
		}),
	}
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

func (r *Registry) ObserveWrite(elapsed time.Duration, bytes int) {
	r.storeWrites.Observe(elapsed.Seconds())
	r.storeBytes.WithLabelValues("write").Add(float64(bytes))
}

func (r *Registry) ObserveRead(elapsed time.Duration, bytes int) {
	r.storeReads.Observe(elapsed.Seconds())
	r.storeBytes.WithLabelValues("read").Add(float64(bytes))
}

func (r *Registry) ObserveBatchCommit(elapsed time.Duration, numOps int, bytes int) {
	r.batchCommits.Observe(elapsed.Seconds())
	r.batchOps.Add(float64(numOps))
	r.storeBytes.WithLabelValues("batch").Add(float64(bytes))
}

func (r *Registry) ObserveTransaction(result string, elapsed time.Duration) {
	r.transactions.WithLabelValues(result).Inc()
	r.txDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

func (r *Registry) ObserveInstruction(program string, elapsed time.Duration) {
	r.instructions.WithLabelValues(program).Observe(elapsed.Seconds())
}

func (r *Registry) AddAccountBytes(n int) {
	if n > 0 {
		r.accountBytes.Add(float64(n))
	}
}

// Middleware records request counts and latency. route labels the handler
// so path parameters do not explode label cardinality.
func (r *Registry) Middleware(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, req)
		r.httpRequests.WithLabelValues(req.Method, route, strconv.Itoa(sw.status)).Inc()
		r.httpDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent events working through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// UnaryInterceptor counts unary calls by method and status code.
func (r *Registry) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		r.grpcRequests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}

// StreamInterceptor tracks open streams and counts them on completion.
func (r *Registry) StreamInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		r.grpcStreamsOpen.Inc()
		defer r.grpcStreamsOpen.Dec()
		err := handler(srv, ss)
		r.grpcRequests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return err
	}
}
