// Package observability wires structured logging (zap), metrics
// (Prometheus) and tracing (OpenTelemetry with a stdout exporter) the way
// the teacher's internal/observability does, relabeled for match/agent
// events instead of room/websocket events.
package observability

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
)

// Metrics are the process-wide Prometheus instruments, one family per
// ambient concern the spec's observability section names.
type Metrics struct {
	ActiveAgentConnections prometheus.Gauge
	MatchesInProgress      prometheus.Gauge
	RoundLatency           prometheus.Observer
	AgentRequestLatency    *prometheus.HistogramVec
	AgentHardTimeoutTotal  prometheus.Counter
	AgentProtocolDropTotal prometheus.Counter
	DeckShuffleTotal       prometheus.Counter
	JournalAppendLatency   prometheus.Observer
	InvariantViolationTotal *prometheus.CounterVec
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer.(*prometheus.Registry)
	}
	return &Metrics{
		ActiveAgentConnections: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "agent_active_connections",
			Help: "Number of agents currently connected over the wsbus hub",
		}),
		MatchesInProgress: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "matches_in_progress",
			Help: "Number of matches currently being played",
		}),
		RoundLatency: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "round_latency_ms",
			Help:    "Wall-clock time to complete one role-select+role-execution round",
			Buckets: prometheus.ExponentialBuckets(10, 2, 14),
		}),
		AgentRequestLatency: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agent_request_latency_ms",
			Help:    "Latency of one AgentTransport request, by request kind",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}, []string{"kind"}),
		AgentHardTimeoutTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "agent_hard_timeout_total",
			Help: "Requests that exhausted soft retries and escalated to the fallback agent",
		}),
		AgentProtocolDropTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "agent_protocol_drop_total",
			Help: "Responses dropped for an unknown or already-consumed request id",
		}),
		DeckShuffleTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "deck_shuffle_total",
			Help: "Number of times a match's deck was shuffled",
		}),
		JournalAppendLatency: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "journal_append_latency_ms",
			Help:    "Latency of one HistoryJournal.Append call",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		InvariantViolationTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "invariant_violation_total",
			Help: "Fatal invariant violations that aborted a match, by invariant name",
		}, []string{"invariant"}),
	}
}

func SetupTracerProvider(ctx context.Context, serviceName string, stdout bool, logger *zap.Logger) (*sdktrace.TracerProvider, error) {
	var exporter *stdouttrace.Exporter
	var err error
	if stdout {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
	}

	rs := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(rs),
	)
	if exporter != nil {
		tp.RegisterSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter))
	}
	otel.SetTracerProvider(tp)
	logger.Info("tracer initialized")
	return tp, nil
}

func SetupLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	return cfg.Build()
}

// ZapToSlog wraps a zap.Logger as a slog.Logger, used to satisfy the
// slog.Logger the queuebus binding (amqp091-go's own logging hook) expects.
func ZapToSlog(logger *zap.Logger) *slog.Logger {
	return slog.New(slogHandler{logger.Sugar()})
}

type slogHandler struct {
	sugar *zap.SugaredLogger
}

func (h slogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h slogHandler) Handle(ctx context.Context, r slog.Record) error {
	args := make([]interface{}, 0, r.NumAttrs()*2)
	r.Attrs(func(a slog.Attr) bool {
		args = append(args, a.Key, a.Value.Any())
		return true
	})
	switch r.Level {
	case slog.LevelDebug:
		h.sugar.Debugw(r.Message, args...)
	case slog.LevelInfo:
		h.sugar.Infow(r.Message, args...)
	case slog.LevelWarn:
		h.sugar.Warnw(r.Message, args...)
	case slog.LevelError:
		h.sugar.Errorw(r.Message, args...)
	}
	return nil
}

func (h slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	args := make([]interface{}, 0, len(attrs)*2)
	for _, a := range attrs {
		args = append(args, a.Key, a.Value.Any())
	}
	return slogHandler{h.sugar.With(args...)}
}

func (h slogHandler) WithGroup(name string) slog.Handler {
	return h
}
