package service

import (
	"context"

	"github.com/yndnr/vaultlink-go/internal/core/domain"
	"github.com/yndnr/vaultlink-go/internal/telemetry/logger"
)

// Sink consumes domain events. Sinks are independent: one failing sink
// never prevents the others from running.
type Sink interface {
	Name() string
	Handle(ctx context.Context, ev domain.Event) error
}

// EventMetrics records event and sink outcomes.
type EventMetrics interface {
	ObserveEvent(name string)
	ObserveSinkError(sink string)
}

// EventDispatcher emits each domain event once to every registered sink.
type EventDispatcher struct {
	sinks   []Sink
	log     logger.Logger
	metrics EventMetrics
}

// NewEventDispatcher creates a dispatcher. log and metrics may be nil.
func NewEventDispatcher(log logger.Logger, metrics EventMetrics, sinks ...Sink) *EventDispatcher {
	if log == nil {
		log = logger.Default()
	}
	return &EventDispatcher{
		sinks:   sinks,
		log:     log,
		metrics: metrics,
	}
}

// Emit implements Emitter. Sink errors are logged and counted, never returned.
func (d *EventDispatcher) Emit(ctx context.Context, ev domain.Event) {
	for _, s := range d.sinks {
		if err := d.handle(ctx, s, ev); err != nil {
			d.log.WithContext(ctx).Warn("event sink failed",
				"sink", s.Name(),
				"event", ev.Name(),
				"room", ev.Room(),
				"error", err,
			)
			if d.metrics != nil {
				d.metrics.ObserveSinkError(s.Name())
			}
		}
	}
}

func (d *EventDispatcher) handle(ctx context.Context, s Sink, ev domain.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.ErrInternalServer.WithDetails("sink panic")
		}
	}()
	return s.Handle(ctx, ev)
}

// NotificationSink pushes events to the session's room.
type NotificationSink struct {
	pub Publisher

	// txPending enables [TX_PENDING] pushes for issued connector codes.
	txPending bool
}

// NewNotificationSink creates a NotificationSink.
func NewNotificationSink(pub Publisher, txPending bool) *NotificationSink {
	return &NotificationSink{pub: pub, txPending: txPending}
}

// Name implements Sink.
func (s *NotificationSink) Name() string { return "notification" }

// Handle implements Sink.
func (s *NotificationSink) Handle(ctx context.Context, ev domain.Event) error {
	if _, ok := ev.(domain.TransactionPending); ok && !s.txPending {
		return nil
	}

	msg := domain.MessageFor(ev)
	if msg == nil {
		return nil
	}
	if err := s.pub.Publish(ctx, msg.Room, msg); err != nil {
		return domain.ErrNotificationFailed.WithCause(err)
	}
	return nil
}

// MetricsSink counts events by name.
type MetricsSink struct {
	metrics EventMetrics
}

// NewMetricsSink creates a MetricsSink.
func NewMetricsSink(metrics EventMetrics) *MetricsSink {
	return &MetricsSink{metrics: metrics}
}

// Name implements Sink.
func (s *MetricsSink) Name() string { return "metrics" }

// Handle implements Sink.
func (s *MetricsSink) Handle(_ context.Context, ev domain.Event) error {
	s.metrics.ObserveEvent(ev.Name())
	return nil
}

// LogSink writes one structured line per event.
type LogSink struct {
	log logger.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(log logger.Logger) *LogSink {
	if log == nil {
		log = logger.Default()
	}
	return &LogSink{log: log}
}

// Name implements Sink.
func (s *LogSink) Name() string { return "log" }

// Handle implements Sink.
func (s *LogSink) Handle(ctx context.Context, ev domain.Event) error {
	l := s.log.WithContext(ctx)
	switch e := ev.(type) {
	case domain.SessionBound:
		l.Info("session bound",
			"session_id", e.Key.SessionID,
			"origin", e.Key.Origin,
			"vault_id", e.Vault.ID,
			"created", e.Created,
			"switched", e.Switched,
		)
	case domain.TransactionPending:
		l.Info("transaction pending",
			"session_id", e.Key.SessionID,
			"origin", e.Key.Origin,
			"tx_id", e.Metadata.TxID,
			"tx_blocked", e.TxBlocked,
			"code", e.Code,
		)
	default:
		l.Info("domain event", "event", ev.Name(), "room", ev.Room())
	}
	return nil
}
