package events

import (
	"context"

	"github.com/brettbedarf/webfiles"
	"github.com/brettbedarf/webfiles/internal/util"
	"github.com/brettbedarf/webfiles/metrics"
)

// AuditLogger writes one log line per file event.
type AuditLogger struct {
	logger util.Logger
}

func NewAuditLogger() *AuditLogger {
	return &AuditLogger{logger: util.GetLogger("Audit")}
}

func (a *AuditLogger) Notify(_ context.Context, ev webfiles.Event) error {
	entry := a.logger.Info().
		Str("kind", string(ev.Kind)).
		Str("filename", ev.Filename).
		Time("at", ev.Timestamp)
	switch ev.Kind {
	case webfiles.FileCreated:
		entry.Msgf("File created: %s", ev.Filename)
	case webfiles.FileDeleted:
		entry.Msgf("File deleted: %s", ev.Filename)
	default:
		entry.Msg("File event")
	}
	return nil
}

// MetricsSubscriber counts events by kind.
type MetricsSubscriber struct {
	m metrics.Metrics
}

func NewMetricsSubscriber(m metrics.Metrics) *MetricsSubscriber {
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	return &MetricsSubscriber{m: m}
}

func (s *MetricsSubscriber) Notify(_ context.Context, ev webfiles.Event) error {
	s.m.RecordEvent(string(ev.Kind))
	return nil
}

// RegisterDefaults subscribes the audit logger and metrics subscriber to both
// event kinds, in that order.
func RegisterDefaults(b *Bus, m metrics.Metrics) error {
	if err := b.Subscribe("audit", NewAuditLogger(), webfiles.FileCreated, webfiles.FileDeleted); err != nil {
		return err
	}
	return b.Subscribe("metrics", NewMetricsSubscriber(m), webfiles.FileCreated, webfiles.FileDeleted)
}
