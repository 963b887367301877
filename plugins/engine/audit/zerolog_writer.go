package audit

import (
	"context"

	"github.com/rs/zerolog"
)

var _ Writer = (*ZerologWriter)(nil)

// ZerologWriter emits audit entries as structured log lines.
type ZerologWriter struct {
	logger zerolog.Logger
}

func NewZerologWriter(logger zerolog.Logger) *ZerologWriter {
	return &ZerologWriter{logger: logger.With().Str("component", "audit").Logger()}
}

func (w *ZerologWriter) Write(_ context.Context, entry *AuditLogEntry) error {
	event := w.logger.Info()
	if entry.Error != "" {
		event = w.logger.Warn().Str("error", entry.Error)
	}

	event = event.
		Time("at", entry.Timestamp).
		Str("event", entry.EventType).
		Str("execution_id", entry.ExecutionID).
		Str("template", entry.TemplateName).
		Str("case_id", entry.CaseID).
		Str("status", entry.Status).
		Float64("progress", entry.Progress)

	if entry.StepID != "" {
		event = event.Str("step_id", entry.StepID).Int("attempt", entry.Attempt)
	}
	if entry.Duration != nil {
		event = event.Dur("duration", *entry.Duration)
	}

	event.Msg("audit")

	return nil
}
