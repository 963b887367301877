package notifications

import (
	"context"

	"github.com/rs/zerolog"
)

var _ NotificationChannel = (*LogChannel)(nil)

// LogChannel delivers notifications to a zerolog logger.
type LogChannel struct {
	logger zerolog.Logger
}

func NewLogChannel(logger zerolog.Logger) *LogChannel {
	return &LogChannel{logger: logger.With().Str("component", "notifications").Logger()}
}

func (c *LogChannel) Send(_ context.Context, n Notification) error {
	event := c.logger.Info()
	if n.Error != "" {
		event = c.logger.Warn().Str("error", n.Error)
	}

	event = event.
		Str("type", string(n.Type)).
		Str("execution_id", n.ExecutionID).
		Str("template", n.TemplateName).
		Str("case_id", n.CaseID).
		Str("status", n.Status).
		Float64("progress", n.Progress)
	if n.StepID != "" {
		event = event.Str("step_id", n.StepID)
	}

	event.Msg("notification")

	return nil
}
