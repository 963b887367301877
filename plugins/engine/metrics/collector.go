package metrics

import (
	"time"

	"github.com/rom8726/caseflow"
)

type MetricsCollector interface {
	RecordExecutionStarted(template string)
	RecordExecutionFinished(template string, status caseflow.ExecutionStatus, duration time.Duration)
	RecordStepStarted(template string, stepID string, attempt int)
	RecordStepFinished(template string, stepID string, status caseflow.StepStatus, duration time.Duration)
	RecordStepRetry(template string, stepID string)
	RecordStepSkipped(template string, stepID string)
}
