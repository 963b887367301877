package caseflow

const (
	// Event types
	EventExecutionStarted   = "execution_started"
	EventExecutionCompleted = "execution_completed"
	EventExecutionFailed    = "execution_failed"
	EventExecutionCancelled = "execution_cancelled"
	EventExecutionPaused    = "execution_paused"
	EventExecutionResumed   = "execution_resumed"
	EventStepStarted        = "step_started"
	EventStepCompleted      = "step_completed"
	EventStepRetry          = "step_retry"
	EventStepFailed         = "step_failed"
	EventStepSkipped        = "step_skipped"
	EventConditionCheck     = "condition_check"
	EventDeadlock           = "deadlock"

	// Log field keys
	KeyEvent       = "event"
	KeyExecutionID = "execution_id"
	KeyTemplate    = "template"
	KeyCaseID      = "case_id"
	KeyStepID      = "step_id"
	KeyHandler     = "handler"
	KeyAttempt     = "attempt"
	KeyStatus      = "status"
	KeyProgress    = "progress"
	KeyCondition   = "condition"
	KeyResult      = "result"
	KeyDelay       = "delay"
	KeyPlugin      = "plugin"
)
