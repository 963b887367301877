package notifications

import (
	"context"

	"github.com/rom8726/caseflow"
)

var _ caseflow.Plugin = (*NotificationsPlugin)(nil)

type NotificationType string

const (
	NotificationTypeExecutionStarted   NotificationType = "execution_started"
	NotificationTypeExecutionCompleted NotificationType = "execution_completed"
	NotificationTypeExecutionFailed    NotificationType = "execution_failed"
	NotificationTypeExecutionCancelled NotificationType = "execution_cancelled"
	NotificationTypeStepFailed         NotificationType = "step_failed"
)

type Notification struct {
	Type         NotificationType `json:"type"`
	ExecutionID  string           `json:"execution_id"`
	TemplateName string           `json:"template_name"`
	CaseID       string           `json:"case_id"`
	StepID       string           `json:"step_id,omitempty"`
	Status       string           `json:"status"`
	Progress     float64          `json:"progress"`
	Error        string           `json:"error,omitempty"`
}

type NotificationChannel interface {
	Send(ctx context.Context, notification Notification) error
}

// NotificationsPlugin reports execution start, every terminal outcome and
// failed steps. Successful steps are not reported.
type NotificationsPlugin struct {
	caseflow.BasePlugin

	channel NotificationChannel
}

func New(channel NotificationChannel) *NotificationsPlugin {
	return &NotificationsPlugin{
		BasePlugin: caseflow.NewBasePlugin("notifications", caseflow.PriorityNormal),
		channel:    channel,
	}
}

func (p *NotificationsPlugin) OnExecutionStart(ctx context.Context, exec *caseflow.WorkflowExecution) error {
	return p.send(ctx, executionNotification(NotificationTypeExecutionStarted, exec))
}

func (p *NotificationsPlugin) OnExecutionComplete(ctx context.Context, exec *caseflow.WorkflowExecution) error {
	return p.send(ctx, executionNotification(NotificationTypeExecutionCompleted, exec))
}

func (p *NotificationsPlugin) OnExecutionFailed(ctx context.Context, exec *caseflow.WorkflowExecution) error {
	return p.send(ctx, executionNotification(NotificationTypeExecutionFailed, exec))
}

func (p *NotificationsPlugin) OnExecutionCancelled(ctx context.Context, exec *caseflow.WorkflowExecution) error {
	return p.send(ctx, executionNotification(NotificationTypeExecutionCancelled, exec))
}

func (p *NotificationsPlugin) OnStepFailed(
	ctx context.Context,
	exec *caseflow.WorkflowExecution,
	step *caseflow.StepInstance,
	err error,
) error {
	notification := executionNotification(NotificationTypeStepFailed, exec)
	notification.StepID = step.ID
	notification.Status = string(step.Status)
	notification.Error = ""
	if err != nil {
		notification.Error = err.Error()
	}

	return p.send(ctx, notification)
}

func (p *NotificationsPlugin) send(ctx context.Context, notification Notification) error {
	if p.channel == nil {
		return nil
	}

	return p.channel.Send(ctx, notification)
}

func executionNotification(typ NotificationType, exec *caseflow.WorkflowExecution) Notification {
	notification := Notification{
		Type:         typ,
		ExecutionID:  exec.ID,
		TemplateName: exec.TemplateName,
		CaseID:       exec.CaseID,
		Status:       string(exec.Status),
		Progress:     exec.Progress,
	}
	if exec.Error != nil {
		notification.Error = *exec.Error
	}

	return notification
}
