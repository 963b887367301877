package api

import (
	"context"

	"github.com/rom8726/caseflow"
)

var _ Engine = (*caseflow.Engine)(nil)

// Engine is the part of *caseflow.Engine the HTTP layer drives.
type Engine interface {
	Start(ctx context.Context, templateName, caseID string, execCtx map[string]any) (string, error)
	GetStatus(ctx context.Context, executionID string) (*caseflow.WorkflowExecution, error)
	Cancel(ctx context.Context, executionID string) error
	Pause(ctx context.Context, executionID string) error
	Resume(ctx context.Context, executionID string) error
	ListExecutions() []string
	RegisterTemplate(tpl *caseflow.WorkflowTemplate) error
	GetTemplate(name string) (*caseflow.WorkflowTemplate, error)
	ListTemplates() []string
}
