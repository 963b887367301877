package caseflow

import (
	"context"
)

type Monitor interface {
	GetTemplateStats(ctx context.Context) ([]TemplateStats, error)
}
