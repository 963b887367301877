package caseflow

import (
	"context"
	"fmt"
	"sort"
	"time"
)

var _ Monitor = (*StoreMonitor)(nil)

// StoreMonitor aggregates persisted executions per template.
type StoreMonitor struct {
	reader ExecutionReader
}

func NewStoreMonitor(reader ExecutionReader) *StoreMonitor {
	return &StoreMonitor{reader: reader}
}

type TemplateStats struct {
	TemplateName        string        `json:"template_name"`
	TotalExecutions     int           `json:"total_executions"`
	CompletedExecutions int           `json:"completed_executions"`
	FailedExecutions    int           `json:"failed_executions"`
	CancelledExecutions int           `json:"cancelled_executions"`
	ActiveExecutions    int           `json:"active_executions"`
	AverageDuration     time.Duration `json:"average_duration"`
}

// GetTemplateStats returns one entry per template, sorted by name. The average
// duration covers finished executions that have both start and end times.
func (m *StoreMonitor) GetTemplateStats(ctx context.Context) ([]TemplateStats, error) {
	execs, err := m.reader.ListExecutions(ctx, ExecutionFilter{})
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}

	byTemplate := make(map[string]*TemplateStats)
	totals := make(map[string]time.Duration)
	finished := make(map[string]int)

	for _, exec := range execs {
		s, ok := byTemplate[exec.TemplateName]
		if !ok {
			s = &TemplateStats{TemplateName: exec.TemplateName}
			byTemplate[exec.TemplateName] = s
		}

		s.TotalExecutions++
		switch exec.Status {
		case StatusCompleted:
			s.CompletedExecutions++
		case StatusFailed:
			s.FailedExecutions++
		case StatusCancelled:
			s.CancelledExecutions++
		default:
			s.ActiveExecutions++
		}

		if exec.Status.IsTerminal() && exec.StartedAt != nil && exec.CompletedAt != nil {
			totals[exec.TemplateName] += exec.CompletedAt.Sub(*exec.StartedAt)
			finished[exec.TemplateName]++
		}
	}

	stats := make([]TemplateStats, 0, len(byTemplate))
	for name, s := range byTemplate {
		if n := finished[name]; n > 0 {
			s.AverageDuration = totals[name] / time.Duration(n)
		}
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].TemplateName < stats[j].TemplateName })

	return stats, nil
}
