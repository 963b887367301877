package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rom8726/caseflow"
)

type Plugin interface {
	Name() string
	Description() string
	RegisterRoutes(mux *http.ServeMux)
}

type StartExecutionRequest struct {
	Template string         `json:"template"`
	CaseID   string         `json:"case_id"`
	Context  map[string]any `json:"context"`
}

type StartExecutionResponse struct {
	ExecutionID string `json:"execution_id"`
}

type ExecutionListResponse struct {
	Executions []string `json:"executions"`
}

type TemplateListResponse struct {
	Templates []string `json:"templates"`
}

// TemplateDTO is the wire form of a template. Durations use Go duration
// syntax ("1.5s", "250ms").
type TemplateDTO struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Steps       []StepDTO `json:"steps"`
}

type StepDTO struct {
	ID            string         `json:"id"`
	Name          string         `json:"name,omitempty"`
	Handler       string         `json:"handler"`
	DependsOn     []string       `json:"depends_on,omitempty"`
	Timeout       string         `json:"timeout,omitempty"`
	RetryAttempts int            `json:"retry_attempts,omitempty"`
	RetryDelay    string         `json:"retry_delay,omitempty"`
	RetryStrategy string         `json:"retry_strategy,omitempty"`
	Required      *bool          `json:"required,omitempty"`
	Condition     string         `json:"condition,omitempty"`
	Parameters    map[string]any `json:"parameters,omitempty"`
}

// ToTemplate converts the DTO, treating an omitted "required" as true.
func (dto TemplateDTO) ToTemplate() (*caseflow.WorkflowTemplate, error) {
	tpl := &caseflow.WorkflowTemplate{
		Name:        dto.Name,
		Description: dto.Description,
		Steps:       make([]caseflow.StepTemplate, 0, len(dto.Steps)),
	}

	for _, s := range dto.Steps {
		timeout, err := parseDuration(s.Timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: step %q timeout: %w", caseflow.ErrInvalidTemplate, s.ID, err)
		}
		delay, err := parseDuration(s.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("%w: step %q retry_delay: %w", caseflow.ErrInvalidTemplate, s.ID, err)
		}
		strategy, err := caseflow.ParseRetryStrategy(s.RetryStrategy)
		if err != nil {
			return nil, fmt.Errorf("%w: step %q: %w", caseflow.ErrInvalidTemplate, s.ID, err)
		}

		required := true
		if s.Required != nil {
			required = *s.Required
		}

		tpl.Steps = append(tpl.Steps, caseflow.StepTemplate{
			ID:            s.ID,
			Name:          s.Name,
			Handler:       s.Handler,
			DependsOn:     s.DependsOn,
			Timeout:       timeout,
			RetryAttempts: s.RetryAttempts,
			RetryDelay:    delay,
			RetryStrategy: strategy,
			Required:      required,
			Condition:     s.Condition,
			Parameters:    s.Parameters,
		})
	}

	return tpl, nil
}

func TemplateFromModel(tpl *caseflow.WorkflowTemplate) TemplateDTO {
	dto := TemplateDTO{
		Name:        tpl.Name,
		Description: tpl.Description,
		Steps:       make([]StepDTO, 0, len(tpl.Steps)),
	}

	for _, s := range tpl.Steps {
		required := s.Required
		dto.Steps = append(dto.Steps, StepDTO{
			ID:            s.ID,
			Name:          s.Name,
			Handler:       s.Handler,
			DependsOn:     s.DependsOn,
			Timeout:       formatDuration(s.Timeout),
			RetryAttempts: s.RetryAttempts,
			RetryDelay:    formatDuration(s.RetryDelay),
			RetryStrategy: s.RetryStrategy.String(),
			Required:      &required,
			Condition:     s.Condition,
			Parameters:    s.Parameters,
		})
	}

	return dto
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	return time.ParseDuration(s)
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}

	return d.String()
}
