package caseflow

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type templateFile struct {
	Templates []templateDocument `yaml:"templates"`
}

type templateDocument struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []stepDocument `yaml:"steps"`
}

type stepDocument struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Handler       string         `yaml:"handler"`
	DependsOn     []string       `yaml:"depends_on"`
	Timeout       time.Duration  `yaml:"timeout"`
	RetryAttempts int            `yaml:"retry_attempts"`
	RetryDelay    time.Duration  `yaml:"retry_delay"`
	RetryStrategy string         `yaml:"retry_strategy"`
	Required      *bool          `yaml:"required"`
	Condition     string         `yaml:"condition"`
	Parameters    map[string]any `yaml:"parameters"`
}

// LoadTemplatesYAML decodes a document of the form
//
//	templates:
//	  - name: onboarding
//	    steps:
//	      - id: collect
//	        handler: collect_documents
//	        timeout: 30s
//	        retry_attempts: 3
//	        retry_strategy: exponential
//	      - id: review
//	        handler: review
//	        depends_on: [collect]
//	        required: false
//
// Steps are required unless "required: false" is given.
func LoadTemplatesYAML(r io.Reader) ([]*WorkflowTemplate, error) {
	var doc templateFile

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		return nil, fmt.Errorf("decode templates: %w", err)
	}

	templates := make([]*WorkflowTemplate, 0, len(doc.Templates))
	for _, tplDoc := range doc.Templates {
		tpl := &WorkflowTemplate{
			Name:        tplDoc.Name,
			Description: tplDoc.Description,
			Steps:       make([]StepTemplate, 0, len(tplDoc.Steps)),
		}

		for _, stepDoc := range tplDoc.Steps {
			strategy, err := ParseRetryStrategy(stepDoc.RetryStrategy)
			if err != nil {
				return nil, fmt.Errorf("template %s step %s: %w", tplDoc.Name, stepDoc.ID, err)
			}

			required := true
			if stepDoc.Required != nil {
				required = *stepDoc.Required
			}

			tpl.Steps = append(tpl.Steps, StepTemplate{
				ID:            stepDoc.ID,
				Name:          stepDoc.Name,
				Handler:       stepDoc.Handler,
				DependsOn:     stepDoc.DependsOn,
				Timeout:       stepDoc.Timeout,
				RetryAttempts: stepDoc.RetryAttempts,
				RetryDelay:    stepDoc.RetryDelay,
				RetryStrategy: strategy,
				Required:      required,
				Condition:     stepDoc.Condition,
				Parameters:    stepDoc.Parameters,
			})
		}

		templates = append(templates, tpl)
	}

	return templates, nil
}

func LoadTemplatesFile(path string) ([]*WorkflowTemplate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open templates file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadTemplatesYAML(f)
}
