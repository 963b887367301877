package caseflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateCatalog_RegisterAndGet(t *testing.T) {
	catalog := NewTemplateCatalog()

	tpl := &WorkflowTemplate{
		Name: "kyc",
		Steps: []StepTemplate{
			{ID: "collect", Handler: "h", Parameters: map[string]any{"docs": []any{"passport"}}},
			{ID: "review", Handler: "h", DependsOn: []string{"collect"}, RetryAttempts: 0},
		},
	}
	require.NoError(t, catalog.Register(tpl))

	// caller mutations after registration are not visible
	tpl.Steps[0].Parameters["docs"].([]any)[0] = "changed"
	tpl.Steps[1].DependsOn[0] = "changed"

	got, err := catalog.Get("kyc")
	require.NoError(t, err)
	assert.Equal(t, []any{"passport"}, got.Steps[0].Parameters["docs"])
	assert.Equal(t, []string{"collect"}, got.Steps[1].DependsOn)
	assert.Equal(t, 1, got.Steps[1].RetryAttempts)
	assert.Equal(t, "review", got.Steps[1].Name)
	assert.False(t, got.CreatedAt.IsZero())

	// returned copies are independent too
	got.Steps[0].ID = "mutated"
	again, err := catalog.Get("kyc")
	require.NoError(t, err)
	assert.Equal(t, "collect", again.Steps[0].ID)
}

func TestTemplateCatalog_Errors(t *testing.T) {
	catalog := NewTemplateCatalog()

	assert.ErrorIs(t, catalog.Register(nil), ErrInvalidTemplate)
	assert.ErrorIs(t, catalog.Register(&WorkflowTemplate{}), ErrInvalidTemplate)
	assert.ErrorIs(t, catalog.Register(&WorkflowTemplate{
		Name:  "noid",
		Steps: []StepTemplate{{Handler: "h"}},
	}), ErrInvalidTemplate)
	assert.ErrorIs(t, catalog.Register(&WorkflowTemplate{
		Name:  "dup",
		Steps: []StepTemplate{{ID: "a"}, {ID: "a"}},
	}), ErrInvalidTemplate)

	_, err := catalog.Get("missing")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTemplateCatalog_AcceptsUnresolvedReferences(t *testing.T) {
	catalog := NewTemplateCatalog()

	require.NoError(t, catalog.Register(&WorkflowTemplate{
		Name:  "cycle",
		Steps: []StepTemplate{{ID: "x", DependsOn: []string{"y"}}, {ID: "y", DependsOn: []string{"x"}}},
	}))
	require.NoError(t, catalog.Register(&WorkflowTemplate{Name: "b"}))
	require.NoError(t, catalog.Register(&WorkflowTemplate{Name: "a"}))

	assert.Equal(t, []string{"a", "b", "cycle"}, catalog.Names())
}
