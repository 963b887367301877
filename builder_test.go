package caseflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowBuilder(t *testing.T) {
	t.Run("sequential workflow", func(t *testing.T) {
		tpl, err := NewBuilder("onboarding").
			Description("customer onboarding").
			Step("collect", "collect_documents").
			Then("verify", "verify_identity").
			Then("activate", "activate_account").
			Build()

		require.NoError(t, err)
		assert.Equal(t, "onboarding", tpl.Name)
		assert.Equal(t, "customer onboarding", tpl.Description)
		require.Len(t, tpl.Steps, 3)
		assert.Empty(t, tpl.Steps[0].DependsOn)
		assert.Equal(t, []string{"collect"}, tpl.Steps[1].DependsOn)
		assert.Equal(t, []string{"verify"}, tpl.Steps[2].DependsOn)
		assert.True(t, tpl.Steps[0].Required)
		assert.Equal(t, 3, tpl.Steps[0].RetryAttempts)
	})

	t.Run("step options", func(t *testing.T) {
		tpl, err := NewBuilder("options", WithBuilderRetryAttempts(1), WithBuilderRetryDelay(time.Second)).
			Step("a", "h",
				WithStepName("Step A"),
				WithStepTimeout(5*time.Second),
				WithStepRetryAttempts(4),
				WithStepRetryDelay(50*time.Millisecond),
				WithStepRetryStrategy(RetryStrategyExponential),
				WithStepCondition("step_succeeded:x"),
				WithStepOptional(),
				WithStepParameters(map[string]any{"k": "v"}),
			).
			Step("b", "h").
			DependsOn("a", "a").
			WithRetryAttempts(2).
			WithParameter("p", 1).
			Build()

		require.NoError(t, err)
		a := tpl.Steps[0]
		assert.Equal(t, "Step A", a.Name)
		assert.Equal(t, 5*time.Second, a.Timeout)
		assert.Equal(t, 4, a.RetryAttempts)
		assert.Equal(t, 50*time.Millisecond, a.RetryDelay)
		assert.Equal(t, RetryStrategyExponential, a.RetryStrategy)
		assert.Equal(t, "step_succeeded:x", a.Condition)
		assert.False(t, a.Required)
		assert.Equal(t, "v", a.Parameters["k"])

		b := tpl.Steps[1]
		assert.Equal(t, []string{"a"}, b.DependsOn)
		assert.Equal(t, 2, b.RetryAttempts)
		assert.Equal(t, time.Second, b.RetryDelay)
		assert.Equal(t, 1, b.Parameters["p"])
	})

	t.Run("duplicate step", func(t *testing.T) {
		_, err := NewBuilder("dup").Step("a", "h").Step("a", "h").Build()
		assert.ErrorContains(t, err, `duplicate step "a"`)
	})

	t.Run("unknown dependency", func(t *testing.T) {
		_, err := NewBuilder("unknown").Step("a", "h", WithStepDependsOn("ghost")).Build()
		assert.ErrorIs(t, err, ErrInvalidTemplate)
		assert.ErrorContains(t, err, `references unknown step "ghost"`)
	})

	t.Run("cycle", func(t *testing.T) {
		_, err := NewBuilder("cycle").
			Step("a", "h", WithStepDependsOn("c")).
			Step("b", "h", WithStepDependsOn("a")).
			Step("c", "h", WithStepDependsOn("b")).
			Build()
		assert.ErrorIs(t, err, ErrInvalidTemplate)
		assert.ErrorContains(t, err, "cycle detected")
	})

	t.Run("self dependency", func(t *testing.T) {
		_, err := NewBuilder("self").Step("a", "h", WithStepDependsOn("a")).Build()
		assert.ErrorContains(t, err, "depends on itself")
	})

	t.Run("missing handler", func(t *testing.T) {
		_, err := NewBuilder("nohandler").Step("a", "").Build()
		assert.ErrorContains(t, err, "must have a handler")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := NewBuilder("empty").Build()
		assert.Error(t, err)

		_, err = NewBuilder("").Step("a", "h").Build()
		assert.Error(t, err)
	})

	t.Run("depends on without step", func(t *testing.T) {
		_, err := NewBuilder("orphan").DependsOn("x").Step("a", "h").Build()
		assert.ErrorContains(t, err, "no current step")
	})
}

func TestValidateTemplate_AllowsDiamond(t *testing.T) {
	err := ValidateTemplate(&WorkflowTemplate{
		Name: "diamond",
		Steps: []StepTemplate{
			{ID: "a", Handler: "h"},
			{ID: "b", Handler: "h", DependsOn: []string{"a"}},
			{ID: "c", Handler: "h", DependsOn: []string{"a"}},
			{ID: "d", Handler: "h", DependsOn: []string{"b", "c"}},
		},
	})
	assert.NoError(t, err)
}
