package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyforge/policyforge-backend/internal/data/repos/testutil"
	"github.com/policyforge/policyforge-backend/internal/platform/opatool"
)

type fakeTools struct {
	available  bool
	validation *opatool.ValidationResult
	evaluation *opatool.EvaluationResult
	err        error
	lastRego   string
}

func (f *fakeTools) Available() bool { return f.available }

func (f *fakeTools) Validate(_ context.Context, rego string) (*opatool.ValidationResult, error) {
	f.lastRego = rego
	return f.validation, f.err
}

func (f *fakeTools) Evaluate(_ context.Context, rego string, _ map[string]any) (*opatool.EvaluationResult, error) {
	f.lastRego = rego
	return f.evaluation, f.err
}

func TestValidateRegoBlankBodyIsInvalidResult(t *testing.T) {
	tools := &fakeTools{
		validation: &opatool.ValidationResult{Errors: []string{"rego content is empty"}},
	}
	svc := NewValidationService(testutil.Logger(t), tools)

	// A blank body reaches the toolchain and comes back as an invalid
	// result, never as a request-level error.
	result, err := svc.ValidateRego(context.Background(), "   \n")
	require.NoError(t, err)
	assert.Equal(t, "   \n", tools.lastRego)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "rego content is empty")
}

func TestValidateRegoPassesThroughResult(t *testing.T) {
	tools := &fakeTools{
		available:  true,
		validation: &opatool.ValidationResult{Valid: true},
	}
	svc := NewValidationService(testutil.Logger(t), tools)

	result, err := svc.ValidateRego(context.Background(), "package p\n")
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestEvaluateRegoWithoutBinarySurfacesWarning(t *testing.T) {
	tools := &fakeTools{
		available: false,
		evaluation: &opatool.EvaluationResult{
			Warnings: []string{"opa binary not configured; evaluation is unavailable"},
		},
	}
	svc := NewValidationService(testutil.Logger(t), tools)

	result, err := svc.EvaluateRego(context.Background(), "package p\n", map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Nil(t, result.Result)
	require.Len(t, result.Warnings, 1)
}

func TestEvaluateRegoPassesThroughResult(t *testing.T) {
	tools := &fakeTools{
		available: true,
		evaluation: &opatool.EvaluationResult{
			Result:  map[string]any{"allow": true},
			Command: "opa eval -f json",
		},
	}
	svc := NewValidationService(testutil.Logger(t), tools)

	result, err := svc.EvaluateRego(context.Background(), "package p\n", nil)
	require.NoError(t, err)
	assert.Equal(t, true, result.Result["allow"])
}
