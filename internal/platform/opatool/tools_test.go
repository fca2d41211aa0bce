package opatool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policyforge/policyforge-backend/internal/platform/logger"
)

func degradedTools(t *testing.T) Tools {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	return &tools{
		log:            log,
		opaPath:        "",
		evalQuery:      "data.curation.policies.allow",
		defaultTimeout: 5 * time.Second,
	}
}

func TestValidateEmptyBody(t *testing.T) {
	res, err := degradedTools(t).Validate(context.Background(), "   \n")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "rego content is empty")
}

func TestValidateStructuralFallback(t *testing.T) {
	res, err := degradedTools(t).Validate(context.Background(), "package p\nallow := true")
	require.NoError(t, err)
	assert.True(t, res.Valid)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "basic validation")
}

func TestValidateStructuralFallbackMissingPackage(t *testing.T) {
	res, err := degradedTools(t).Validate(context.Background(), "allow := true")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Errors, "rego policy must contain a package declaration")
}

func TestEvaluateUnavailable(t *testing.T) {
	res, err := degradedTools(t).Evaluate(context.Background(), "package p", map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Nil(t, res.Result)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "evaluation is unavailable")
}

func TestEvaluateEmptyBody(t *testing.T) {
	res, err := degradedTools(t).Evaluate(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Contains(t, res.Errors, "rego content is empty")
}
