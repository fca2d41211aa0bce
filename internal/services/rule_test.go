package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/policyforge/policyforge-backend/internal/domain"
	"github.com/policyforge/policyforge-backend/internal/platform/apierr"
)

func TestRuleCreateRequiresTemplate(t *testing.T) {
	env := newServiceEnv(t)

	_, err := env.rules.Create(context.Background(), env.tx, RuleInput{
		TemplateID:    uuid.New(),
		Name:          "orphan",
		Version:       "1.0.0",
		CommitMessage: "initial draft",
		Author:        "tester",
	})
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, apierr.CodeValidationError, apiErr.Code)
}

func TestRuleVersionChain(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	template, err := env.templates.Create(ctx, env.tx, templateInput("rule-host", "package p\n"))
	require.NoError(t, err)

	rule, err := env.rules.Create(ctx, env.tx, RuleInput{
		TemplateID:    template.ID,
		Name:          "stage-gate",
		Version:       "1.0.0",
		Parameters:    []RuleParameter{{Name: "severity", Value: "high"}},
		CommitMessage: "initial draft",
		Author:        "tester",
	})
	require.NoError(t, err)

	_, err = env.rules.Update(ctx, env.tx, rule.ID, RuleInput{
		TemplateID:    template.ID,
		Name:          "stage-gate",
		Version:       "1.1.0",
		Parameters:    []RuleParameter{{Name: "severity", Value: "critical"}},
		CommitMessage: "tighten severity",
		Author:        "tester",
	})
	require.NoError(t, err)

	versions, err := env.rules.ListVersions(ctx, env.tx, rule.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Nil(t, versions[1].ParentID)
	require.NotNil(t, versions[0].ParentID)
	assert.Equal(t, versions[1].ID, *versions[0].ParentID)

	diff, err := env.rules.Diff(ctx, env.tx, rule.ID, versions[0].ID, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, diff.Diff)
}

func TestRulePublishRequiresPublishedTemplate(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	template, err := env.templates.Create(ctx, env.tx, templateInput("draft-host", "package p\n"))
	require.NoError(t, err)

	rule, err := env.rules.Create(ctx, env.tx, RuleInput{
		TemplateID:    template.ID,
		Name:          "premature",
		Version:       "1.0.0",
		CommitMessage: "initial draft",
		Author:        "tester",
	})
	require.NoError(t, err)

	_, err = env.rules.Publish(ctx, env.tx, rule.ID)
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, apierr.CodeValidationError, apiErr.Code)
}

func TestRulePublishRewritesTemplateID(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	template, err := env.templates.Create(ctx, env.tx, templateInput("published-host", "package p\n"))
	require.NoError(t, err)

	env.remote.object = remoteObject("remote-tpl-9")
	_, err = env.templates.Publish(ctx, env.tx, template.ID)
	require.NoError(t, err)

	rule, err := env.rules.Create(ctx, env.tx, RuleInput{
		TemplateID:    template.ID,
		Name:          "enforced",
		Version:       "1.0.0",
		CommitMessage: "initial draft",
		Author:        "tester",
	})
	require.NoError(t, err)

	env.remote.object = remoteObject("remote-rule-1")
	result, err := env.rules.Publish(ctx, env.tx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "remote-rule-1", result.RemoteID)
	assert.Equal(t, "CreateRule", env.remote.lastMethod)

	// The snapshot's template reference is swapped for the remote id.
	assert.Equal(t, "remote-tpl-9", env.remote.lastPayload["template_id"])

	published, err := env.rules.Get(ctx, env.tx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusPublished, published.Status)
	require.NotNil(t, published.RemoteID)
	assert.Equal(t, "remote-rule-1", *published.RemoteID)
}

func TestRulePublishRemoteFailureLeavesDraft(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	template, err := env.templates.Create(ctx, env.tx, templateInput("flaky-host", "package p\n"))
	require.NoError(t, err)

	env.remote.object = remoteObject("remote-tpl-10")
	_, err = env.templates.Publish(ctx, env.tx, template.ID)
	require.NoError(t, err)

	rule, err := env.rules.Create(ctx, env.tx, RuleInput{
		TemplateID:    template.ID,
		Name:          "unlucky",
		Version:       "1.0.0",
		CommitMessage: "initial draft",
		Author:        "tester",
	})
	require.NoError(t, err)

	env.remote.err = assert.AnError
	_, err = env.rules.Publish(ctx, env.tx, rule.ID)
	apiErr, ok := apierr.As(err)
	require.True(t, ok)
	assert.Equal(t, apierr.CodeRemoteError, apiErr.Code)

	reloaded, err := env.rules.Get(ctx, env.tx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusDraft, reloaded.Status)
	assert.Nil(t, reloaded.RemoteID)
}
