package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/policyforge/policyforge-backend/internal/domain"
)

func SeedTemplate(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Template {
	tb.Helper()
	t := &types.Template{
		ID:             uuid.New(),
		Name:           name,
		Category:       "security",
		DataSourceType: "release_bundle",
		Version:        "1.0.0",
		Rego:           "package p",
		Parameters:     datatypes.JSON([]byte("[]")),
		Scanners:       datatypes.JSON([]byte("[]")),
		Status:         types.StatusDraft,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed template: %v", err)
	}
	return t
}

func SeedTemplateVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, templateID uuid.UUID, ref string, parentID *uuid.UUID) *types.TemplateVersion {
	tb.Helper()
	v := &types.TemplateVersion{
		ID:         uuid.New(),
		TemplateID: templateID,
		VersionRef: ref,
		Message:    "seed",
		Author:     "system",
		Data:       datatypes.JSON([]byte(`{"name":"seed"}`)),
		ParentID:   parentID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed template version: %v", err)
	}
	return v
}

func SeedRule(tb testing.TB, ctx context.Context, tx *gorm.DB, templateID uuid.UUID, name string) *types.Rule {
	tb.Helper()
	r := &types.Rule{
		ID:         uuid.New(),
		TemplateID: templateID,
		Name:       name,
		IsCustom:   true,
		Version:    "1.0.0",
		Parameters: datatypes.JSON([]byte("[]")),
		Status:     types.StatusDraft,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed rule: %v", err)
	}
	return r
}

func SeedRuleVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, ruleID uuid.UUID, ref string, parentID *uuid.UUID) *types.RuleVersion {
	tb.Helper()
	v := &types.RuleVersion{
		ID:         uuid.New(),
		RuleID:     ruleID,
		VersionRef: ref,
		Message:    "seed",
		Author:     "system",
		Data:       datatypes.JSON([]byte(`{"name":"seed"}`)),
		ParentID:   parentID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed rule version: %v", err)
	}
	return v
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrString(v string) *string { return &v }
