package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/policyforge/policyforge-backend/internal/data/repos"
	types "github.com/policyforge/policyforge-backend/internal/domain"
	"github.com/policyforge/policyforge-backend/internal/platform/apierr"
	"github.com/policyforge/policyforge-backend/internal/platform/logger"
	"github.com/policyforge/policyforge-backend/internal/platform/textdiff"
)

// VersioningService owns the append-only history of templates and rules.
// Every save appends one immutable version row whose parent pointer is the
// entity's previous latest version, so each entity carries a linear chain
// back to its initial draft.
type VersioningService interface {
	AppendTemplateVersion(ctx context.Context, tx *gorm.DB, template *types.Template, message, author string) (*types.TemplateVersion, error)
	AppendRuleVersion(ctx context.Context, tx *gorm.DB, rule *types.Rule, message, author string) (*types.RuleVersion, error)

	TemplateDiff(ctx context.Context, tx *gorm.DB, templateID, versionID uuid.UUID, compareTo *uuid.UUID) (*VersionDiff, error)
	RuleDiff(ctx context.Context, tx *gorm.DB, ruleID, versionID uuid.UUID, compareTo *uuid.UUID) (*VersionDiff, error)
}

type VersionDiff struct {
	VersionA string   `json:"version_a"`
	VersionB string   `json:"version_b"`
	Diff     []string `json:"diff"`
}

type versioningService struct {
	db                  *gorm.DB
	log                 *logger.Logger
	templateVersionRepo repos.TemplateVersionRepo
	ruleVersionRepo     repos.RuleVersionRepo
}

func NewVersioningService(
	db *gorm.DB,
	baseLog *logger.Logger,
	templateVersionRepo repos.TemplateVersionRepo,
	ruleVersionRepo repos.RuleVersionRepo,
) VersioningService {
	serviceLog := baseLog.With("service", "VersioningService")
	return &versioningService{
		db:                  db,
		log:                 serviceLog,
		templateVersionRepo: templateVersionRepo,
		ruleVersionRepo:     ruleVersionRepo,
	}
}

// versionRef generates refs like "tmpl-003-20260415103000". The ordinal is
// the position in the chain, the suffix a UTC wall-clock stamp.
func versionRef(prefix string, ordinal int64) string {
	return fmt.Sprintf("%s-%03d-%s", prefix, ordinal, time.Now().UTC().Format("20060102150405"))
}

// TemplateSnapshot is the portion of a template frozen into a version row.
func TemplateSnapshot(t *types.Template) map[string]any {
	return map[string]any{
		"name":             t.Name,
		"description":      t.Description,
		"category":         t.Category,
		"data_source_type": t.DataSourceType,
		"version":          t.Version,
		"rego":             t.Rego,
		"parameters":       jsonValue(t.Parameters),
		"scanners":         jsonValue(t.Scanners),
	}
}

func RuleSnapshot(r *types.Rule) map[string]any {
	return map[string]any{
		"name":        r.Name,
		"description": r.Description,
		"is_custom":   r.IsCustom,
		"template_id": r.TemplateID.String(),
		"version":     r.Version,
		"parameters":  jsonValue(r.Parameters),
	}
}

func jsonValue(raw datatypes.JSON) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

func (s *versioningService) AppendTemplateVersion(ctx context.Context, tx *gorm.DB, template *types.Template, message, author string) (*types.TemplateVersion, error) {
	count, err := s.templateVersionRepo.CountByTemplateID(ctx, tx, template.ID)
	if err != nil {
		return nil, fmt.Errorf("count template versions: %w", err)
	}

	var parentID *uuid.UUID
	if count > 0 {
		latest, err := s.templateVersionRepo.LatestByTemplateID(ctx, tx, template.ID)
		if err != nil {
			return nil, fmt.Errorf("load latest template version: %w", err)
		}
		parentID = &latest.ID
	}

	data, err := json.Marshal(TemplateSnapshot(template))
	if err != nil {
		return nil, fmt.Errorf("marshal template snapshot: %w", err)
	}

	version := &types.TemplateVersion{
		ID:         uuid.New(),
		TemplateID: template.ID,
		VersionRef: versionRef("tmpl", count+1),
		Message:    message,
		Author:     author,
		Data:       datatypes.JSON(data),
		ParentID:   parentID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.templateVersionRepo.Create(ctx, tx, version); err != nil {
		return nil, fmt.Errorf("append template version: %w", err)
	}

	// A fresh edit of a published template turns it back into a draft.
	template.UpdatedAt = time.Now().UTC()
	if template.Status == types.StatusPublished {
		template.Status = types.StatusDraft
	}

	s.log.Info("template version appended",
		"template_id", template.ID,
		"version_ref", version.VersionRef,
		"author", author,
	)
	return version, nil
}

func (s *versioningService) AppendRuleVersion(ctx context.Context, tx *gorm.DB, rule *types.Rule, message, author string) (*types.RuleVersion, error) {
	count, err := s.ruleVersionRepo.CountByRuleID(ctx, tx, rule.ID)
	if err != nil {
		return nil, fmt.Errorf("count rule versions: %w", err)
	}

	var parentID *uuid.UUID
	if count > 0 {
		latest, err := s.ruleVersionRepo.LatestByRuleID(ctx, tx, rule.ID)
		if err != nil {
			return nil, fmt.Errorf("load latest rule version: %w", err)
		}
		parentID = &latest.ID
	}

	data, err := json.Marshal(RuleSnapshot(rule))
	if err != nil {
		return nil, fmt.Errorf("marshal rule snapshot: %w", err)
	}

	version := &types.RuleVersion{
		ID:         uuid.New(),
		RuleID:     rule.ID,
		VersionRef: versionRef("rule", count+1),
		Message:    message,
		Author:     author,
		Data:       datatypes.JSON(data),
		ParentID:   parentID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.ruleVersionRepo.Create(ctx, tx, version); err != nil {
		return nil, fmt.Errorf("append rule version: %w", err)
	}

	rule.UpdatedAt = time.Now().UTC()
	if rule.Status == types.StatusPublished {
		rule.Status = types.StatusDraft
	}

	s.log.Info("rule version appended",
		"rule_id", rule.ID,
		"version_ref", version.VersionRef,
		"author", author,
	)
	return version, nil
}

func (s *versioningService) TemplateDiff(ctx context.Context, tx *gorm.DB, templateID, versionID uuid.UUID, compareTo *uuid.UUID) (*VersionDiff, error) {
	version, err := s.templateVersionRepo.GetByID(ctx, tx, versionID)
	if err != nil || version.TemplateID != templateID {
		return nil, apierr.NotFound("template version %s not found", versionID)
	}

	var base *types.TemplateVersion
	switch {
	case compareTo != nil:
		base, err = s.templateVersionRepo.GetByID(ctx, tx, *compareTo)
		if err != nil || base.TemplateID != templateID {
			return nil, apierr.Validation("invalid comparison version %s", *compareTo)
		}
	case version.ParentID != nil:
		base, err = s.templateVersionRepo.GetByID(ctx, tx, *version.ParentID)
		if err != nil {
			return nil, apierr.NotFound("parent version %s missing", *version.ParentID)
		}
	default:
		return nil, apierr.NotFound("version %s has no parent to compare against", version.VersionRef)
	}

	return snapshotDiff(base.VersionRef, base.Data, version.VersionRef, version.Data)
}

func (s *versioningService) RuleDiff(ctx context.Context, tx *gorm.DB, ruleID, versionID uuid.UUID, compareTo *uuid.UUID) (*VersionDiff, error) {
	version, err := s.ruleVersionRepo.GetByID(ctx, tx, versionID)
	if err != nil || version.RuleID != ruleID {
		return nil, apierr.NotFound("rule version %s not found", versionID)
	}

	var base *types.RuleVersion
	switch {
	case compareTo != nil:
		base, err = s.ruleVersionRepo.GetByID(ctx, tx, *compareTo)
		if err != nil || base.RuleID != ruleID {
			return nil, apierr.Validation("invalid comparison version %s", *compareTo)
		}
	case version.ParentID != nil:
		base, err = s.ruleVersionRepo.GetByID(ctx, tx, *version.ParentID)
		if err != nil {
			return nil, apierr.NotFound("parent version %s missing", *version.ParentID)
		}
	default:
		return nil, apierr.NotFound("version %s has no parent to compare against", version.VersionRef)
	}

	return snapshotDiff(base.VersionRef, base.Data, version.VersionRef, version.Data)
}

func snapshotDiff(refA string, dataA datatypes.JSON, refB string, dataB datatypes.JSON) (*VersionDiff, error) {
	var a, b map[string]any
	if err := json.Unmarshal(dataA, &a); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", refA, err)
	}
	if err := json.Unmarshal(dataB, &b); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", refB, err)
	}
	lines := textdiff.Lines(textdiff.CanonicalLines(a), textdiff.CanonicalLines(b))
	if len(textdiff.Changed(lines)) == 0 {
		// Identical snapshots diff to nothing, not to a wall of context.
		lines = []string{}
	}
	return &VersionDiff{
		VersionA: refA,
		VersionB: refB,
		Diff:     lines,
	}, nil
}
