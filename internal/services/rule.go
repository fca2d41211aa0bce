package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/policyforge/policyforge-backend/internal/data/repos"
	types "github.com/policyforge/policyforge-backend/internal/domain"
	"github.com/policyforge/policyforge-backend/internal/platform/apierr"
	"github.com/policyforge/policyforge-backend/internal/platform/jfrog"
	"github.com/policyforge/policyforge-backend/internal/platform/logger"
)

type RuleService interface {
	Create(ctx context.Context, tx *gorm.DB, input RuleInput) (*types.Rule, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, input RuleInput) (*types.Rule, error)
	Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Rule, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Rule, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	ListVersions(ctx context.Context, tx *gorm.DB, id uuid.UUID) ([]*types.RuleVersion, error)
	GetVersion(ctx context.Context, tx *gorm.DB, id, versionID uuid.UUID) (*types.RuleVersion, error)
	Diff(ctx context.Context, tx *gorm.DB, id, versionID uuid.UUID, compareTo *uuid.UUID) (*VersionDiff, error)

	Publish(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*PublishResult, error)
}

type RuleParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type RuleInput struct {
	TemplateID    uuid.UUID
	Name          string
	Description   string
	IsCustom      bool
	Version       string
	Parameters    []RuleParameter
	CommitMessage string
	Author        string
}

type ruleService struct {
	db              *gorm.DB
	log             *logger.Logger
	ruleRepo        repos.RuleRepo
	ruleVersionRepo repos.RuleVersionRepo
	templateRepo    repos.TemplateRepo
	versioning      VersioningService
	remote          jfrog.Client
}

func NewRuleService(
	db *gorm.DB,
	baseLog *logger.Logger,
	ruleRepo repos.RuleRepo,
	ruleVersionRepo repos.RuleVersionRepo,
	templateRepo repos.TemplateRepo,
	versioning VersioningService,
	remote jfrog.Client,
) RuleService {
	serviceLog := baseLog.With("service", "RuleService")
	return &ruleService{
		db:              db,
		log:             serviceLog,
		ruleRepo:        ruleRepo,
		ruleVersionRepo: ruleVersionRepo,
		templateRepo:    templateRepo,
		versioning:      versioning,
		remote:          remote,
	}
}

func (s *ruleService) withTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *ruleService) requireTemplate(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (*types.Template, error) {
	template, err := s.templateRepo.GetByID(ctx, tx, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.Validation("associated template %s not found", templateID)
		}
		return nil, fmt.Errorf("load template: %w", err)
	}
	return template, nil
}

func (s *ruleService) Create(ctx context.Context, tx *gorm.DB, input RuleInput) (*types.Rule, error) {
	params, err := marshalJSONField(input.Parameters)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rule := &types.Rule{
		ID:          uuid.New(),
		TemplateID:  input.TemplateID,
		Name:        input.Name,
		Description: input.Description,
		IsCustom:    input.IsCustom,
		Version:     input.Version,
		Parameters:  params,
		Status:      types.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.withTx(ctx, tx, func(tx *gorm.DB) error {
		if _, err := s.requireTemplate(ctx, tx, input.TemplateID); err != nil {
			return err
		}
		if err := s.ruleRepo.Create(ctx, tx, rule); err != nil {
			return fmt.Errorf("create rule: %w", err)
		}
		if _, err := s.versioning.AppendRuleVersion(ctx, tx, rule, input.CommitMessage, input.Author); err != nil {
			return err
		}
		return s.ruleRepo.Save(ctx, tx, rule)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("rule created", "rule_id", rule.ID, "template_id", rule.TemplateID)
	return rule, nil
}

func (s *ruleService) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, input RuleInput) (*types.Rule, error) {
	params, err := marshalJSONField(input.Parameters)
	if err != nil {
		return nil, err
	}

	var rule *types.Rule
	err = s.withTx(ctx, tx, func(tx *gorm.DB) error {
		rule, err = s.ruleRepo.GetByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierr.NotFound("rule %s not found", id)
			}
			return fmt.Errorf("load rule: %w", err)
		}
		if _, err := s.requireTemplate(ctx, tx, input.TemplateID); err != nil {
			return err
		}

		rule.TemplateID = input.TemplateID
		rule.Name = input.Name
		rule.Description = input.Description
		rule.IsCustom = input.IsCustom
		rule.Version = input.Version
		rule.Parameters = params

		if _, err := s.versioning.AppendRuleVersion(ctx, tx, rule, input.CommitMessage, input.Author); err != nil {
			return err
		}
		return s.ruleRepo.Save(ctx, tx, rule)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("rule updated", "rule_id", rule.ID)
	return rule, nil
}

func (s *ruleService) Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Rule, error) {
	rule, err := s.ruleRepo.GetByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("rule %s not found", id)
		}
		return nil, fmt.Errorf("load rule: %w", err)
	}
	return rule, nil
}

func (s *ruleService) List(ctx context.Context, tx *gorm.DB) ([]*types.Rule, error) {
	return s.ruleRepo.List(ctx, tx)
}

func (s *ruleService) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return s.withTx(ctx, tx, func(tx *gorm.DB) error {
		if _, err := s.Get(ctx, tx, id); err != nil {
			return err
		}
		if err := s.ruleVersionRepo.DeleteByRuleID(ctx, tx, id); err != nil {
			return fmt.Errorf("delete rule versions: %w", err)
		}
		if err := s.ruleRepo.DeleteByID(ctx, tx, id); err != nil {
			return fmt.Errorf("delete rule: %w", err)
		}
		s.log.Info("rule deleted", "rule_id", id)
		return nil
	})
}

func (s *ruleService) ListVersions(ctx context.Context, tx *gorm.DB, id uuid.UUID) ([]*types.RuleVersion, error) {
	if _, err := s.Get(ctx, tx, id); err != nil {
		return nil, err
	}
	return s.ruleVersionRepo.ListByRuleID(ctx, tx, id)
}

func (s *ruleService) GetVersion(ctx context.Context, tx *gorm.DB, id, versionID uuid.UUID) (*types.RuleVersion, error) {
	version, err := s.ruleVersionRepo.GetByID(ctx, tx, versionID)
	if err != nil || version.RuleID != id {
		return nil, apierr.NotFound("rule version %s not found", versionID)
	}
	return version, nil
}

func (s *ruleService) Diff(ctx context.Context, tx *gorm.DB, id, versionID uuid.UUID, compareTo *uuid.UUID) (*VersionDiff, error) {
	if _, err := s.Get(ctx, tx, id); err != nil {
		return nil, err
	}
	return s.versioning.RuleDiff(ctx, tx, id, versionID, compareTo)
}

// Publish mirrors template publishing, with two extra constraints: the
// owning template must already live remotely, and the snapshot's
// template_id is rewritten to the template's remote id before the push.
func (s *ruleService) Publish(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*PublishResult, error) {
	rule, err := s.Get(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	template, err := s.requireTemplate(ctx, tx, rule.TemplateID)
	if err != nil {
		return nil, err
	}
	if template.RemoteID == nil || *template.RemoteID == "" {
		return nil, apierr.Validation("template %s must be published before publishing rules", template.ID)
	}

	latest, err := s.ruleVersionRepo.LatestByRuleID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.Validation("rule %s has no versions to publish", id)
		}
		return nil, fmt.Errorf("load latest rule version: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(latest.Data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal version snapshot: %w", err)
	}
	payload["template_id"] = *template.RemoteID

	var remote *jfrog.RemoteObject
	if rule.RemoteID != nil && *rule.RemoteID != "" {
		remote, err = s.remote.UpdateRule(ctx, *rule.RemoteID, payload)
	} else {
		remote, err = s.remote.CreateRule(ctx, payload)
	}
	if err != nil {
		s.log.Warn("rule publish failed", "rule_id", id, "error", err)
		return nil, apierr.Remote(err)
	}

	remoteID := remote.ID
	if remoteID == "" && rule.RemoteID != nil {
		remoteID = *rule.RemoteID
	}
	if remoteID == "" {
		return nil, apierr.Remote(fmt.Errorf("missing rule id in remote response"))
	}

	publishedAt := time.Now().UTC()
	err = s.withTx(ctx, tx, func(tx *gorm.DB) error {
		rule.RemoteID = &remoteID
		rule.Status = types.StatusPublished
		rule.LastPublishedVersionID = &latest.ID
		rule.UpdatedAt = publishedAt
		if err := s.ruleRepo.Save(ctx, tx, rule); err != nil {
			return fmt.Errorf("save published rule: %w", err)
		}

		latest.IsPublished = true
		if err := s.ruleVersionRepo.Save(ctx, tx, latest); err != nil {
			return fmt.Errorf("flag published version: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("rule published",
		"rule_id", id,
		"remote_id", remoteID,
		"version_ref", latest.VersionRef,
	)
	return &PublishResult{
		RemoteID:    remoteID,
		VersionRef:  latest.VersionRef,
		PublishedAt: publishedAt,
	}, nil
}
