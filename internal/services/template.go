package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/policyforge/policyforge-backend/internal/data/repos"
	types "github.com/policyforge/policyforge-backend/internal/domain"
	"github.com/policyforge/policyforge-backend/internal/platform/apierr"
	"github.com/policyforge/policyforge-backend/internal/platform/jfrog"
	"github.com/policyforge/policyforge-backend/internal/platform/logger"
)

type TemplateService interface {
	Create(ctx context.Context, tx *gorm.DB, input TemplateInput) (*types.Template, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, input TemplateInput) (*types.Template, error)
	Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Template, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Template, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	ListVersions(ctx context.Context, tx *gorm.DB, id uuid.UUID) ([]*types.TemplateVersion, error)
	GetVersion(ctx context.Context, tx *gorm.DB, id, versionID uuid.UUID) (*types.TemplateVersion, error)
	Diff(ctx context.Context, tx *gorm.DB, id, versionID uuid.UUID, compareTo *uuid.UUID) (*VersionDiff, error)

	Publish(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*PublishResult, error)
}

type TemplateParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type TemplateInput struct {
	Name           string
	Description    string
	Category       string
	DataSourceType string
	Version        string
	Rego           string
	Parameters     []TemplateParameter
	Scanners       []string
	CommitMessage  string
	Author         string
}

type PublishResult struct {
	RemoteID    string    `json:"remote_id"`
	VersionRef  string    `json:"version_ref"`
	PublishedAt time.Time `json:"published_at"`
}

type templateService struct {
	db                  *gorm.DB
	log                 *logger.Logger
	templateRepo        repos.TemplateRepo
	templateVersionRepo repos.TemplateVersionRepo
	ruleRepo            repos.RuleRepo
	versioning          VersioningService
	remote              jfrog.Client
}

func NewTemplateService(
	db *gorm.DB,
	baseLog *logger.Logger,
	templateRepo repos.TemplateRepo,
	templateVersionRepo repos.TemplateVersionRepo,
	ruleRepo repos.RuleRepo,
	versioning VersioningService,
	remote jfrog.Client,
) TemplateService {
	serviceLog := baseLog.With("service", "TemplateService")
	return &templateService{
		db:                  db,
		log:                 serviceLog,
		templateRepo:        templateRepo,
		templateVersionRepo: templateVersionRepo,
		ruleRepo:            ruleRepo,
		versioning:          versioning,
		remote:              remote,
	}
}

func (s *templateService) withTx(ctx context.Context, tx *gorm.DB, fn func(tx *gorm.DB) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

func marshalJSONField(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal field: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func (s *templateService) Create(ctx context.Context, tx *gorm.DB, input TemplateInput) (*types.Template, error) {
	params, err := marshalJSONField(input.Parameters)
	if err != nil {
		return nil, err
	}
	scanners, err := marshalJSONField(input.Scanners)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	template := &types.Template{
		ID:             uuid.New(),
		Name:           input.Name,
		Description:    input.Description,
		Category:       input.Category,
		DataSourceType: input.DataSourceType,
		Version:        input.Version,
		Rego:           input.Rego,
		Parameters:     params,
		Scanners:       scanners,
		Status:         types.StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.withTx(ctx, tx, func(tx *gorm.DB) error {
		if err := s.templateRepo.Create(ctx, tx, template); err != nil {
			return fmt.Errorf("create template: %w", err)
		}
		if _, err := s.versioning.AppendTemplateVersion(ctx, tx, template, input.CommitMessage, input.Author); err != nil {
			return err
		}
		return s.templateRepo.Save(ctx, tx, template)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("template created", "template_id", template.ID, "name", template.Name)
	return template, nil
}

func (s *templateService) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, input TemplateInput) (*types.Template, error) {
	params, err := marshalJSONField(input.Parameters)
	if err != nil {
		return nil, err
	}
	scanners, err := marshalJSONField(input.Scanners)
	if err != nil {
		return nil, err
	}

	var template *types.Template
	err = s.withTx(ctx, tx, func(tx *gorm.DB) error {
		template, err = s.templateRepo.GetByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierr.NotFound("template %s not found", id)
			}
			return fmt.Errorf("load template: %w", err)
		}

		template.Name = input.Name
		template.Description = input.Description
		template.Category = input.Category
		template.DataSourceType = input.DataSourceType
		template.Version = input.Version
		template.Rego = input.Rego
		template.Parameters = params
		template.Scanners = scanners

		if _, err := s.versioning.AppendTemplateVersion(ctx, tx, template, input.CommitMessage, input.Author); err != nil {
			return err
		}
		return s.templateRepo.Save(ctx, tx, template)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("template updated", "template_id", template.ID)
	return template, nil
}

func (s *templateService) Get(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Template, error) {
	template, err := s.templateRepo.GetByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("template %s not found", id)
		}
		return nil, fmt.Errorf("load template: %w", err)
	}
	return template, nil
}

func (s *templateService) List(ctx context.Context, tx *gorm.DB) ([]*types.Template, error) {
	return s.templateRepo.List(ctx, tx)
}

// Delete is blocked, not cascaded, while rules still reference the template.
func (s *templateService) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return s.withTx(ctx, tx, func(tx *gorm.DB) error {
		if _, err := s.templateRepo.GetByID(ctx, tx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierr.NotFound("template %s not found", id)
			}
			return fmt.Errorf("load template: %w", err)
		}

		dependents, err := s.ruleRepo.CountByTemplateID(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("count dependent rules: %w", err)
		}
		if dependents > 0 {
			return apierr.Conflict("template %s is referenced by %d rule(s)", id, dependents)
		}

		if err := s.templateVersionRepo.DeleteByTemplateID(ctx, tx, id); err != nil {
			return fmt.Errorf("delete template versions: %w", err)
		}
		if err := s.templateRepo.DeleteByID(ctx, tx, id); err != nil {
			return fmt.Errorf("delete template: %w", err)
		}
		s.log.Info("template deleted", "template_id", id)
		return nil
	})
}

func (s *templateService) ListVersions(ctx context.Context, tx *gorm.DB, id uuid.UUID) ([]*types.TemplateVersion, error) {
	if _, err := s.Get(ctx, tx, id); err != nil {
		return nil, err
	}
	return s.templateVersionRepo.ListByTemplateID(ctx, tx, id)
}

func (s *templateService) GetVersion(ctx context.Context, tx *gorm.DB, id, versionID uuid.UUID) (*types.TemplateVersion, error) {
	version, err := s.templateVersionRepo.GetByID(ctx, tx, versionID)
	if err != nil || version.TemplateID != id {
		return nil, apierr.NotFound("template version %s not found", versionID)
	}
	return version, nil
}

func (s *templateService) Diff(ctx context.Context, tx *gorm.DB, id, versionID uuid.UUID, compareTo *uuid.UUID) (*VersionDiff, error) {
	if _, err := s.Get(ctx, tx, id); err != nil {
		return nil, err
	}
	return s.versioning.TemplateDiff(ctx, tx, id, versionID, compareTo)
}

// Publish pushes the latest snapshot to the remote governance API. The
// remote call happens before any local write, so a failed publish leaves
// the draft untouched.
func (s *templateService) Publish(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*PublishResult, error) {
	template, err := s.Get(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	latest, err := s.templateVersionRepo.LatestByTemplateID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.Validation("template %s has no versions to publish", id)
		}
		return nil, fmt.Errorf("load latest template version: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(latest.Data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal version snapshot: %w", err)
	}

	var remote *jfrog.RemoteObject
	if template.RemoteID != nil && *template.RemoteID != "" {
		remote, err = s.remote.UpdateTemplate(ctx, *template.RemoteID, payload)
	} else {
		remote, err = s.remote.CreateTemplate(ctx, payload)
	}
	if err != nil {
		s.log.Warn("template publish failed", "template_id", id, "error", err)
		return nil, apierr.Remote(err)
	}

	remoteID := remote.ID
	if remoteID == "" && template.RemoteID != nil {
		remoteID = *template.RemoteID
	}
	if remoteID == "" {
		return nil, apierr.Remote(fmt.Errorf("missing template id in remote response"))
	}

	publishedAt := time.Now().UTC()
	err = s.withTx(ctx, tx, func(tx *gorm.DB) error {
		template.RemoteID = &remoteID
		template.Status = types.StatusPublished
		template.LastPublishedVersionID = &latest.ID
		template.UpdatedAt = publishedAt
		if err := s.templateRepo.Save(ctx, tx, template); err != nil {
			return fmt.Errorf("save published template: %w", err)
		}

		latest.IsPublished = true
		if err := s.templateVersionRepo.Save(ctx, tx, latest); err != nil {
			return fmt.Errorf("flag published version: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("template published",
		"template_id", id,
		"remote_id", remoteID,
		"version_ref", latest.VersionRef,
	)
	return &PublishResult{
		RemoteID:    remoteID,
		VersionRef:  latest.VersionRef,
		PublishedAt: publishedAt,
	}, nil
}
