package policy

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/policyforge/policyforge-backend/internal/domain"
	"github.com/policyforge/policyforge-backend/internal/platform/logger"
)

// Version rows are append-only; the lone Save call site flips is_published.
// Ordering is always created_at with id as tiebreak so listings stay stable
// when two versions land in the same clock tick.
type TemplateVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, version *types.TemplateVersion) error
	Save(ctx context.Context, tx *gorm.DB, version *types.TemplateVersion) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TemplateVersion, error)
	ListByTemplateID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) ([]*types.TemplateVersion, error)
	LatestByTemplateID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (*types.TemplateVersion, error)
	CountByTemplateID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (int64, error)
	DeleteByTemplateID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) error
}

type templateVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateVersionRepo(db *gorm.DB, baseLog *logger.Logger) TemplateVersionRepo {
	repoLog := baseLog.With("repo", "TemplateVersionRepo")
	return &templateVersionRepo{db: db, log: repoLog}
}

func (r *templateVersionRepo) Create(ctx context.Context, tx *gorm.DB, version *types.TemplateVersion) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(version).Error
}

func (r *templateVersionRepo) Save(ctx context.Context, tx *gorm.DB, version *types.TemplateVersion) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(version).Error
}

func (r *templateVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TemplateVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.TemplateVersion
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *templateVersionRepo) ListByTemplateID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) ([]*types.TemplateVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.TemplateVersion
	if err := transaction.WithContext(ctx).
		Where("template_id = ?", templateID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *templateVersionRepo) LatestByTemplateID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (*types.TemplateVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.TemplateVersion
	if err := transaction.WithContext(ctx).
		Where("template_id = ?", templateID).
		Order("created_at DESC").
		Order("id DESC").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *templateVersionRepo) CountByTemplateID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.TemplateVersion{}).
		Where("template_id = ?", templateID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *templateVersionRepo) DeleteByTemplateID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("template_id = ?", templateID).
		Delete(&types.TemplateVersion{}).Error
}
