package policy

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/policyforge/policyforge-backend/internal/domain"
	"github.com/policyforge/policyforge-backend/internal/platform/logger"
)

type TemplateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, template *types.Template) error
	Save(ctx context.Context, tx *gorm.DB, template *types.Template) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Template, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Template, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type templateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	repoLog := baseLog.With("repo", "TemplateRepo")
	return &templateRepo{db: db, log: repoLog}
}

func (r *templateRepo) Create(ctx context.Context, tx *gorm.DB, template *types.Template) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(template).Error
}

func (r *templateRepo) Save(ctx context.Context, tx *gorm.DB, template *types.Template) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(template).Error
}

func (r *templateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Template
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *templateRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Template, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Template
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *templateRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Template{}).Error
}
