package policy

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/policyforge/policyforge-backend/internal/domain"
	"github.com/policyforge/policyforge-backend/internal/platform/logger"
)

type RuleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rule *types.Rule) error
	Save(ctx context.Context, tx *gorm.DB, rule *types.Rule) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Rule, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Rule, error)
	CountByTemplateID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (int64, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type ruleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRuleRepo(db *gorm.DB, baseLog *logger.Logger) RuleRepo {
	repoLog := baseLog.With("repo", "RuleRepo")
	return &ruleRepo{db: db, log: repoLog}
}

func (r *ruleRepo) Create(ctx context.Context, tx *gorm.DB, rule *types.Rule) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(rule).Error
}

func (r *ruleRepo) Save(ctx context.Context, tx *gorm.DB, rule *types.Rule) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(rule).Error
}

func (r *ruleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Rule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Rule
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ruleRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Rule, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Rule
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ruleRepo) CountByTemplateID(ctx context.Context, tx *gorm.DB, templateID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Rule{}).
		Where("template_id = ?", templateID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ruleRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Rule{}).Error
}
