package policy

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/policyforge/policyforge-backend/internal/domain"
	"github.com/policyforge/policyforge-backend/internal/platform/logger"
)

type RuleVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, version *types.RuleVersion) error
	Save(ctx context.Context, tx *gorm.DB, version *types.RuleVersion) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.RuleVersion, error)
	ListByRuleID(ctx context.Context, tx *gorm.DB, ruleID uuid.UUID) ([]*types.RuleVersion, error)
	LatestByRuleID(ctx context.Context, tx *gorm.DB, ruleID uuid.UUID) (*types.RuleVersion, error)
	CountByRuleID(ctx context.Context, tx *gorm.DB, ruleID uuid.UUID) (int64, error)
	DeleteByRuleID(ctx context.Context, tx *gorm.DB, ruleID uuid.UUID) error
}

type ruleVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRuleVersionRepo(db *gorm.DB, baseLog *logger.Logger) RuleVersionRepo {
	repoLog := baseLog.With("repo", "RuleVersionRepo")
	return &ruleVersionRepo{db: db, log: repoLog}
}

func (r *ruleVersionRepo) Create(ctx context.Context, tx *gorm.DB, version *types.RuleVersion) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(version).Error
}

func (r *ruleVersionRepo) Save(ctx context.Context, tx *gorm.DB, version *types.RuleVersion) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(version).Error
}

func (r *ruleVersionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.RuleVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.RuleVersion
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ruleVersionRepo) ListByRuleID(ctx context.Context, tx *gorm.DB, ruleID uuid.UUID) ([]*types.RuleVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.RuleVersion
	if err := transaction.WithContext(ctx).
		Where("rule_id = ?", ruleID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ruleVersionRepo) LatestByRuleID(ctx context.Context, tx *gorm.DB, ruleID uuid.UUID) (*types.RuleVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.RuleVersion
	if err := transaction.WithContext(ctx).
		Where("rule_id = ?", ruleID).
		Order("created_at DESC").
		Order("id DESC").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ruleVersionRepo) CountByRuleID(ctx context.Context, tx *gorm.DB, ruleID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.RuleVersion{}).
		Where("rule_id = ?", ruleID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ruleVersionRepo) DeleteByRuleID(ctx context.Context, tx *gorm.DB, ruleID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("rule_id = ?", ruleID).
		Delete(&types.RuleVersion{}).Error
}
