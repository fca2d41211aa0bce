package repos

import (
	"github.com/policyforge/policyforge-backend/internal/data/repos/policy"
	"github.com/policyforge/policyforge-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type TemplateRepo = policy.TemplateRepo
type TemplateVersionRepo = policy.TemplateVersionRepo
type RuleRepo = policy.RuleRepo
type RuleVersionRepo = policy.RuleVersionRepo

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	return policy.NewTemplateRepo(db, baseLog)
}

func NewTemplateVersionRepo(db *gorm.DB, baseLog *logger.Logger) TemplateVersionRepo {
	return policy.NewTemplateVersionRepo(db, baseLog)
}

func NewRuleRepo(db *gorm.DB, baseLog *logger.Logger) RuleRepo {
	return policy.NewRuleRepo(db, baseLog)
}

func NewRuleVersionRepo(db *gorm.DB, baseLog *logger.Logger) RuleVersionRepo {
	return policy.NewRuleVersionRepo(db, baseLog)
}
