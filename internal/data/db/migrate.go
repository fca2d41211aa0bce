package db

import (
	types "github.com/policyforge/policyforge-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Template{},
		&types.TemplateVersion{},
		&types.Rule{},
		&types.RuleVersion{},
	)
}

func (s *Service) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}
