package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Template is the local draft of a policy template. RemoteID stays empty
// until the first successful publish.
type Template struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string         `gorm:"type:text;not null;index" json:"name"`
	Description    string         `gorm:"type:text" json:"description"`
	Category       string         `gorm:"type:text;not null" json:"category"`
	DataSourceType string         `gorm:"column:data_source_type;type:text;not null" json:"data_source_type"`
	Version        string         `gorm:"type:text;not null" json:"version"`
	Rego           string         `gorm:"type:text;not null" json:"rego"`
	Parameters     datatypes.JSON `gorm:"type:jsonb" json:"parameters"`
	Scanners       datatypes.JSON `gorm:"type:jsonb" json:"scanners"`
	Status         string         `gorm:"type:text;not null;default:'draft'" json:"status"`
	RemoteID       *string        `gorm:"type:text;index" json:"remote_id"`

	LastPublishedVersionID *uuid.UUID `gorm:"type:uuid" json:"last_published_version_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Template) TableName() string { return "template" }

// TemplateVersion is an immutable snapshot of a template, appended on every
// save. ParentID links versions into a linear chain ending at the root.
type TemplateVersion struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID  uuid.UUID      `gorm:"type:uuid;not null;index;index:idx_template_version_ref,unique,priority:1" json:"template_id"`
	VersionRef  string         `gorm:"column:version_ref;type:text;not null;index:idx_template_version_ref,unique,priority:2" json:"version_ref"`
	Message     string         `gorm:"type:text;not null;default:''" json:"message"`
	Author      string         `gorm:"type:text;not null;default:'system'" json:"author"`
	Data        datatypes.JSON `gorm:"type:jsonb;not null" json:"data"`
	ParentID    *uuid.UUID     `gorm:"type:uuid" json:"parent_id"`
	IsPublished bool           `gorm:"column:is_published;not null;default:false" json:"is_published"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
}

func (TemplateVersion) TableName() string { return "template_version" }

// Rule is a local draft of a policy rule bound to a template. Deleting the
// template is blocked while rules still reference it.
type Rule struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"template_id"`
	Name        string         `gorm:"type:text;not null;index" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsCustom    bool           `gorm:"column:is_custom;not null;default:true" json:"is_custom"`
	Version     string         `gorm:"type:text;not null" json:"version"`
	Parameters  datatypes.JSON `gorm:"type:jsonb" json:"parameters"`
	Status      string         `gorm:"type:text;not null;default:'draft'" json:"status"`
	RemoteID    *string        `gorm:"type:text;index" json:"remote_id"`

	LastPublishedVersionID *uuid.UUID `gorm:"type:uuid" json:"last_published_version_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Rule) TableName() string { return "rule" }

type RuleVersion struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RuleID      uuid.UUID      `gorm:"type:uuid;not null;index;index:idx_rule_version_ref,unique,priority:1" json:"rule_id"`
	VersionRef  string         `gorm:"column:version_ref;type:text;not null;index:idx_rule_version_ref,unique,priority:2" json:"version_ref"`
	Message     string         `gorm:"type:text;not null;default:''" json:"message"`
	Author      string         `gorm:"type:text;not null;default:'system'" json:"author"`
	Data        datatypes.JSON `gorm:"type:jsonb;not null" json:"data"`
	ParentID    *uuid.UUID     `gorm:"type:uuid" json:"parent_id"`
	IsPublished bool           `gorm:"column:is_published;not null;default:false" json:"is_published"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
}

func (RuleVersion) TableName() string { return "rule_version" }
