// Package models holds the gorm schema of the workspace patch journal:
// every applied patch is recorded with its digests and diff so agents
// can audit and revert what they changed.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// Patch is one applied (or dry-run) modification against a file.
type Patch struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	SessionID string `gorm:"type:varchar(36);index"`

	// Operation details
	Language string `gorm:"type:varchar(50);not null"`
	File     string `gorm:"type:varchar(512);not null;index"`
	Path     string `gorm:"type:varchar(255);not null"` // element path expression
	Mode     string `gorm:"type:varchar(20);not null"`  // replace, prepend, append

	// Checksums for optimistic concurrency auditing
	BaseDigest  string `gorm:"type:varchar(64)"` // fragment hash before
	AfterDigest string `gorm:"type:varchar(64)"` // fragment hash after

	// Content
	NewCode string `gorm:"type:text"`
	Diff    string `gorm:"type:text"`

	LinesAdded   int `gorm:"default:0"`
	LinesRemoved int `gorm:"default:0"`

	// Status tracking
	Status    string         `gorm:"type:varchar(20);default:'applied'"` // applied, dry_run, conflict
	Details   datatypes.JSON `gorm:"type:jsonb"`
	AppliedAt time.Time      `gorm:"autoCreateTime"`
}

// Session groups the patches of one workspace lifetime.
type Session struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Root      string    `gorm:"type:varchar(512)"`
	StartedAt time.Time `gorm:"autoCreateTime"`
	EndedAt   *time.Time

	// Statistics
	PatchCount    int `gorm:"default:0"`
	ConflictCount int `gorm:"default:0"`
}

// TableName customizations for cleaner names
func (Patch) TableName() string   { return "patches" }
func (Session) TableName() string { return "sessions" }
