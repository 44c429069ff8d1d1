package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventSettings is the single authoritative configuration row for an event.
// EventID carries a uniqueness constraint so there is exactly one current row
// per event, written through the settings service.
type EventSettings struct {
	ID      string `gorm:"type:uuid;primary_key" json:"id"`
	EventID string `gorm:"type:uuid;not null;uniqueIndex" json:"event_id"`

	// StartAt anchors the approval-lock calendar-day computation.
	StartAt time.Time `json:"start_at"`

	RequireApproval       bool       `json:"require_approval"`
	ApprovalLockAfterDays int        `gorm:"default:2" json:"approval_lock_after_days"`
	ApprovalOpenedAt      *time.Time `json:"approval_opened_at,omitempty"`
	MaxBlessingLines      int        `gorm:"default:8" json:"max_blessing_lines"`

	ArchiveAfterDays        int  `gorm:"default:30" json:"archive_after_days"`
	DeleteAfterHours        int  `gorm:"default:72" json:"delete_after_hours"`
	VerifyDriveBeforeDelete bool `gorm:"default:true" json:"verify_drive_before_delete"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *EventSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
