package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MediaItem is the physical upload record behind a post's media fields. It
// moves through active -> archived -> delete-pending -> deleted; DeletedAt is
// the terminal marker and is never cleared.
type MediaItem struct {
	ID          string `gorm:"type:uuid;primary_key" json:"id"`
	EventID     string `gorm:"type:uuid;not null;index" json:"event_id"`
	StoragePath string `gorm:"size:1024;not null;uniqueIndex" json:"storage_path"`
	PublicURL   string `gorm:"size:2048" json:"public_url"`

	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	ArchivedAt    *time.Time `gorm:"index" json:"archived_at,omitempty"`
	DeleteAfterAt *time.Time `gorm:"index" json:"delete_after_at,omitempty"`
	DeletedAt     *time.Time `gorm:"index" json:"deleted_at,omitempty"`

	// DriveFileID is written by the drive-sync sweep; a non-nil value means an
	// off-site copy exists. The lifecycle sweeps only ever read it.
	DriveFileID *string `gorm:"size:255" json:"drive_file_id,omitempty"`
	LastError   string  `gorm:"type:text" json:"-"`
}

func (m *MediaItem) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
