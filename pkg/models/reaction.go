package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reaction is a pure presence row: (post, device, emoji) existing means that
// device currently reacts with that emoji. Toggling inserts or deletes, never
// updates in place.
type Reaction struct {
	ID       string `gorm:"type:uuid;primary_key" json:"id"`
	PostID   string `gorm:"type:uuid;not null;index:idx_post_device_emoji,unique;index" json:"post_id"`
	DeviceID string `gorm:"type:varchar(128);not null;index:idx_post_device_emoji,unique" json:"-"`
	Emoji    string `gorm:"size:16;not null;index:idx_post_device_emoji,unique" json:"emoji"`

	CreatedAt time.Time `json:"created_at"`
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
