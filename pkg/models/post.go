package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostStatus string

const (
	StatusPending  PostStatus = "pending"
	StatusApproved PostStatus = "approved"
	StatusDeleted  PostStatus = "deleted"
)

type PostKind string

const (
	KindBlessing     PostKind = "blessing"
	KindGallery      PostKind = "gallery"
	KindGalleryAdmin PostKind = "gallery_admin"
)

type PendingReason string

const (
	ReasonLines           PendingReason = "lines"
	ReasonModeration      PendingReason = "moderation"
	ReasonApprovalLock    PendingReason = "approval_lock"
	ReasonRequireApproval PendingReason = "require_approval"
)

type Post struct {
	ID      string   `gorm:"type:uuid;primary_key" json:"id"`
	EventID string   `gorm:"type:uuid;not null;index" json:"event_id"`
	Kind    PostKind `gorm:"type:varchar(20);not null;index" json:"kind"`

	AuthorName  string `json:"author_name"`
	Text        string `json:"text"`
	MediaURL    string `json:"media_url"`
	StoragePath string `json:"storage_path"`
	LinkURL     string `json:"link_url"`
	VideoURL    string `json:"video_url"`

	Status        PostStatus    `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PendingReason PendingReason `gorm:"type:varchar(20)" json:"pending_reason,omitempty"`

	ModerationFlagged  bool   `json:"moderation_flagged"`
	ModerationProvider string `gorm:"type:varchar(64)" json:"moderation_provider,omitempty"`
	ModerationRaw      string `gorm:"type:text" json:"-"`

	// DeviceID is the anonymous client token set once at creation. It is the
	// sole authorization key for self-service edit/delete and rate limiting.
	DeviceID string `gorm:"type:varchar(128);index" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
