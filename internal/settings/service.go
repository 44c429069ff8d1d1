// Package settings owns the per-event configuration aggregate. Exactly one
// row exists per event, enforced by a unique index on event_id and by writing
// only through this service; there is no latest-by-timestamp tie-break.
package settings

import (
	"errors"
	"fmt"
	"time"

	"giftwall/pkg/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("event settings not found")

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Get returns the authoritative settings row for an event.
func (s *Service) Get(eventID string) (*models.EventSettings, error) {
	var row models.EventSettings
	err := s.db.Where("event_id = ?", eventID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event settings: %w", err)
	}
	return &row, nil
}

// GetOrCreate returns the settings row, creating one with defaults when the
// event has none yet. The unique index makes concurrent creates converge on a
// single row.
func (s *Service) GetOrCreate(eventID string, startAt time.Time) (*models.EventSettings, error) {
	row := models.EventSettings{
		EventID:                 eventID,
		StartAt:                 startAt,
		ApprovalLockAfterDays:   2,
		MaxBlessingLines:        8,
		ArchiveAfterDays:        30,
		DeleteAfterHours:        72,
		VerifyDriveBeforeDelete: true,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure event settings: %w", err)
	}
	return s.Get(eventID)
}

// Update applies an admin edit. Flipping require_approval from true to false
// stamps approval_opened_at with now: reopening approvals restarts the lock
// window from that moment (a reopening stamped before start_at is ignored by
// the admission controller, which only moves the anchor forward).
type Update struct {
	RequireApproval         *bool
	ApprovalLockAfterDays   *int
	MaxBlessingLines        *int
	ArchiveAfterDays        *int
	DeleteAfterHours        *int
	VerifyDriveBeforeDelete *bool
	StartAt                 *time.Time
}

func (s *Service) Update(eventID string, upd Update, now time.Time) (*models.EventSettings, error) {
	row, err := s.Get(eventID)
	if err != nil {
		return nil, err
	}

	if upd.RequireApproval != nil {
		if row.RequireApproval && !*upd.RequireApproval {
			opened := now
			row.ApprovalOpenedAt = &opened
		}
		row.RequireApproval = *upd.RequireApproval
	}
	if upd.ApprovalLockAfterDays != nil {
		row.ApprovalLockAfterDays = *upd.ApprovalLockAfterDays
	}
	if upd.MaxBlessingLines != nil {
		row.MaxBlessingLines = *upd.MaxBlessingLines
	}
	if upd.ArchiveAfterDays != nil {
		row.ArchiveAfterDays = *upd.ArchiveAfterDays
	}
	if upd.DeleteAfterHours != nil {
		row.DeleteAfterHours = *upd.DeleteAfterHours
	}
	if upd.VerifyDriveBeforeDelete != nil {
		row.VerifyDriveBeforeDelete = *upd.VerifyDriveBeforeDelete
	}
	if upd.StartAt != nil {
		row.StartAt = *upd.StartAt
	}

	if err := s.db.Save(row).Error; err != nil {
		return nil, fmt.Errorf("failed to update event settings: %w", err)
	}
	return row, nil
}
