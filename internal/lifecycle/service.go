// Package lifecycle runs the scheduled media sweeps: active media is
// archived once old enough, archived media is physically deleted once its
// grace period lapses, and a companion sweep pushes off-site backup copies.
// Every run re-derives eligibility from persisted timestamps, so overlapping
// or repeated runs are safe and a backlog drains across invocations.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"giftwall/internal/settings"
	"giftwall/pkg/logger"
	"giftwall/pkg/models"

	"gorm.io/gorm"
)

// SweepBatchSize bounds how many items each sweep touches per invocation so
// a single scheduled run stays short.
const SweepBatchSize = 50

// Storage removes objects, best effort.
type Storage interface {
	DeleteFile(key string) error
}

// BackupUploader pushes a copy of a stored object off-site and returns the
// external id of the copy.
type BackupUploader interface {
	Name() string
	Upload(ctx context.Context, storagePath string) (string, error)
}

type Report struct {
	Archived int `json:"archived"`
	Deleted  int `json:"deleted"`
	Skipped  int `json:"skipped"`
	Synced   int `json:"synced"`
	Failed   int `json:"failed"`
}

type Service struct {
	db       *gorm.DB
	settings *settings.Service
	storage  Storage
	uploader BackupUploader
	logger   *logger.Logger
}

func NewService(db *gorm.DB, settingsSvc *settings.Service, storage Storage, uploader BackupUploader, log *logger.Logger) *Service {
	return &Service{db: db, settings: settingsSvc, storage: storage, uploader: uploader, logger: log}
}

// RunLifecycle executes the archive and delete sweeps for every configured
// event. Per-event failures are logged and do not stop the run.
func (s *Service) RunLifecycle(ctx context.Context, now time.Time) (Report, error) {
	var report Report

	eventIDs, err := s.listEventIDs(ctx)
	if err != nil {
		return report, err
	}

	for _, eventID := range eventIDs {
		cfg, err := s.settings.Get(eventID)
		if err != nil {
			s.logger.Error("lifecycle: failed to load settings for event %s: %v", eventID, err)
			continue
		}

		archived, skipped := s.archiveSweep(ctx, cfg, now)
		deleted, delSkipped := s.deleteSweep(ctx, cfg, now)

		report.Archived += archived
		report.Deleted += deleted
		report.Skipped += skipped + delSkipped
	}

	s.logger.Info("lifecycle sweep done: archived=%d deleted=%d skipped=%d",
		report.Archived, report.Deleted, report.Skipped)
	return report, nil
}

// archiveSweep stamps archived_at and delete_after_at on media older than the
// configured age. When backup verification is on, items without an off-site
// copy are skipped and stay eligible for the next run.
func (s *Service) archiveSweep(ctx context.Context, cfg *models.EventSettings, now time.Time) (archived, skipped int) {
	cutoff := now.Add(-time.Duration(cfg.ArchiveAfterDays) * 24 * time.Hour)

	var items []models.MediaItem
	err := s.db.WithContext(ctx).
		Where("event_id = ? AND archived_at IS NULL AND deleted_at IS NULL AND created_at <= ?", cfg.EventID, cutoff).
		Order("created_at ASC").
		Limit(SweepBatchSize).
		Find(&items).Error
	if err != nil {
		s.logger.Error("archive sweep: failed to list media for event %s: %v", cfg.EventID, err)
		return 0, 0
	}

	deleteAfter := now.Add(time.Duration(cfg.DeleteAfterHours) * time.Hour)

	for _, item := range items {
		if cfg.VerifyDriveBeforeDelete && item.DriveFileID == nil {
			skipped++
			continue
		}

		// The archived_at guard keeps an overlapping run from stamping twice
		tx := s.db.WithContext(ctx).Model(&models.MediaItem{}).
			Where("id = ? AND archived_at IS NULL", item.ID).
			Updates(map[string]interface{}{
				"archived_at":     now,
				"delete_after_at": deleteAfter,
			})
		if tx.Error != nil {
			s.logger.Error("archive sweep: failed to stamp %s: %v", item.ID, tx.Error)
			continue
		}
		if tx.RowsAffected > 0 {
			archived++
		}
	}
	return archived, skipped
}

// deleteSweep removes archived media whose grace period has lapsed. Storage
// removal failures are tolerated: a missing object is not worth failing the
// sweep over, and deleted_at is stamped regardless.
func (s *Service) deleteSweep(ctx context.Context, cfg *models.EventSettings, now time.Time) (deleted, skipped int) {
	var items []models.MediaItem
	err := s.db.WithContext(ctx).
		Where("event_id = ? AND deleted_at IS NULL AND delete_after_at IS NOT NULL AND delete_after_at <= ?", cfg.EventID, now).
		Order("delete_after_at ASC").
		Limit(SweepBatchSize).
		Find(&items).Error
	if err != nil {
		s.logger.Error("delete sweep: failed to list media for event %s: %v", cfg.EventID, err)
		return 0, 0
	}

	for _, item := range items {
		if cfg.VerifyDriveBeforeDelete && item.DriveFileID == nil {
			skipped++
			continue
		}

		if s.storage != nil {
			if err := s.storage.DeleteFile(item.StoragePath); err != nil {
				s.logger.Warn("delete sweep: failed to remove %s from storage: %v", item.StoragePath, err)
			}
		}

		tx := s.db.WithContext(ctx).Model(&models.MediaItem{}).
			Where("id = ? AND deleted_at IS NULL", item.ID).
			Update("deleted_at", now)
		if tx.Error != nil {
			s.logger.Error("delete sweep: failed to stamp %s: %v", item.ID, tx.Error)
			continue
		}
		if tx.RowsAffected > 0 {
			deleted++
		}
	}
	return deleted, skipped
}

// RunDriveSync uploads media lacking an off-site copy and records the
// resulting id, or the error, per item. The lifecycle sweeps only ever read
// drive_file_id; this is the sole writer.
func (s *Service) RunDriveSync(ctx context.Context, now time.Time) (Report, error) {
	var report Report

	if s.uploader == nil {
		return report, nil
	}

	var items []models.MediaItem
	err := s.db.WithContext(ctx).
		Where("drive_file_id IS NULL AND deleted_at IS NULL").
		Order("created_at ASC").
		Limit(SweepBatchSize).
		Find(&items).Error
	if err != nil {
		return report, fmt.Errorf("drive sync: failed to list media: %w", err)
	}

	for _, item := range items {
		externalID, err := s.uploader.Upload(ctx, item.StoragePath)
		if err != nil {
			report.Failed++
			s.logger.Warn("drive sync: upload failed for %s: %v", item.StoragePath, err)
			if dbErr := s.db.WithContext(ctx).Model(&models.MediaItem{}).
				Where("id = ?", item.ID).
				Update("last_error", err.Error()).Error; dbErr != nil {
				s.logger.Error("drive sync: failed to record error for %s: %v", item.ID, dbErr)
			}
			continue
		}

		err = s.db.WithContext(ctx).Model(&models.MediaItem{}).
			Where("id = ?", item.ID).
			Updates(map[string]interface{}{
				"drive_file_id": externalID,
				"last_error":    "",
			}).Error
		if err != nil {
			s.logger.Error("drive sync: failed to record id for %s: %v", item.ID, err)
			continue
		}
		report.Synced++
	}

	s.logger.Info("drive sync done: synced=%d failed=%d", report.Synced, report.Failed)
	return report, nil
}

func (s *Service) listEventIDs(ctx context.Context) ([]string, error) {
	var eventIDs []string
	err := s.db.WithContext(ctx).
		Model(&models.EventSettings{}).
		Distinct().
		Pluck("event_id", &eventIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return eventIDs, nil
}
