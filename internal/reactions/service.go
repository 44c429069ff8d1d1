// Package reactions keeps the per-device emoji ledger for approved posts.
// A reaction is presence of a (post, device, emoji) row; toggling flips it.
package reactions

import (
	"context"
	"errors"
	"fmt"

	"giftwall/pkg/models"

	"gorm.io/gorm"
)

// AllowedEmojis is the fixed reaction set shown on the public feed.
var AllowedEmojis = []string{"❤️", "🎉", "😂", "👏"}

var (
	ErrInvalidEmoji  = errors.New("emoji is not in the allowed set")
	ErrPostNotFound  = errors.New("post not found or not public")
	ErrDeviceMissing = errors.New("device id is required")
)

// Tally is the live aggregate after a toggle or read: totals per emoji plus
// the requesting device's own active set.
type Tally struct {
	Counts map[string]int64 `json:"counts"`
	Mine   []string         `json:"mine"`
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Toggle flips the (post, device, emoji) row and returns recomputed counts.
// Counts are always re-derived from a full scan of the post's rows rather
// than incremented, so concurrent toggles cannot lose updates.
func (s *Service) Toggle(ctx context.Context, postID, deviceID, emoji string) (Tally, error) {
	if deviceID == "" {
		return Tally{}, ErrDeviceMissing
	}
	if !isAllowed(emoji) {
		return Tally{}, ErrInvalidEmoji
	}
	if err := s.ensureVisiblePost(ctx, postID); err != nil {
		return Tally{}, err
	}

	dbx := s.db.WithContext(ctx)

	var existing models.Reaction
	err := dbx.Where("post_id = ? AND device_id = ? AND emoji = ?", postID, deviceID, emoji).
		First(&existing).Error
	switch {
	case err == nil:
		if err := dbx.Delete(&existing).Error; err != nil {
			return Tally{}, fmt.Errorf("failed to remove reaction: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		reaction := models.Reaction{PostID: postID, DeviceID: deviceID, Emoji: emoji}
		if err := dbx.Create(&reaction).Error; err != nil {
			// A concurrent toggle may have inserted the row first; the unique
			// index makes that a harmless no-op for us.
			var check int64
			dbx.Model(&models.Reaction{}).
				Where("post_id = ? AND device_id = ? AND emoji = ?", postID, deviceID, emoji).
				Count(&check)
			if check == 0 {
				return Tally{}, fmt.Errorf("failed to add reaction: %w", err)
			}
		}
	default:
		return Tally{}, fmt.Errorf("failed to look up reaction: %w", err)
	}

	return s.tally(ctx, postID, deviceID)
}

// Get returns current counts without mutating anything.
func (s *Service) Get(ctx context.Context, postID, deviceID string) (Tally, error) {
	if err := s.ensureVisiblePost(ctx, postID); err != nil {
		return Tally{}, err
	}
	return s.tally(ctx, postID, deviceID)
}

func (s *Service) tally(ctx context.Context, postID, deviceID string) (Tally, error) {
	var rows []models.Reaction
	if err := s.db.WithContext(ctx).Where("post_id = ?", postID).Find(&rows).Error; err != nil {
		return Tally{}, fmt.Errorf("failed to load reactions: %w", err)
	}

	result := Tally{Counts: make(map[string]int64, len(AllowedEmojis)), Mine: []string{}}
	for _, emoji := range AllowedEmojis {
		result.Counts[emoji] = 0
	}
	for _, row := range rows {
		result.Counts[row.Emoji]++
		if deviceID != "" && row.DeviceID == deviceID {
			result.Mine = append(result.Mine, row.Emoji)
		}
	}
	return result, nil
}

func (s *Service) ensureVisiblePost(ctx context.Context, postID string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND status = ?", postID, models.StatusApproved).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to look up post: %w", err)
	}
	if count == 0 {
		return ErrPostNotFound
	}
	return nil
}

func isAllowed(emoji string) bool {
	for _, allowed := range AllowedEmojis {
		if emoji == allowed {
			return true
		}
	}
	return false
}
