// Package admission decides whether a guest submission goes live immediately
// or is queued for manual approval. The checks run in a fixed order: hard
// rate limit, calendar-day lock window, explicit approval toggle, line limit,
// soft moderation. Only the rate limit rejects; everything else soft-pends.
package admission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"giftwall/internal/moderation"
	"giftwall/pkg/localday"
	"giftwall/pkg/models"

	"gorm.io/gorm"
)

const (
	// RateLimitPerHour is the per-device, per-kind submission ceiling over a
	// trailing 60 minutes. The count is derived from persisted rows so the
	// window is exact.
	RateLimitPerHour = 10

	rateLimitWindow = time.Hour
)

var ErrRateLimited = errors.New("too many submissions from this device")

type Input struct {
	Kind     models.PostKind
	Text     string
	DeviceID string
	Settings *models.EventSettings
	Now      time.Time
}

type Decision struct {
	Status models.PostStatus
	Reason models.PendingReason
	Locked bool
	// Moderation carries the provider verdict so the caller can persist the
	// diagnostic fields alongside the post.
	Moderation moderation.Result
}

type Controller struct {
	db   *gorm.DB
	gate *moderation.Gate
	loc  *time.Location
}

func NewController(db *gorm.DB, gate *moderation.Gate, loc *time.Location) *Controller {
	return &Controller{db: db, gate: gate, loc: loc}
}

// Admit runs the admission pipeline for a new submission. It returns
// ErrRateLimited as a hard rejection; any other outcome is a decision.
func (c *Controller) Admit(ctx context.Context, in Input) (Decision, error) {
	// Admin-originated gallery items bypass every gate.
	if in.Kind == models.KindGalleryAdmin {
		return Decision{Status: models.StatusApproved}, nil
	}

	if in.DeviceID != "" {
		if err := c.checkRateLimit(ctx, in); err != nil {
			return Decision{}, err
		}
	}

	decision := Decision{Status: models.StatusApproved, Moderation: moderation.Result{OK: true, Provider: "none"}}

	locked := false
	if in.Kind == models.KindBlessing {
		locked = c.lockWindowClosed(in.Settings, in.Now)
	}
	decision.Locked = locked

	requireApproval := in.Settings.RequireApproval || locked

	linesExceeded := false
	flagged := false
	if in.Kind == models.KindBlessing {
		linesExceeded = exceedsLineLimit(in.Text, in.Settings.MaxBlessingLines)

		result := c.gate.Moderate(ctx, in.Text)
		decision.Moderation = result
		flagged = result.OK && result.Flagged
	}

	// Reason precedence: lines > moderation > approval_lock > require_approval.
	// The reason is diagnostic only; status is pending if anything forced it.
	switch {
	case linesExceeded:
		decision.Status = models.StatusPending
		decision.Reason = models.ReasonLines
	case flagged:
		decision.Status = models.StatusPending
		decision.Reason = models.ReasonModeration
	case locked:
		decision.Status = models.StatusPending
		decision.Reason = models.ReasonApprovalLock
	case requireApproval:
		decision.Status = models.StatusPending
		decision.Reason = models.ReasonRequireApproval
	}

	return decision, nil
}

// Reevaluate applies the edit-time forcing rules (line limit and moderation)
// to an already-persisted post. An edit can push an approved post back to
// pending, but never the reverse.
func (c *Controller) Reevaluate(ctx context.Context, post *models.Post, text string, s *models.EventSettings) Decision {
	decision := Decision{Status: post.Status, Reason: post.PendingReason, Moderation: moderation.Result{OK: true, Provider: "none"}}

	if post.Kind != models.KindBlessing {
		return decision
	}

	linesExceeded := exceedsLineLimit(text, s.MaxBlessingLines)

	result := c.gate.Moderate(ctx, text)
	decision.Moderation = result
	flagged := result.OK && result.Flagged

	switch {
	case linesExceeded:
		decision.Status = models.StatusPending
		decision.Reason = models.ReasonLines
	case flagged:
		decision.Status = models.StatusPending
		decision.Reason = models.ReasonModeration
	}

	return decision
}

func (c *Controller) checkRateLimit(ctx context.Context, in Input) error {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("device_id = ? AND kind = ? AND created_at > ?", in.DeviceID, in.Kind, in.Now.Add(-rateLimitWindow)).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to count recent submissions: %w", err)
	}
	if count >= RateLimitPerHour {
		return ErrRateLimited
	}
	return nil
}

// lockWindowClosed reports whether the calendar-day grace period has elapsed.
// The anchor is the event start, or the most recent reopening of approvals if
// that came after the start; the anchor only ever moves forward. The lock
// takes effect at local midnight beginning the day after the grace period
// ends, computed in the configured fixed timezone.
func (c *Controller) lockWindowClosed(s *models.EventSettings, now time.Time) bool {
	anchor := s.StartAt
	if s.ApprovalOpenedAt != nil && s.ApprovalOpenedAt.After(s.StartAt) {
		anchor = *s.ApprovalOpenedAt
	}

	nowDay := localday.DayNumber(now, c.loc)
	anchorDay := localday.DayNumber(anchor, c.loc)

	// The anchor day itself does not count against the grace days, and the
	// final grace day runs to its end: the first locked moment is the local
	// midnight after anchor day + ApprovalLockAfterDays + 1 full days.
	return nowDay >= anchorDay+s.ApprovalLockAfterDays+2
}

func exceedsLineLimit(text string, maxLines int) bool {
	if maxLines <= 0 {
		return false
	}
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	return len(strings.Split(normalized, "\n")) > maxLines
}
