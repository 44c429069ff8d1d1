package posts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"giftwall/internal/admission"
	"giftwall/internal/rules"
	"giftwall/internal/settings"
	"giftwall/pkg/logger"
	"giftwall/pkg/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// EditWindow is how long the submitting device may edit or delete its own
// post, anchored to creation time. Edits do not extend it.
const EditWindow = time.Hour

const feedUpdatesChannel = "feed_updates"

var (
	ErrNotFound       = errors.New("post not found")
	ErrPostDeleted    = errors.New("post is deleted")
	ErrWrongDevice    = errors.New("post belongs to a different device")
	ErrWindowExpired  = errors.New("edit window has expired")
	ErrContentBlocked = errors.New("submission matches a block rule")
	ErrInvalidInput   = errors.New("invalid submission")
)

// ObjectRemover removes an object from storage, best effort.
type ObjectRemover interface {
	DeleteFile(key string) error
}

type Service struct {
	repo       Repository
	rulesRepo  rules.Repository
	matcher    *rules.Matcher
	controller *admission.Controller
	settings   *settings.Service
	storage    ObjectRemover
	redis      *redis.Client
	logger     *logger.Logger
}

func NewService(
	repo Repository,
	rulesRepo rules.Repository,
	matcher *rules.Matcher,
	controller *admission.Controller,
	settingsSvc *settings.Service,
	storage ObjectRemover,
	redisClient *redis.Client,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		rulesRepo:  rulesRepo,
		matcher:    matcher,
		controller: controller,
		settings:   settingsSvc,
		storage:    storage,
		redis:      redisClient,
		logger:     log,
	}
}

type SubmitInput struct {
	EventID     string
	Kind        models.PostKind
	AuthorName  string
	Text        string
	MediaURL    string
	StoragePath string
	LinkURL     string
	VideoURL    string
	DeviceID    string
}

// Submit runs a new guest submission through the rule matcher and the
// admission controller, then persists the post with its computed status.
func (s *Service) Submit(ctx context.Context, in SubmitInput, now time.Time) (*models.Post, error) {
	if err := validateSubmit(in); err != nil {
		return nil, err
	}

	if err := s.checkBlockRules(in.EventID, rules.Fields{
		AuthorName: in.AuthorName,
		Text:       in.Text,
		LinkURL:    in.LinkURL,
		MediaURL:   in.MediaURL,
		VideoURL:   in.VideoURL,
	}); err != nil {
		return nil, err
	}

	cfg, err := s.settings.Get(in.EventID)
	if err != nil {
		return nil, err
	}

	decision, err := s.controller.Admit(ctx, admission.Input{
		Kind:     in.Kind,
		Text:     in.Text,
		DeviceID: in.DeviceID,
		Settings: cfg,
		Now:      now,
	})
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		EventID:            in.EventID,
		Kind:               in.Kind,
		AuthorName:         in.AuthorName,
		Text:               in.Text,
		MediaURL:           in.MediaURL,
		StoragePath:        in.StoragePath,
		LinkURL:            in.LinkURL,
		VideoURL:           in.VideoURL,
		Status:             decision.Status,
		PendingReason:      decision.Reason,
		ModerationFlagged:  decision.Moderation.Flagged,
		ModerationProvider: decision.Moderation.Provider,
		ModerationRaw:      decision.Moderation.Raw,
		DeviceID:           in.DeviceID,
	}

	if err := s.repo.Create(post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	// Register the physical upload so the lifecycle sweeps can see it
	if in.StoragePath != "" {
		item := &models.MediaItem{
			EventID:     in.EventID,
			StoragePath: in.StoragePath,
			PublicURL:   in.MediaURL,
		}
		if err := s.repo.CreateMedia(item); err != nil {
			// The post is already live; a duplicate or failed media row only
			// affects lifecycle bookkeeping.
			s.logger.Warn("failed to register media item %s: %v", in.StoragePath, err)
		}
	}

	if post.Status == models.StatusApproved {
		s.publishFeedUpdate(ctx, post.ID)
	}

	return post, nil
}

type EditInput struct {
	AuthorName *string
	Text       *string
	LinkURL    *string
}

// Edit applies a device-scoped edit. Only the submitting device may edit, and
// only within the window from creation; line and moderation limits are
// re-applied, and a pending post is never un-pended by an edit.
func (s *Service) Edit(ctx context.Context, postID, deviceID string, in EditInput, now time.Time) (*models.Post, error) {
	post, err := s.getForDevice(postID, deviceID, now)
	if err != nil {
		return nil, err
	}

	if in.AuthorName != nil {
		post.AuthorName = *in.AuthorName
	}
	if in.Text != nil {
		post.Text = *in.Text
	}
	if in.LinkURL != nil {
		post.LinkURL = *in.LinkURL
	}

	if err := s.checkBlockRules(post.EventID, rules.Fields{
		AuthorName: post.AuthorName,
		Text:       post.Text,
		LinkURL:    post.LinkURL,
		MediaURL:   post.MediaURL,
		VideoURL:   post.VideoURL,
	}); err != nil {
		return nil, err
	}

	cfg, err := s.settings.Get(post.EventID)
	if err != nil {
		return nil, err
	}

	decision := s.controller.Reevaluate(ctx, post, post.Text, cfg)
	post.Status = decision.Status
	post.PendingReason = decision.Reason
	post.ModerationFlagged = decision.Moderation.Flagged
	if decision.Moderation.Provider != "none" {
		post.ModerationProvider = decision.Moderation.Provider
		post.ModerationRaw = decision.Moderation.Raw
	}

	if err := s.repo.Save(post); err != nil {
		return nil, fmt.Errorf("failed to save post: %w", err)
	}
	return post, nil
}

// Delete is the device-scoped soft delete. Storage cleanup is best effort:
// the post-level deletion must not be blocked by a storage outage.
func (s *Service) Delete(ctx context.Context, postID, deviceID string, now time.Time) error {
	post, err := s.getForDevice(postID, deviceID, now)
	if err != nil {
		return err
	}
	return s.softDelete(post, now)
}

// AdminDelete removes a post unconditionally (role enforcement happens at the
// route).
func (s *Service) AdminDelete(ctx context.Context, postID string, now time.Time) error {
	post, err := s.repo.GetByID(postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if post.Status == models.StatusDeleted {
		return ErrPostDeleted
	}
	return s.softDelete(post, now)
}

// AdminApprove moves a pending post live. This is the only transition out of
// pending.
func (s *Service) AdminApprove(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.repo.GetByID(postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if post.Status == models.StatusDeleted {
		return nil, ErrPostDeleted
	}

	post.Status = models.StatusApproved
	post.PendingReason = ""
	if err := s.repo.Save(post); err != nil {
		return nil, fmt.Errorf("failed to approve post: %w", err)
	}

	s.publishFeedUpdate(ctx, post.ID)
	return post, nil
}

func (s *Service) GetByID(postID string) (*models.Post, error) {
	post, err := s.repo.GetByID(postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return post, err
}

func (s *Service) ListApproved(eventID string, kind models.PostKind, limit, offset int) ([]*models.Post, error) {
	return s.repo.ListByStatus(eventID, kind, models.StatusApproved, limit, offset)
}

func (s *Service) ListPending(eventID string, limit, offset int) ([]*models.Post, error) {
	return s.repo.ListPending(eventID, limit, offset)
}

func (s *Service) softDelete(post *models.Post, now time.Time) error {
	post.Status = models.StatusDeleted
	post.PendingReason = ""
	if err := s.repo.Save(post); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if post.StoragePath != "" {
		if s.storage != nil {
			if err := s.storage.DeleteFile(post.StoragePath); err != nil {
				s.logger.Warn("failed to remove storage object %s: %v", post.StoragePath, err)
			}
		}
		if err := s.repo.MarkMediaDeleted(post.StoragePath, now); err != nil {
			s.logger.Warn("failed to stamp media item %s: %v", post.StoragePath, err)
		}
	}
	return nil
}

// getForDevice enforces the self-service authorization rule: same device and
// within the window from creation. Checks run deleted -> device -> window so
// the caller gets the most specific denial.
func (s *Service) getForDevice(postID, deviceID string, now time.Time) (*models.Post, error) {
	post, err := s.repo.GetByID(postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if post.Status == models.StatusDeleted {
		return nil, ErrPostDeleted
	}
	if deviceID == "" || post.DeviceID != deviceID {
		return nil, ErrWrongDevice
	}
	if now.Sub(post.CreatedAt) > EditWindow {
		return nil, ErrWindowExpired
	}
	return post, nil
}

func (s *Service) checkBlockRules(eventID string, fields rules.Fields) error {
	ruleset, err := s.rulesRepo.ActiveRules(eventID)
	if err != nil {
		return fmt.Errorf("failed to load content rules: %w", err)
	}
	if match := s.matcher.Evaluate(ruleset, fields); match != nil && match.Rule.RuleType == models.RuleTypeBlock {
		return ErrContentBlocked
	}
	return nil
}

func (s *Service) publishFeedUpdate(ctx context.Context, postID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Publish(ctx, feedUpdatesChannel, postID).Err(); err != nil {
		s.logger.Warn("failed to publish feed update for %s: %v", postID, err)
	}
}

func validateSubmit(in SubmitInput) error {
	if in.EventID == "" {
		return fmt.Errorf("%w: event_id is required", ErrInvalidInput)
	}
	switch in.Kind {
	case models.KindBlessing, models.KindGallery, models.KindGalleryAdmin:
	default:
		return fmt.Errorf("%w: invalid kind %q", ErrInvalidInput, in.Kind)
	}
	if in.Kind == models.KindBlessing && in.Text == "" {
		return fmt.Errorf("%w: text is required for blessings", ErrInvalidInput)
	}
	if in.Kind != models.KindBlessing && in.MediaURL == "" {
		return fmt.Errorf("%w: media_url is required for gallery items", ErrInvalidInput)
	}
	return nil
}
