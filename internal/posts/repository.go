package posts

import (
	"time"

	"giftwall/pkg/models"

	"gorm.io/gorm"
)

type Repository interface {
	Create(post *models.Post) error
	CreateMedia(item *models.MediaItem) error
	GetByID(id string) (*models.Post, error)
	Save(post *models.Post) error
	ListByStatus(eventID string, kind models.PostKind, status models.PostStatus, limit, offset int) ([]*models.Post, error)
	ListPending(eventID string, limit, offset int) ([]*models.Post, error)
	MarkMediaDeleted(storagePath string, now time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(post *models.Post) error {
	return r.db.Create(post).Error
}

func (r *repository) CreateMedia(item *models.MediaItem) error {
	return r.db.Create(item).Error
}

func (r *repository) GetByID(id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *repository) Save(post *models.Post) error {
	return r.db.Save(post).Error
}

func (r *repository) ListByStatus(eventID string, kind models.PostKind, status models.PostStatus, limit, offset int) ([]*models.Post, error) {
	var list []*models.Post
	query := r.db.
		Where("event_id = ? AND kind = ? AND status = ?", eventID, kind, status).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) ListPending(eventID string, limit, offset int) ([]*models.Post, error) {
	var list []*models.Post
	query := r.db.
		Where("event_id = ? AND status = ?", eventID, models.StatusPending).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// MarkMediaDeleted stamps the media row behind a removed post. DeletedAt is
// terminal, so an already-stamped row is left untouched.
func (r *repository) MarkMediaDeleted(storagePath string, now time.Time) error {
	return r.db.Model(&models.MediaItem{}).
		Where("storage_path = ? AND deleted_at IS NULL", storagePath).
		Update("deleted_at", now).Error
}
