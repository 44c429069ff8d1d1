package rules

import (
	"giftwall/pkg/models"

	"gorm.io/gorm"
)

type Repository interface {
	ActiveRules(eventID string) ([]models.ContentRule, error)
	Create(rule *models.ContentRule) error
	List() ([]models.ContentRule, error)
	SetActive(id string, active bool) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// ActiveRules returns the active rules in scope for an event: global rules
// plus rules bound to that event.
func (r *repository) ActiveRules(eventID string) ([]models.ContentRule, error) {
	var ruleset []models.ContentRule
	err := r.db.
		Where("is_active = ?", true).
		Where("scope = ? OR (scope = ? AND event_id = ?)", models.RuleScopeGlobal, models.RuleScopeEvent, eventID).
		Order("created_at ASC").
		Find(&ruleset).Error
	if err != nil {
		return nil, err
	}
	return ruleset, nil
}

func (r *repository) Create(rule *models.ContentRule) error {
	return r.db.Create(rule).Error
}

func (r *repository) List() ([]models.ContentRule, error) {
	var ruleset []models.ContentRule
	if err := r.db.Order("created_at ASC").Find(&ruleset).Error; err != nil {
		return nil, err
	}
	return ruleset, nil
}

func (r *repository) SetActive(id string, active bool) error {
	tx := r.db.Model(&models.ContentRule{}).Where("id = ?", id).Update("is_active", active)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
