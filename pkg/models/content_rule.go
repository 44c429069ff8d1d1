package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RuleType string

const (
	RuleTypeBlock RuleType = "block"
	RuleTypeAllow RuleType = "allow"
)

type RuleScope string

const (
	RuleScopeEvent  RuleScope = "event"
	RuleScopeGlobal RuleScope = "global"
)

type MatchType string

const (
	MatchTypeExact    MatchType = "exact"
	MatchTypeContains MatchType = "contains"
	MatchTypeWord     MatchType = "word"
)

type ContentRule struct {
	ID         string    `gorm:"type:uuid;primary_key" json:"id"`
	RuleType   RuleType  `gorm:"type:varchar(10);not null" json:"rule_type"`
	Scope      RuleScope `gorm:"type:varchar(10);not null;default:'global'" json:"scope"`
	EventID    *string   `gorm:"type:uuid;index" json:"event_id,omitempty"`
	MatchType  MatchType `gorm:"type:varchar(10);not null" json:"match_type"`
	Expression string    `gorm:"size:512;not null" json:"expression"`
	// No gorm default tag: with one, gorm drops a false value from the
	// INSERT and the column default wins, so an inactive rule could never be
	// created. Callers set IsActive explicitly.
	IsActive bool `gorm:"index" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *ContentRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
