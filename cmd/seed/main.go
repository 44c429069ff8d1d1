package main

import (
	"flag"
	"fmt"
	"time"

	"giftwall/pkg/config"
	"giftwall/pkg/database"
	"giftwall/pkg/logger"
	"giftwall/pkg/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	var (
		eventID    = flag.String("event", "", "event id to seed settings for (random if empty)")
		adminEmail = flag.String("admin-email", "admin@example.com", "seed admin email")
		adminPass  = flag.String("admin-password", "changeme123", "seed admin password")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	if *eventID == "" {
		*eventID = uuid.New().String()
	}

	if err := seedDatabase(db, *eventID, *adminEmail, *adminPass, log); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully! event_id=%s", *eventID)
}

func seedDatabase(db *gorm.DB, eventID, adminEmail, adminPass string, log *logger.Logger) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPass), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	var existing models.Admin
	result := db.Where("email = ?", adminEmail).First(&existing)
	if result.Error == nil {
		log.Info("Admin %s already exists, skipping", adminEmail)
	} else {
		admin := &models.Admin{
			Email:        adminEmail,
			PasswordHash: string(hashedPassword),
			Role:         "admin",
		}
		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		log.Info("Created admin %s", adminEmail)
	}

	settings := &models.EventSettings{
		EventID:                 eventID,
		StartAt:                 time.Now(),
		RequireApproval:         false,
		ApprovalLockAfterDays:   2,
		MaxBlessingLines:        8,
		ArchiveAfterDays:        30,
		DeleteAfterHours:        72,
		VerifyDriveBeforeDelete: true,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(settings).Error
	if err != nil {
		return fmt.Errorf("failed to create event settings: %w", err)
	}
	log.Info("Seeded settings for event %s", eventID)

	sampleRules := []models.ContentRule{
		{RuleType: models.RuleTypeBlock, Scope: models.RuleScopeGlobal, MatchType: models.MatchTypeContains, Expression: "http://", IsActive: true},
		{RuleType: models.RuleTypeBlock, Scope: models.RuleScopeGlobal, MatchType: models.MatchTypeWord, Expression: "spam", IsActive: true},
	}
	for i := range sampleRules {
		rule := &sampleRules[i]
		var found models.ContentRule
		result := db.Where("expression = ? AND match_type = ?", rule.Expression, rule.MatchType).First(&found)
		if result.Error == nil {
			log.Info("Rule %q already exists, skipping", rule.Expression)
			continue
		}
		if err := db.Create(rule).Error; err != nil {
			return fmt.Errorf("failed to create content rule: %w", err)
		}
		log.Info("Created %s rule %q", rule.RuleType, rule.Expression)
	}

	return nil
}
