package handlers

import (
	"errors"
	"net/http"
	"time"

	"giftwall/internal/posts"
	"giftwall/internal/rules"
	"giftwall/internal/settings"
	"giftwall/pkg/jwt"
	"giftwall/pkg/logger"
	"giftwall/pkg/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AdminHandler struct {
	db       *gorm.DB
	jwt      *jwt.Service
	posts    *posts.Service
	settings *settings.Service
	rules    rules.Repository
	logger   *logger.Logger
}

func NewAdminHandler(db *gorm.DB, jwtService *jwt.Service, postsSvc *posts.Service, settingsSvc *settings.Service, rulesRepo rules.Repository, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		db:       db,
		jwt:      jwtService,
		posts:    postsSvc,
		settings: settingsSvc,
		rules:    rulesRepo,
		logger:   log,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var admin models.Admin
	err := h.db.Where("email = ?", req.Email).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.logger.Error("admin login lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.jwt.GenerateToken(admin.ID, admin.Role)
	if err != nil {
		h.logger.Error("failed to generate token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Pending lists posts awaiting review for an event, oldest first.
func (h *AdminHandler) Pending(c *gin.Context) {
	eventID := c.Param("event_id")

	items, err := h.posts.ListPending(eventID, 200, 0)
	if err != nil {
		h.logger.Error("failed to list pending posts: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": items})
}

func (h *AdminHandler) Approve(c *gin.Context) {
	post, err := h.posts.AdminApprove(c.Request.Context(), c.Param("id"))
	if errors.Is(err, posts.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if errors.Is(err, posts.ErrPostDeleted) {
		c.JSON(http.StatusGone, gin.H{"error": "Post no longer exists"})
		return
	}
	if err != nil {
		h.logger.Error("failed to approve post: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (h *AdminHandler) DeletePost(c *gin.Context) {
	err := h.posts.AdminDelete(c.Request.Context(), c.Param("id"), time.Now())
	if errors.Is(err, posts.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if errors.Is(err, posts.ErrPostDeleted) {
		c.JSON(http.StatusGone, gin.H{"error": "Post no longer exists"})
		return
	}
	if err != nil {
		h.logger.Error("failed to delete post: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

func (h *AdminHandler) GetSettings(c *gin.Context) {
	row, err := h.settings.Get(c.Param("event_id"))
	if errors.Is(err, settings.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to get event settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": row})
}

type UpdateSettingsRequest struct {
	RequireApproval         *bool      `json:"require_approval"`
	ApprovalLockAfterDays   *int       `json:"approval_lock_after_days"`
	MaxBlessingLines        *int       `json:"max_blessing_lines"`
	ArchiveAfterDays        *int       `json:"archive_after_days"`
	DeleteAfterHours        *int       `json:"delete_after_hours"`
	VerifyDriveBeforeDelete *bool      `json:"verify_drive_before_delete"`
	StartAt                 *time.Time `json:"start_at"`
}

func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := h.settings.Update(c.Param("event_id"), settings.Update{
		RequireApproval:         req.RequireApproval,
		ApprovalLockAfterDays:   req.ApprovalLockAfterDays,
		MaxBlessingLines:        req.MaxBlessingLines,
		ArchiveAfterDays:        req.ArchiveAfterDays,
		DeleteAfterHours:        req.DeleteAfterHours,
		VerifyDriveBeforeDelete: req.VerifyDriveBeforeDelete,
		StartAt:                 req.StartAt,
	}, time.Now())
	if errors.Is(err, settings.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to update event settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": row})
}

type CreateRuleRequest struct {
	RuleType   string  `json:"rule_type" binding:"required,oneof=block allow"`
	Scope      string  `json:"scope" binding:"required,oneof=event global"`
	EventID    *string `json:"event_id"`
	MatchType  string  `json:"match_type" binding:"required,oneof=exact contains word"`
	Expression string  `json:"expression" binding:"required"`
}

func (h *AdminHandler) CreateRule(c *gin.Context) {
	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if models.RuleScope(req.Scope) == models.RuleScopeEvent && req.EventID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event_id is required for event-scoped rules"})
		return
	}

	rule := &models.ContentRule{
		RuleType:   models.RuleType(req.RuleType),
		Scope:      models.RuleScope(req.Scope),
		EventID:    req.EventID,
		MatchType:  models.MatchType(req.MatchType),
		Expression: req.Expression,
		IsActive:   true,
	}
	if err := h.rules.Create(rule); err != nil {
		h.logger.Error("failed to create content rule: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

func (h *AdminHandler) ListRules(c *gin.Context) {
	ruleset, err := h.rules.List()
	if err != nil {
		h.logger.Error("failed to list content rules: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": ruleset})
}

type SetRuleActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func (h *AdminHandler) SetRuleActive(c *gin.Context) {
	var req SetRuleActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.rules.SetActive(c.Param("id"), *req.IsActive)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to update content rule: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rule updated"})
}
