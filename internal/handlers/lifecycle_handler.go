package handlers

import (
	"net/http"
	"time"

	"giftwall/internal/lifecycle"
	"giftwall/pkg/logger"

	"github.com/gin-gonic/gin"
)

type LifecycleHandler struct {
	lifecycle *lifecycle.Service
	logger    *logger.Logger
}

func NewLifecycleHandler(svc *lifecycle.Service, log *logger.Logger) *LifecycleHandler {
	return &LifecycleHandler{lifecycle: svc, logger: log}
}

// RunLifecycle triggers the archive and delete sweeps. Called by the
// external cron scheduler; the route sits behind CronAuthMiddleware.
func (h *LifecycleHandler) RunLifecycle(c *gin.Context) {
	report, err := h.lifecycle.RunLifecycle(c.Request.Context(), time.Now())
	if err != nil {
		h.logger.Error("lifecycle sweep failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sweep failed", "report": report})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// RunDriveSync triggers the off-site backup sweep for media items that
// have no backup copy yet.
func (h *LifecycleHandler) RunDriveSync(c *gin.Context) {
	report, err := h.lifecycle.RunDriveSync(c.Request.Context(), time.Now())
	if err != nil {
		h.logger.Error("drive sync sweep failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sweep failed", "report": report})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}
