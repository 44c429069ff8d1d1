package handlers

import (
	"errors"
	"net/http"

	"giftwall/internal/reactions"
	"giftwall/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ReactionHandler struct {
	reactions *reactions.Service
	logger    *logger.Logger
}

func NewReactionHandler(svc *reactions.Service, log *logger.Logger) *ReactionHandler {
	return &ReactionHandler{reactions: svc, logger: log}
}

type ToggleRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

func (h *ReactionHandler) Toggle(c *gin.Context) {
	postID := c.Param("id")
	deviceID := c.GetHeader("X-Device-ID")

	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tally, err := h.reactions.Toggle(c.Request.Context(), postID, deviceID, req.Emoji)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, tally)
}

func (h *ReactionHandler) Get(c *gin.Context) {
	postID := c.Param("id")
	deviceID := c.GetHeader("X-Device-ID")

	tally, err := h.reactions.Get(c.Request.Context(), postID, deviceID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, tally)
}

func (h *ReactionHandler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reactions.ErrInvalidEmoji):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported emoji"})
	case errors.Is(err, reactions.ErrDeviceMissing):
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Device-ID header is required"})
	case errors.Is(err, reactions.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	default:
		h.logger.Error("reaction request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}
