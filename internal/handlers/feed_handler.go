package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"giftwall/internal/posts"
	"giftwall/pkg/logger"
	"giftwall/pkg/models"

	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	posts  *posts.Service
	logger *logger.Logger
}

func NewFeedHandler(postsSvc *posts.Service, log *logger.Logger) *FeedHandler {
	return &FeedHandler{posts: postsSvc, logger: log}
}

// Blessings returns the approved blessing feed for an event, newest first.
func (h *FeedHandler) Blessings(c *gin.Context) {
	h.listApproved(c, models.KindBlessing)
}

// Gallery returns the approved gallery feed for an event, newest first.
func (h *FeedHandler) Gallery(c *gin.Context) {
	h.listApproved(c, models.KindGallery)
}

func (h *FeedHandler) listApproved(c *gin.Context, kind models.PostKind) {
	eventID := c.Param("event_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	items, err := h.posts.ListApproved(eventID, kind, limit, offset)
	if err != nil {
		h.logger.Error("failed to list %s feed for event %s: %v", kind, eventID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":  items,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *FeedHandler) GetPost(c *gin.Context) {
	post, err := h.posts.GetByID(c.Param("id"))
	if errors.Is(err, posts.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to get post: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}
	if post.Status != models.StatusApproved {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}
