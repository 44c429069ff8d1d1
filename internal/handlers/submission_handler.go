package handlers

import (
	"errors"
	"net/http"
	"time"

	"giftwall/internal/admission"
	"giftwall/internal/posts"
	"giftwall/internal/settings"
	"giftwall/pkg/logger"
	"giftwall/pkg/models"

	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	posts  *posts.Service
	logger *logger.Logger
}

func NewSubmissionHandler(postsSvc *posts.Service, log *logger.Logger) *SubmissionHandler {
	return &SubmissionHandler{posts: postsSvc, logger: log}
}

type SubmitRequest struct {
	Kind        string `json:"kind" binding:"required,oneof=blessing gallery"`
	AuthorName  string `json:"author_name"`
	Text        string `json:"text"`
	MediaURL    string `json:"media_url"`
	StoragePath string `json:"storage_path"`
	LinkURL     string `json:"link_url"`
	VideoURL    string `json:"video_url"`
}

// Submit handles a guest submission. The device id arrives in the
// X-Device-ID header; it is the client-held token that later scopes
// self-service edit/delete.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	eventID := c.Param("event_id")
	deviceID := c.GetHeader("X-Device-ID")

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.Submit(c.Request.Context(), posts.SubmitInput{
		EventID:     eventID,
		Kind:        models.PostKind(req.Kind),
		AuthorName:  req.AuthorName,
		Text:        req.Text,
		MediaURL:    req.MediaURL,
		StoragePath: req.StoragePath,
		LinkURL:     req.LinkURL,
		VideoURL:    req.VideoURL,
		DeviceID:    deviceID,
	}, time.Now())
	if err != nil {
		h.renderSubmitError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

type EditRequest struct {
	AuthorName *string `json:"author_name"`
	Text       *string `json:"text"`
	LinkURL    *string `json:"link_url"`
}

func (h *SubmissionHandler) Edit(c *gin.Context) {
	postID := c.Param("id")
	deviceID := c.GetHeader("X-Device-ID")

	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.Edit(c.Request.Context(), postID, deviceID, posts.EditInput{
		AuthorName: req.AuthorName,
		Text:       req.Text,
		LinkURL:    req.LinkURL,
	}, time.Now())
	if err != nil {
		h.renderSubmitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (h *SubmissionHandler) Delete(c *gin.Context) {
	postID := c.Param("id")
	deviceID := c.GetHeader("X-Device-ID")

	if err := h.posts.Delete(c.Request.Context(), postID, deviceID, time.Now()); err != nil {
		h.renderSubmitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

func (h *SubmissionHandler) renderSubmitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, posts.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, admission.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many submissions, try again later"})
	case errors.Is(err, posts.ErrContentBlocked):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Submission was rejected"})
	case errors.Is(err, posts.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	case errors.Is(err, posts.ErrPostDeleted):
		c.JSON(http.StatusGone, gin.H{"error": "Post no longer exists"})
	case errors.Is(err, posts.ErrWrongDevice):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed to modify this post"})
	case errors.Is(err, posts.ErrWindowExpired):
		c.JSON(http.StatusForbidden, gin.H{"error": "Edit window has expired"})
	case errors.Is(err, settings.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
	default:
		h.logger.Error("submission request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}
