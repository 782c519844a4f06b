package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"video-portal/pkg/auth"
	"video-portal/pkg/database"
	"video-portal/pkg/models"
)

type addCommentRequest struct {
	UserID   string `json:"userId" binding:"required"`
	UserName string `json:"userName"`
	Text     string `json:"text" binding:"required"`
}

func (h *Handler) ListComments(c *gin.Context) {
	videoID := c.Param("id")
	comments, err := h.comments.ListFiltered(c.Request.Context(), models.FieldVideoID, videoID, oldestFirst)
	if err != nil {
		log.Printf("Failed to list comments of video %s: %v", videoID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (h *Handler) AddComment(c *gin.Context) {
	videoID := c.Param("id")

	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and text are required"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.videos.Get(ctx, videoID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
			return
		}
		log.Printf("Failed to fetch video %s: %v", videoID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	name := strings.TrimSpace(req.UserName)
	if name == "" {
		name = req.UserID
	}
	comment := models.Comment{
		ID:        uuid.New().String(),
		VideoID:   videoID,
		UserID:    req.UserID,
		UserName:  name,
		Text:      req.Text,
		CreatedAt: models.Timestamp(h.now()),
	}
	if err := h.comments.Create(ctx, &comment); err != nil {
		log.Printf("Failed to save comment on video %s: %v", videoID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// DeleteComment lets the author remove their own comment.
func (h *Handler) DeleteComment(c *gin.Context) {
	callerID, err := auth.RequireCaller(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User identity required"})
		return
	}

	videoID, commentID := c.Param("id"), c.Param("commentId")
	ctx := c.Request.Context()

	comment, err := h.comments.Get(ctx, commentID)
	if errors.Is(err, database.ErrNotFound) || (err == nil && comment.VideoID != videoID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return
	}
	if err != nil {
		log.Printf("Failed to fetch comment %s: %v", commentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}
	if comment.UserID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own comments"})
		return
	}

	if err := h.comments.Delete(ctx, commentID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
			return
		}
		log.Printf("Failed to delete comment %s: %v", commentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
