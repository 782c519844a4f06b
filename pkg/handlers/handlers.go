package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"video-portal/pkg/auth"
	"video-portal/pkg/database"
	"video-portal/pkg/models"
	"video-portal/pkg/s3"
)

// ObjectStore holds the uploaded video files.
type ObjectStore interface {
	EnsureContainer(ctx context.Context)
	Store(ctx context.Context, name string, body io.Reader, contentType string) (string, error)
	DeleteIfExists(ctx context.Context, name string) error
}

// IdentityResolver reports the platform principal behind a request.
type IdentityResolver interface {
	Principal(ctx context.Context, r *http.Request) (*auth.Principal, error)
}

type Deps struct {
	Videos   database.Collection[models.Video]
	Comments database.Collection[models.Comment]
	Users    database.Collection[models.User]
	Objects  ObjectStore
	Identity IdentityResolver

	MaxUploadBytes int64
	JWTSecret      string
	Now            func() time.Time
}

type Handler struct {
	videos   database.Collection[models.Video]
	comments database.Collection[models.Comment]
	users    database.Collection[models.User]
	objects  ObjectStore
	identity IdentityResolver

	maxUpload int64
	jwtSecret string
	now       func() time.Time
}

func New(d Deps) *Handler {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		videos:    d.Videos,
		comments:  d.Comments,
		users:     d.Users,
		objects:   d.Objects,
		identity:  d.Identity,
		maxUpload: d.MaxUploadBytes,
		jwtSecret: d.JWTSecret,
		now:       now,
	}
}

var (
	newestFirst = database.Sort{Field: models.FieldCreatedAt, Desc: true}
	oldestFirst = database.Sort{Field: models.FieldCreatedAt}
)

func Health(c *gin.Context) {
	c.String(http.StatusOK, "Video API is running")
}

func (h *Handler) ListVideos(c *gin.Context) {
	videos, err := h.videos.ListAll(c.Request.Context(), newestFirst)
	if err != nil {
		log.Printf("Failed to list videos: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch videos"})
		return
	}
	c.JSON(http.StatusOK, videos)
}

func (h *Handler) ListVideosByUser(c *gin.Context) {
	userID := c.Param("userId")
	videos, err := h.videos.ListFiltered(c.Request.Context(), models.FieldUserID, userID, newestFirst)
	if err != nil {
		log.Printf("Failed to list videos of user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user videos"})
		return
	}
	c.JSON(http.StatusOK, videos)
}

// GetVideo returns the video after counting the view.
func (h *Handler) GetVideo(c *gin.Context) {
	id := c.Param("id")
	video, err := h.videos.Increment(c.Request.Context(), id, models.FieldViews, 1)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}
	if err != nil {
		log.Printf("Failed to fetch video %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch video"})
		return
	}
	c.JSON(http.StatusOK, video)
}

type uploadForm struct {
	Title       string                `form:"title" binding:"required"`
	Description string                `form:"description"`
	UserID      string                `form:"userId" binding:"required"`
	File        *multipart.FileHeader `form:"file" binding:"required"`
}

func (h *Handler) Upload(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}

	// Binding parses the whole multipart body, so size errors surface here.
	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Video file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, userId and file are required"})
		return
	}
	title := strings.TrimSpace(form.Title)
	userID := strings.TrimSpace(form.UserID)
	if title == "" || userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title, userId and file are required"})
		return
	}
	file := form.File

	src, err := file.Open()
	if err != nil {
		log.Printf("Failed to open uploaded file: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload video"})
		return
	}
	defer src.Close()

	ctx := c.Request.Context()
	h.objects.EnsureContainer(ctx)

	now := h.now()
	name := s3.ObjectName(file.Filename, now)
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.objects.Store(ctx, name, src, contentType)
	if err != nil {
		log.Printf("Failed to store %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload video"})
		return
	}

	video := models.Video{
		ID:          uuid.New().String(),
		Title:       title,
		Description: form.Description,
		UserID:      userID,
		VideoURL:    url,
		BlobName:    name,
		CreatedAt:   models.Timestamp(now),
		Views:       0,
	}
	if err := h.videos.Create(ctx, &video); err != nil {
		log.Printf("Failed to save video %s: %v", video.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload video"})
		return
	}

	c.JSON(http.StatusCreated, video)
}

// DeleteVideo removes the video's comments, its stored file and finally the
// video document, stopping at the first step that fails.
func (h *Handler) DeleteVideo(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	video, err := h.videos.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}
	if err != nil {
		log.Printf("Failed to fetch video %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete video"})
		return
	}

	err = runSaga(ctx, []step{
		{name: "comments", run: func(ctx context.Context) error { return h.deleteComments(ctx, id) }},
		{name: "object", run: func(ctx context.Context) error { return h.deleteObject(ctx, video) }},
		{name: "video", run: func(ctx context.Context) error { return ignoreNotFound(h.videos.Delete(ctx, id)) }},
	})
	var sagaErr *SagaError
	if errors.As(err, &sagaErr) {
		log.Printf("Failed to delete video %s at step %s (completed %v): %v", id, sagaErr.Failed, sagaErr.Completed, sagaErr.Err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to delete video",
			"completed": sagaErr.Completed,
			"failed":    sagaErr.Failed,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}

func (h *Handler) deleteComments(ctx context.Context, videoID string) error {
	comments, err := h.comments.ListFiltered(ctx, models.FieldVideoID, videoID, oldestFirst)
	if err != nil {
		return err
	}
	for _, cm := range comments {
		if err := ignoreNotFound(h.comments.Delete(ctx, cm.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) deleteObject(ctx context.Context, video *models.Video) error {
	name := video.BlobName
	if name == "" {
		var err error
		if name, err = s3.NameFromURL(video.VideoURL); err != nil {
			return err
		}
	}
	return h.objects.DeleteIfExists(ctx, name)
}

func ignoreNotFound(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	return err
}
