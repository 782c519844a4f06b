package handlers

import (
	"github.com/gin-gonic/gin"

	"video-portal/pkg/auth"
)

func (h *Handler) Routes(r *gin.Engine) {
	r.GET("/", Health)

	api := r.Group("/api", auth.CallerIdentity(h.jwtSecret))
	{
		api.GET("/videos", h.ListVideos)
		api.POST("/videos", h.Upload)
		api.GET("/videos/:id", h.GetVideo)
		api.DELETE("/videos/:id", h.DeleteVideo)

		api.GET("/videos/:id/comments", h.ListComments)
		api.POST("/videos/:id/comments", h.AddComment)
		api.DELETE("/videos/:id/comments/:commentId", h.DeleteComment)

		api.GET("/users/:userId/videos", h.ListVideosByUser)
		api.GET("/auth/me", h.CurrentUser)
	}
}
