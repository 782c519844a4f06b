package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"video-portal/pkg/auth"
	"video-portal/pkg/database"
	"video-portal/pkg/models"
)

// CurrentUser resolves the caller through the identity endpoint and returns
// their user record, provisioning it on first sight.
func (h *Handler) CurrentUser(c *gin.Context) {
	ctx := c.Request.Context()
	principal, err := h.identity.Principal(ctx, c.Request)
	if err != nil {
		log.Printf("Failed to resolve principal: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve current user"})
		return
	}

	user, err := h.getOrCreateUser(ctx, principal)
	if err != nil {
		log.Printf("Failed to load user for %s/%s: %v", principal.Provider, principal.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve current user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// getOrCreateUser relies on insert-if-absent: when two first requests race,
// the loser re-reads the winner's record.
func (h *Handler) getOrCreateUser(ctx context.Context, p *auth.Principal) (*models.User, error) {
	id := auth.StableUserID(p)
	user, err := h.users.Get(ctx, id)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	fresh := auth.NewUser(p, models.Timestamp(h.now()))
	created, err := h.users.CreateIfAbsent(ctx, fresh)
	if err != nil {
		return nil, err
	}
	if created {
		return fresh, nil
	}
	return h.users.Get(ctx, id)
}
