package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/unithreads/backend/internal/domain"
	"github.com/unithreads/backend/internal/repositories"
	"github.com/unithreads/backend/internal/scheduler"
	"github.com/unithreads/backend/pkg/logger"
)

// ScheduledPostHandler manages pending scheduled posts and exposes the
// sweep endpoint the external cron timer calls.
type ScheduledPostHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	publisher      *scheduler.Publisher
}

// NewScheduledPostHandler creates a new ScheduledPostHandler
func NewScheduledPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, publisher *scheduler.Publisher) *ScheduledPostHandler {
	return &ScheduledPostHandler{postRepository: postRepo, userRepository: userRepo, publisher: publisher}
}

// RegisterScheduledRoutes registers scheduled post routes
func (h *ScheduledPostHandler) RegisterScheduledRoutes(g *echo.Group) {
	g.GET("/scheduled-posts", h.GetScheduledPosts)
	g.DELETE("/scheduled-posts/:id", h.DeleteScheduledPost)
}

// RegisterInternalRoutes registers the sweep endpoint for the cron timer
func (h *ScheduledPostHandler) RegisterInternalRoutes(e *echo.Echo) {
	e.POST("/internal/process-scheduled", h.ProcessScheduled)
}

// GetScheduledPosts lists the caller's pending scheduled posts, soonest
// first
func (h *ScheduledPostHandler) GetScheduledPosts(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}
	page, limit := parsePagination(c)
	skip := int64((page - 1) * limit)

	posts, err := h.postRepository.GetScheduledByUser(c.Request().Context(), actor.ID, skip, int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": posts})
}

// DeleteScheduledPost cancels a scheduled post before it goes live. A
// post that already published cannot be cancelled here.
func (h *ScheduledPostHandler) DeleteScheduledPost(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	id := c.Param("id")
	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return domainHTTPError(err, "Scheduled post not found")
	}
	if post.UserID != actor.ID {
		return domainHTTPError(domain.ErrAuthorizationDenied, "You can only cancel your own scheduled posts")
	}
	if !post.IsScheduled || post.IsPosted {
		return domainHTTPError(domain.ErrInvalidState, "Post is not pending publication")
	}

	if err := h.postRepository.DeletePost(ctx, id); err != nil {
		return domainHTTPError(err, "Failed to delete scheduled post")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Scheduled post cancelled"})
}

// ProcessScheduled runs one sweep over due scheduled posts. Called by an
// external timer; safe to invoke concurrently.
func (h *ScheduledPostHandler) ProcessScheduled(c echo.Context) error {
	res, err := h.publisher.ProcessScheduledPosts(c.Request().Context())
	if err != nil {
		logger.Log.Errorf("scheduled post sweep failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "published": res.Published, "skipped": res.Skipped})
}
