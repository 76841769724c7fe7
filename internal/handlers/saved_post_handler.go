package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/unithreads/backend/internal/domain"
	"github.com/unithreads/backend/internal/models"
	"github.com/unithreads/backend/internal/repositories"
	"github.com/unithreads/backend/pkg/logger"
)

// SavedPostHandler handles bookmarks
type SavedPostHandler struct {
	savedPostRepository repositories.SavedPostRepository
	postRepository      repositories.PostRepository
	userRepository      repositories.UserRepository
	enricher            *PostEnricher
}

// NewSavedPostHandler creates a new SavedPostHandler
func NewSavedPostHandler(
	savedRepo repositories.SavedPostRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	enricher *PostEnricher,
) *SavedPostHandler {
	return &SavedPostHandler{
		savedPostRepository: savedRepo,
		postRepository:      postRepo,
		userRepository:      userRepo,
		enricher:            enricher,
	}
}

// RegisterSavedPostRoutes registers saved post routes
func (h *SavedPostHandler) RegisterSavedPostRoutes(g *echo.Group) {
	g.POST("/posts/:id/save", h.ToggleSave)
	g.GET("/saved-posts", h.GetSavedPosts)
	g.POST("/saved-posts/status", h.GetSavedStatus)
}

// ToggleSave bookmarks the post or removes the bookmark
func (h *SavedPostHandler) ToggleSave(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	postID := c.Param("id")
	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return domainHTTPError(err, "Post not found")
	}
	if !post.IsPosted {
		return domainHTTPError(domain.ErrInvalidState, "Cannot save an unpublished post")
	}

	_, err = h.savedPostRepository.GetSavedPost(actor.ID, postID)
	switch {
	case err == nil:
		if err := h.savedPostRepository.UnsavePost(actor.ID, postID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"saved": false}})

	case errors.Is(err, domain.ErrNotFound):
		saved := &models.SavedPost{UserID: actor.ID, PostID: postID}
		if err := h.savedPostRepository.SavePost(saved); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save post")
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"saved": true}})

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// GetSavedPosts lists the caller's bookmarked posts, most recently saved
// first. A bookmark whose post has since been deleted is skipped.
func (h *SavedPostHandler) GetSavedPosts(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	page, limit := parsePagination(c)
	skip := (page - 1) * limit

	saved, err := h.savedPostRepository.GetSavedPostsByUser(actor.ID, skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	posts := make([]models.Post, 0, len(saved))
	for _, s := range saved {
		post, err := h.postRepository.GetPostByID(ctx, s.PostID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) {
				continue
			}
			logger.Log.Errorf("failed to load saved post %s: %v", s.PostID, err)
			continue
		}
		if !post.IsPosted {
			continue
		}
		posts = append(posts, *post)
	}

	views, err := h.enricher.enrich(ctx, actor.ID, posts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": views})
}

type savedStatusRequest struct {
	PostIDs []string `json:"post_ids" validate:"required,max=100"`
}

// GetSavedStatus reports, for a batch of post IDs, which ones the caller
// has bookmarked
func (h *SavedPostHandler) GetSavedStatus(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}

	var req savedStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	status, err := h.savedPostRepository.GetSavedPostIDs(actor.ID, req.PostIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	// Absent keys mean not saved; return an explicit entry per requested ID.
	out := make(map[string]bool, len(req.PostIDs))
	for _, id := range req.PostIDs {
		out[id] = status[id]
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": out})
}
