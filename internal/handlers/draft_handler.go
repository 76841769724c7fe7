package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/unithreads/backend/internal/domain"
	"github.com/unithreads/backend/internal/models"
	"github.com/unithreads/backend/internal/repositories"
	"github.com/unithreads/backend/pkg/logger"
)

// DraftHandler handles draft posts
type DraftHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
}

// NewDraftHandler creates a new DraftHandler
func NewDraftHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository) *DraftHandler {
	return &DraftHandler{postRepository: postRepo, userRepository: userRepo}
}

// RegisterDraftRoutes registers draft-related routes
func (h *DraftHandler) RegisterDraftRoutes(g *echo.Group) {
	g.POST("/drafts", h.SaveDraft)
	g.GET("/drafts", h.GetDrafts)
	g.POST("/drafts/:id/publish", h.PublishDraft)
	g.DELETE("/drafts/:id", h.DeleteDraft)
}

// SaveDraft upserts a draft. With draft_id it patches the existing draft
// in place so repeated saves never pile up duplicates; without it a new
// draft is inserted.
func (h *DraftHandler) SaveDraft(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}

	var req models.SaveDraftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Content == "" && len(req.MediaRefs) == 0 && req.Poll == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Draft must have content, media or a poll")
	}

	ctx := c.Request().Context()
	draft := &models.Post{
		UserID:     actor.ID,
		Content:    req.Content,
		WebsiteURL: req.WebsiteURL,
		MediaRefs:  req.MediaRefs,
		IsDraft:    true,
	}
	if req.Poll != nil {
		draft.IsPoll = true
		draft.PollQuestion = req.Poll.Question
		draft.PollOptions = req.Poll.Options
		draft.PollDurationHours = req.Poll.DurationHours
		draft.PollMultipleChoice = req.Poll.MultipleChoice
	}

	if req.DraftID != "" {
		existing, err := h.postRepository.GetPostByID(ctx, req.DraftID)
		if err != nil {
			return domainHTTPError(err, "Draft not found")
		}
		if existing.UserID != actor.ID {
			return domainHTTPError(domain.ErrAuthorizationDenied, "You can only edit your own drafts")
		}
		if !existing.IsDraft {
			return domainHTTPError(domain.ErrInvalidState, "Post is no longer a draft")
		}
		if err := h.postRepository.UpdateDraft(ctx, req.DraftID, draft); err != nil {
			return domainHTTPError(err, "Failed to update draft")
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"draft_id": req.DraftID}})
	}

	if req.ParentPostID != "" {
		parent, err := h.postRepository.GetPostByID(ctx, req.ParentPostID)
		if err != nil {
			return domainHTTPError(err, "Parent post not found")
		}
		draft.ParentPostID = &parent.ID
	}

	if err := h.postRepository.CreatePost(ctx, draft); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save draft")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"draft_id": draft.ID.Hex()}})
}

// GetDrafts lists the caller's drafts, newest first
func (h *DraftHandler) GetDrafts(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}
	page, limit := parsePagination(c)
	skip := int64((page - 1) * limit)

	drafts, err := h.postRepository.GetDraftsByUser(c.Request().Context(), actor.ID, skip, int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": drafts})
}

// PublishDraft flips a draft to a live post. The compare-and-set in the
// store means a doubly-submitted publish reports success exactly once.
func (h *DraftHandler) PublishDraft(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	id := c.Param("id")
	draft, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return domainHTTPError(err, "Draft not found")
	}
	if draft.UserID != actor.ID {
		return domainHTTPError(domain.ErrAuthorizationDenied, "You can only publish your own drafts")
	}
	if !draft.IsDraft {
		return domainHTTPError(domain.ErrInvalidState, "Post is not a draft")
	}

	published, err := h.postRepository.PublishDraft(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to publish draft")
	}
	if published && draft.ParentPostID != nil {
		if err := h.postRepository.AdjustCommentCount(ctx, draft.ParentPostID.Hex(), 1); err != nil {
			logger.Log.Errorf("failed to increment comment count for post %s: %v", draft.ParentPostID.Hex(), err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"published": published, "post_id": id}})
}

// DeleteDraft deletes a draft the caller owns
func (h *DraftHandler) DeleteDraft(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	id := c.Param("id")
	draft, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return domainHTTPError(err, "Draft not found")
	}
	if draft.UserID != actor.ID {
		return domainHTTPError(domain.ErrAuthorizationDenied, "You can only delete your own drafts")
	}
	if !draft.IsDraft {
		return domainHTTPError(domain.ErrInvalidState, "Post is not a draft")
	}

	if err := h.postRepository.DeletePost(ctx, id); err != nil {
		return domainHTTPError(err, "Failed to delete draft")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Draft deleted"})
}
