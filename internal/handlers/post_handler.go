package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/unithreads/backend/internal/domain"
	"github.com/unithreads/backend/internal/models"
	"github.com/unithreads/backend/internal/repositories"
	"github.com/unithreads/backend/pkg/logger"
)

// PostHandler handles HTTP requests for posts, comments and replies
type PostHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	enricher       *PostEnricher
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, enricher *PostEnricher) *PostHandler {
	return &PostHandler{postRepository: postRepo, userRepository: userRepo, enricher: enricher}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.GET("/posts/:id/comments", h.GetComments)
	g.GET("/users/:id/posts", h.GetUserPosts)
	g.GET("/users/:id/replies", h.GetUserReplies)
}

// CreatePost creates a post, comment or reply. A future scheduled_for
// timestamp schedules the post instead of publishing it; everything else
// goes live immediately.
func (h *PostHandler) CreatePost(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Content == "" && len(req.MediaRefs) == 0 && req.Poll == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Post must have content, media or a poll")
	}

	ctx := c.Request().Context()
	post := &models.Post{
		UserID:     actor.ID,
		Content:    req.Content,
		WebsiteURL: req.WebsiteURL,
		MediaRefs:  req.MediaRefs,
	}

	if req.ParentPostID != "" {
		parent, err := h.postRepository.GetPostByID(ctx, req.ParentPostID)
		if err != nil {
			return domainHTTPError(err, "Parent post not found")
		}
		if !parent.IsPosted {
			return domainHTTPError(domain.ErrInvalidState, "Cannot comment on an unpublished post")
		}
		post.ParentPostID = &parent.ID
	}
	if req.ParentCommentID != "" {
		parentComment, err := h.postRepository.GetPostByID(ctx, req.ParentCommentID)
		if err != nil {
			return domainHTTPError(err, "Parent comment not found")
		}
		if parentComment.ParentPostID == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "parent_comment_id must reference a comment")
		}
		post.ParentCommentID = &parentComment.ID
		if post.ParentPostID == nil {
			// Derive the thread root from the comment being replied to.
			post.ParentPostID = parentComment.ParentPostID
		}
	}

	if req.Poll != nil {
		post.IsPoll = true
		post.PollQuestion = req.Poll.Question
		post.PollOptions = req.Poll.Options
		post.PollDurationHours = req.Poll.DurationHours
		post.PollMultipleChoice = req.Poll.MultipleChoice
	}

	if req.ScheduledFor > 0 {
		at := time.UnixMilli(req.ScheduledFor)
		if at.After(time.Now()) {
			post.ScheduledFor = &at
			post.IsScheduled = true
		} else {
			post.IsPosted = true
		}
	} else {
		post.IsPosted = true
	}

	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create post")
	}

	// The parent's counter only moves once the comment is visible; the
	// scheduler handles it for scheduled comments at publish time.
	if post.IsPosted && post.ParentPostID != nil {
		if err := h.postRepository.AdjustCommentCount(ctx, post.ParentPostID.Hex(), 1); err != nil {
			logger.Log.Errorf("failed to increment comment count for post %s: %v", post.ParentPostID.Hex(), err)
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": post})
}

// GetPost retrieves a single post enriched for display
func (h *PostHandler) GetPost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return domainHTTPError(err, "Post not found")
	}

	viewerID := getUserIDFromContext(c)
	if !post.IsPosted && post.UserID != viewerID {
		// Drafts and pending scheduled posts are visible to their author only.
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	view, err := h.enricher.enrichOne(ctx, viewerID, post)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": view})
}

// DeletePost deletes a post the caller owns. Deleting a top-level post
// takes its whole comment thread with it; deleting a comment decrements
// the parent's counter.
func (h *PostHandler) DeletePost(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	id := c.Param("id")
	post, err := h.postRepository.GetPostByID(ctx, id)
	if err != nil {
		return domainHTTPError(err, "Post not found")
	}
	if post.UserID != actor.ID {
		return domainHTTPError(domain.ErrAuthorizationDenied, "You can only delete your own posts")
	}

	if post.ParentPostID == nil {
		if _, err := h.postRepository.DeleteByParentPostID(ctx, id); err != nil {
			logger.Log.Errorf("failed to delete comment thread for post %s: %v", id, err)
		}
	}
	if err := h.postRepository.DeletePost(ctx, id); err != nil {
		return domainHTTPError(err, "Failed to delete post")
	}
	if post.ParentPostID != nil && post.IsPosted {
		if err := h.postRepository.AdjustCommentCount(ctx, post.ParentPostID.Hex(), -1); err != nil {
			logger.Log.Errorf("failed to decrement comment count for post %s: %v", post.ParentPostID.Hex(), err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Post deleted"})
}

// commentNode is a comment with its direct replies attached.
type commentNode struct {
	postView
	Replies []postView `json:"replies"`
}

// GetComments returns the two-level comment tree for a post: top-level
// comments newest first, each with its replies oldest first. A reply
// whose parent comment has been deleted is promoted to the top level.
func (h *PostHandler) GetComments(c echo.Context) error {
	ctx := c.Request().Context()
	postID := c.Param("id")
	if _, err := h.postRepository.GetPostByID(ctx, postID); err != nil {
		return domainHTTPError(err, "Post not found")
	}

	comments, err := h.postRepository.GetCommentsByParent(ctx, postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	viewerID := getUserIDFromContext(c)
	views, err := h.enricher.enrich(ctx, viewerID, comments)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	present := make(map[string]bool, len(views))
	for _, v := range views {
		if v.ParentCommentID == nil {
			present[v.ID.Hex()] = true
		}
	}

	var top []commentNode
	repliesByParent := make(map[string][]postView)
	for _, v := range views {
		if v.ParentCommentID != nil && present[v.ParentCommentID.Hex()] {
			key := v.ParentCommentID.Hex()
			repliesByParent[key] = append(repliesByParent[key], v)
		} else {
			top = append(top, commentNode{postView: v})
		}
	}

	for i := range top {
		replies := repliesByParent[top[i].ID.Hex()]
		sort.Slice(replies, func(a, b int) bool {
			return replies[a].CreatedAt.Before(replies[b].CreatedAt)
		})
		if replies == nil {
			replies = []postView{}
		}
		top[i].Replies = replies
	}
	if top == nil {
		top = []commentNode{}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": top})
}

// GetUserPosts lists a user's published top-level posts
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	return h.listUserContent(c, h.postRepository.GetPostsByUserID)
}

// GetUserReplies lists a user's published comments and replies
func (h *PostHandler) GetUserReplies(c echo.Context) error {
	return h.listUserContent(c, h.postRepository.GetRepliesByUserID)
}

func (h *PostHandler) listUserContent(
	c echo.Context,
	fetch func(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, error),
) error {
	targetID, err := parseTargetUserID(c)
	if err != nil {
		return err
	}
	target, err := h.userRepository.GetUserByID(targetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	page, limit := parsePagination(c)
	skip := int64((page - 1) * limit)

	posts, err := fetch(ctx, target.ID, skip, int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	views, err := h.enricher.enrich(ctx, getUserIDFromContext(c), posts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": views})
}
