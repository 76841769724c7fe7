package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/unithreads/backend/internal/repositories"
)

// FeedHandler serves the home timeline
type FeedHandler struct {
	postRepository   repositories.PostRepository
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
	enricher         *PostEnricher
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	followRepo repositories.FollowRepository,
	enricher *PostEnricher,
) *FeedHandler {
	return &FeedHandler{
		postRepository:   postRepo,
		userRepository:   userRepo,
		followRepository: followRepo,
		enricher:         enricher,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// feedItem adds the viewer's follow relation to the enriched post view.
type feedItem struct {
	postView
	IsFollowingCreator bool `json:"is_following_creator"`
}

// GetFeed returns the global timeline of published top-level posts,
// newest first, enriched with creator, media URLs, like/save state and
// whether the viewer follows each creator.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	viewerID := getUserIDFromContext(c)
	ctx := c.Request().Context()
	page, limit := parsePagination(c)
	skip := int64((page - 1) * limit)

	posts, err := h.postRepository.GetFeedPosts(ctx, skip, int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	total, err := h.postRepository.CountFeedPosts(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	views, err := h.enricher.enrich(ctx, viewerID, posts)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	followedCreators := map[uint]bool{}
	if viewerID != 0 {
		ids, err := h.followRepository.GetFollowingIDs(viewerID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		followedCreators = make(map[uint]bool, len(ids))
		for _, id := range ids {
			followedCreators[id] = true
		}
	}

	items := make([]feedItem, len(views))
	for i, v := range views {
		items[i] = feedItem{
			postView:           v,
			IsFollowingCreator: followedCreators[v.UserID],
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"data":       items,
		"pagination": paginationMeta(page, limit, int(total)),
	})
}
