package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/unithreads/backend/internal/domain"
	"github.com/unithreads/backend/internal/models"
	"github.com/unithreads/backend/internal/repositories"
	"github.com/unithreads/backend/pkg/logger"
)

// LikeHandler handles like toggles
type LikeHandler struct {
	likeRepository         repositories.LikeRepository
	postRepository         repositories.PostRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(
	likeRepo repositories.LikeRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
) *LikeHandler {
	return &LikeHandler{
		likeRepository:         likeRepo,
		postRepository:         postRepo,
		userRepository:         userRepo,
		notificationRepository: notificationRepo,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.ToggleLike)
}

// ToggleLike likes the post if the caller has not liked it, otherwise
// removes the like. The post's counter moves atomically in the store and
// never drops below zero.
func (h *LikeHandler) ToggleLike(c echo.Context) error {
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
		return domainHTTPError(domain.ErrInvalidState, "Cannot like an unpublished post")
	}

	_, err = h.likeRepository.GetLike(actor.ID, postID)
	switch {
	case err == nil:
		if err := h.likeRepository.DeleteLike(actor.ID, postID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if err := h.postRepository.AdjustLikeCount(ctx, postID, -1); err != nil {
			logger.Log.Errorf("failed to decrement like count for post %s: %v", postID, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"action": "unlike"}})

	case errors.Is(err, domain.ErrNotFound):
		like := &models.Like{UserID: actor.ID, PostID: postID}
		if err := h.likeRepository.CreateLike(like); err != nil {
			// Covers the unique-index violation when two identical likes
			// race; the caller retries and lands on the unlike path.
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to like post")
		}
		if err := h.postRepository.AdjustLikeCount(ctx, postID, 1); err != nil {
			logger.Log.Errorf("failed to increment like count for post %s: %v", postID, err)
		}
		if post.UserID != actor.ID {
			n := &models.Notification{
				Type:        "like",
				ActorID:     actor.ID,
				RecipientID: post.UserID,
				TargetID:    postID,
				TargetType:  "post",
				Message:     fmt.Sprintf("%s %s liked your post", actor.FirstName, actor.LastName),
			}
			if err := h.notificationRepository.CreateNotification(n); err != nil {
				logger.Log.Errorf("failed to create like notification: %v", err)
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"action": "like"}})

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
