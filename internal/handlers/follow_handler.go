package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/unithreads/backend/internal/domain"
	"github.com/unithreads/backend/internal/models"
	"github.com/unithreads/backend/internal/repositories"
	"github.com/unithreads/backend/pkg/logger"
)

// FollowHandler handles HTTP requests for the social graph
type FollowHandler struct {
	followRepository        repositories.FollowRepository
	followRequestRepository repositories.FollowRequestRepository
	userRepository          repositories.UserRepository
	notificationRepository  repositories.NotificationRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(
	followRepo repositories.FollowRepository,
	followRequestRepo repositories.FollowRequestRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
) *FollowHandler {
	return &FollowHandler{
		followRepository:        followRepo,
		followRequestRepository: followRequestRepo,
		userRepository:          userRepo,
		notificationRepository:  notificationRepo,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.DELETE("/users/:id/follow-request", h.CancelFollowRequest)
	g.GET("/users/:id/follow-status", h.GetFollowStatus)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

func parseTargetUserID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	return uint(id), nil
}

// FollowUser follows a public account directly or files a follow request
// for a private one. Repeating an already-satisfied follow succeeds
// without side effects.
func (h *FollowHandler) FollowUser(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}
	targetID, err := parseTargetUserID(c)
	if err != nil {
		return err
	}
	if targetID == actor.ID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	target, err := h.userRepository.GetUserByID(targetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	following, err := h.followRepository.IsFollowing(actor.ID, targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if following {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"status": "following"}})
	}

	if target.IsPrivate {
		// Private account: the edge only appears once the target accepts.
		if _, err := h.followRequestRepository.GetPendingBySenderReceiver(actor.ID, targetID); err == nil {
			return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"status": "requested"}})
		} else if !errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		req := &models.FollowRequest{SenderID: actor.ID, ReceiverID: targetID}
		if err := h.followRequestRepository.Create(req); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create follow request")
		}
		h.notify("follow_request", actor, targetID,
			fmt.Sprintf("%s %s requested to follow you", actor.FirstName, actor.LastName))
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"status": "requested"}})
	}

	follow := &models.Follow{FollowerID: actor.ID, FollowingID: targetID}
	if err := h.followRepository.CreateFollow(follow); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to follow user")
	}
	if err := h.userRepository.IncrementFollowersCount(targetID); err != nil {
		logger.Log.Errorf("failed to increment followers count for user %d: %v", targetID, err)
	}
	h.notify("follow", actor, targetID,
		fmt.Sprintf("%s %s started following you", actor.FirstName, actor.LastName))

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"status": "following"}})
}

// UnfollowUser removes the follow edge, or withdraws a pending follow
// request when no edge exists yet. Succeeds even when neither exists.
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}
	targetID, err := parseTargetUserID(c)
	if err != nil {
		return err
	}
	if targetID == actor.ID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot unfollow yourself")
	}

	err = h.followRepository.DeleteFollow(actor.ID, targetID)
	switch {
	case err == nil:
		if err := h.userRepository.DecrementFollowersCount(targetID); err != nil {
			logger.Log.Errorf("failed to decrement followers count for user %d: %v", targetID, err)
		}
	case errors.Is(err, domain.ErrNotFound):
		// No edge; withdraw any pending request instead.
		if _, err := h.followRequestRepository.DeletePendingBySenderReceiver(actor.ID, targetID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"status": "not_following"}})
}

// CancelFollowRequest withdraws the caller's pending request to a private
// account. Succeeds even when there is no request to withdraw.
func (h *FollowHandler) CancelFollowRequest(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}
	targetID, err := parseTargetUserID(c)
	if err != nil {
		return err
	}

	withdrawn, err := h.followRequestRepository.DeletePendingBySenderReceiver(actor.ID, targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"withdrawn": withdrawn}})
}

// GetFollowStatus reports the relationship between the caller and a user
// together with edge-derived follower/following counts.
func (h *FollowHandler) GetFollowStatus(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}
	targetID, err := parseTargetUserID(c)
	if err != nil {
		return err
	}

	followersCount, err := h.followRepository.GetFollowersCount(targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	followingCount, err := h.followRepository.GetFollowingCount(targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	status := "not_following"
	if targetID != actor.ID {
		following, err := h.followRepository.IsFollowing(actor.ID, targetID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if following {
			status = "following"
		} else if _, err := h.followRequestRepository.GetPendingBySenderReceiver(actor.ID, targetID); err == nil {
			status = "requested"
		} else if !errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"status":         status,
		"followersCount": followersCount,
		"followingCount": followingCount,
	}})
}

// GetFollowers lists the users following the given user
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	targetID, err := parseTargetUserID(c)
	if err != nil {
		return err
	}
	users, err := h.followRepository.GetFollowers(targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": compactUsers(users)})
}

// GetFollowing lists the users the given user follows
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	targetID, err := parseTargetUserID(c)
	if err != nil {
		return err
	}
	users, err := h.followRepository.GetFollowing(targetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": compactUsers(users)})
}

func compactUsers(users []models.User) []models.UserCompact {
	out := make([]models.UserCompact, len(users))
	for i, u := range users {
		out[i] = u.ToCompact()
	}
	return out
}

// notify records a notification; delivery failures are logged, never
// surfaced to the caller.
func (h *FollowHandler) notify(kind string, actor *models.User, recipientID uint, message string) {
	n := &models.Notification{
		Type:        kind,
		ActorID:     actor.ID,
		RecipientID: recipientID,
		Message:     message,
	}
	if err := h.notificationRepository.CreateNotification(n); err != nil {
		logger.Log.Errorf("failed to create %s notification: %v", kind, err)
	}
}
