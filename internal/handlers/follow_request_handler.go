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

// FollowRequestHandler handles the approval queue for private accounts
type FollowRequestHandler struct {
	followRequestRepository repositories.FollowRequestRepository
	followRepository        repositories.FollowRepository
	userRepository          repositories.UserRepository
	notificationRepository  repositories.NotificationRepository
}

// NewFollowRequestHandler creates a new FollowRequestHandler
func NewFollowRequestHandler(
	followRequestRepo repositories.FollowRequestRepository,
	followRepo repositories.FollowRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
) *FollowRequestHandler {
	return &FollowRequestHandler{
		followRequestRepository: followRequestRepo,
		followRepository:        followRepo,
		userRepository:          userRepo,
		notificationRepository:  notificationRepo,
	}
}

// RegisterFollowRequestRoutes registers follow request routes
func (h *FollowRequestHandler) RegisterFollowRequestRoutes(g *echo.Group) {
	g.GET("/follow-requests", h.GetPendingRequests)
	g.POST("/follow-requests/:id/accept", h.AcceptRequest)
	g.POST("/follow-requests/:id/reject", h.RejectRequest)
}

// GetPendingRequests lists pending requests addressed to the caller,
// newest first, with the sender's compact profile attached.
func (h *FollowRequestHandler) GetPendingRequests(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}

	requests, err := h.followRequestRepository.GetPendingForReceiver(actor.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	senderIDs := make([]uint, 0, len(requests))
	for _, req := range requests {
		senderIDs = append(senderIDs, req.SenderID)
	}
	senders, err := h.userRepository.GetUsersByIDs(senderIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	senderByID := make(map[uint]models.User, len(senders))
	for _, s := range senders {
		senderByID[s.ID] = s
	}

	views := make([]models.FollowRequestView, 0, len(requests))
	for _, req := range requests {
		sender, ok := senderByID[req.SenderID]
		if !ok {
			continue // sender row gone; skip the orphaned request
		}
		views = append(views, models.FollowRequestView{
			ID:        req.ID,
			Sender:    sender.ToCompact(),
			CreatedAt: req.CreatedAt.UnixMilli(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": views})
}

// AcceptRequest accepts a pending follow request: only the receiver may
// accept, only while pending, and acceptance creates the follow edge.
func (h *FollowRequestHandler) AcceptRequest(c echo.Context) error {
	actor, req, httpErr := h.resolveOwnPendingRequest(c)
	if httpErr != nil {
		return httpErr
	}

	// The edge may already exist: the account could have gone public and
	// been followed while the request sat pending. Acceptance then just
	// resolves the request.
	following, err := h.followRepository.IsFollowing(req.SenderID, req.ReceiverID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !following {
		follow := &models.Follow{FollowerID: req.SenderID, FollowingID: req.ReceiverID}
		if err := h.followRepository.CreateFollow(follow); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create follow")
		}
		if err := h.userRepository.IncrementFollowersCount(req.ReceiverID); err != nil {
			logger.Log.Errorf("failed to increment followers count for user %d: %v", req.ReceiverID, err)
		}
	}
	if err := h.followRequestRepository.UpdateStatus(req.ID, models.FollowRequestAccepted); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update request status")
	}

	n := &models.Notification{
		Type:        "follow_accepted",
		ActorID:     actor.ID,
		RecipientID: req.SenderID,
		Message:     fmt.Sprintf("%s %s accepted your follow request", actor.FirstName, actor.LastName),
	}
	if err := h.notificationRepository.CreateNotification(n); err != nil {
		logger.Log.Errorf("failed to create follow_accepted notification: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"status": models.FollowRequestAccepted}})
}

// RejectRequest rejects a pending follow request. Terminal: a rejected
// request cannot be accepted later; the sender must ask again.
func (h *FollowRequestHandler) RejectRequest(c echo.Context) error {
	_, req, httpErr := h.resolveOwnPendingRequest(c)
	if httpErr != nil {
		return httpErr
	}

	if err := h.followRequestRepository.UpdateStatus(req.ID, models.FollowRequestRejected); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update request status")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"status": models.FollowRequestRejected}})
}

// resolveOwnPendingRequest loads the request, checks the caller is the
// receiver and the request is still pending.
func (h *FollowRequestHandler) resolveOwnPendingRequest(c echo.Context) (*models.User, *models.FollowRequest, *echo.HTTPError) {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return nil, nil, httpErr
		}
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	id, perr := strconv.ParseUint(c.Param("id"), 10, 32)
	if perr != nil || id == 0 {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid request ID")
	}

	req, err := h.followRequestRepository.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, echo.NewHTTPError(http.StatusNotFound, "Follow request not found")
		}
		return nil, nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if req.ReceiverID != actor.ID {
		return nil, nil, domainHTTPError(domain.ErrAuthorizationDenied, "Only the request's receiver may respond to it")
	}
	if req.Status != models.FollowRequestPending {
		return nil, nil, domainHTTPError(domain.ErrInvalidState, "Follow request already resolved")
	}
	return actor, req, nil
}
