package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/unithreads/backend/internal/domain"
	"github.com/unithreads/backend/internal/models"
	"github.com/unithreads/backend/internal/repositories"
	"github.com/unithreads/backend/pkg/storage"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
	mediaResolver  storage.Resolver
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, resolver storage.Resolver) *UserHandler {
	return &UserHandler{userRepository: userRepo, mediaResolver: resolver}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/users/:id", h.GetUser)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/recommended", h.GetRecommendedUsers)
	g.POST("/media/upload-url", h.GenerateUploadURL)
}

// profileView is a user with the avatar reference resolved for display.
type profileView struct {
	models.User
	ImageURL string `json:"image_url,omitempty"`
}

func (h *UserHandler) toProfileView(c echo.Context, user *models.User) profileView {
	view := profileView{User: *user}
	if user.ImageRef != "" {
		if url, err := storage.ResolveRef(c.Request().Context(), h.mediaResolver, user.ImageRef); err == nil {
			view.ImageURL = url
		}
	}
	return view
}

// GetUser retrieves another user's profile by internal ID
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	user, err := h.userRepository.GetUserByID(uint(id))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": h.toProfileView(c, user)})
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": h.toProfileView(c, user)})
}

// UpdateProfile patches the authenticated user's profile fields. Username
// uniqueness is deliberately not enforced; it is a display/search key.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	user, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Username != nil {
		user.Username = req.Username
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.WebsiteURL != nil {
		user.WebsiteURL = *req.WebsiteURL
	}
	if req.Location != nil {
		user.Location = *req.Location
	}
	if req.ImageRef != nil {
		user.ImageRef = *req.ImageRef
	}
	if req.IsPrivate != nil {
		user.IsPrivate = *req.IsPrivate
	}
	if req.PushToken != nil {
		user.PushToken = *req.PushToken
	}
	if req.College != nil {
		user.College = *req.College
	}
	if req.Course != nil {
		user.Course = *req.Course
	}
	if req.Branch != nil {
		user.Branch = *req.Branch
	}
	if req.Semester != nil {
		user.Semester = *req.Semester
	}

	if err := h.userRepository.UpdateUser(user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": h.toProfileView(c, user)})
}

// SearchUsers searches users by username or display name. Full-scan
// substring match; fine for campus-sized datasets only.
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": []models.UserCompact{}})
	}

	currentUserID := getUserIDFromContext(c)
	users, err := h.userRepository.SearchUsers(query, currentUserID, 20)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": h.toCompactList(c, users)})
}

// GetRecommendedUsers returns users sorted by follower count, excluding
// the caller.
func (h *UserHandler) GetRecommendedUsers(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	users, err := h.userRepository.GetRecommendedUsers(currentUserID, 20)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": h.toCompactList(c, users)})
}

// GenerateUploadURL returns a one-time upload target for media
func (h *UserHandler) GenerateUploadURL(c echo.Context) error {
	if _, err := getActor(c, h.userRepository); err != nil {
		return err
	}
	target, err := h.mediaResolver.GenerateUploadURL(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate upload URL")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": target})
}

func (h *UserHandler) toCompactList(c echo.Context, users []models.User) []models.UserCompact {
	out := make([]models.UserCompact, len(users))
	for i, u := range users {
		compact := u.ToCompact()
		if compact.ImageURL != "" {
			if url, err := storage.ResolveRef(c.Request().Context(), h.mediaResolver, compact.ImageURL); err == nil {
				compact.ImageURL = url
			} else {
				compact.ImageURL = ""
			}
		}
		out[i] = compact
	}
	return out
}
