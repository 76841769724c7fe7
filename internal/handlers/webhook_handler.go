package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	svix "github.com/svix/svix-webhooks/go"
	"github.com/unithreads/backend/internal/domain"
	"github.com/unithreads/backend/internal/models"
	"github.com/unithreads/backend/internal/repositories"
	"github.com/unithreads/backend/pkg/logger"
)

// WebhookHandler receives signed account events from the identity
// provider. An invalid signature is a hard rejection.
type WebhookHandler struct {
	userRepository repositories.UserRepository
	webhook        *svix.Webhook
}

// NewWebhookHandler creates a WebhookHandler. The secret comes from the
// provider's webhook configuration.
func NewWebhookHandler(userRepo repositories.UserRepository, secret string) (*WebhookHandler, error) {
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, err
	}
	return &WebhookHandler{userRepository: userRepo, webhook: wh}, nil
}

// RegisterWebhookRoutes registers the identity webhook endpoint
func (h *WebhookHandler) RegisterWebhookRoutes(e *echo.Echo) {
	e.POST("/webhooks/identity", h.HandleIdentityEvent)
}

type identityEvent struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		ImageURL       string `json:"image_url"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

// HandleIdentityEvent verifies the webhook signature and provisions users
// for user.created events. Provisioning is idempotent: an event replayed
// for an existing subject is acknowledged without a second insert.
func (h *WebhookHandler) HandleIdentityEvent(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read payload")
	}

	if err := h.webhook.Verify(payload, c.Request().Header); err != nil {
		logger.Log.Warnf("identity webhook signature verification failed: %v", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid webhook signature")
	}

	var evt identityEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid event payload")
	}

	switch evt.Type {
	case "user.created":
		if err := h.provisionUser(&evt); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to provision user")
		}
	case "user.updated":
		// Profile updates flow through the sync endpoint instead.
	default:
		logger.Log.Infof("ignoring identity webhook event type %q", evt.Type)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *WebhookHandler) provisionUser(evt *identityEvent) error {
	if _, err := h.userRepository.GetUserByFirebaseUID(evt.Data.ID); err == nil {
		return nil // already provisioned
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	email := ""
	if len(evt.Data.EmailAddresses) > 0 {
		email = evt.Data.EmailAddresses[0].EmailAddress
	}

	user := &models.User{
		FirebaseUID: evt.Data.ID,
		Email:       email,
		FirstName:   evt.Data.FirstName,
		LastName:    evt.Data.LastName,
		ImageRef:    evt.Data.ImageURL,
	}
	return h.userRepository.CreateUser(user)
}
