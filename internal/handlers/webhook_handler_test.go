package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_MfKQ9r8GKYqrTwjUPD8ILPZIo2LaLaSw"

func TestWebhookRejectsUnsignedPayload(t *testing.T) {
	users := newFakeUserRepo()
	handler, err := NewWebhookHandler(users, testWebhookSecret)
	require.NoError(t, err)

	payload := `{"type":"user.created","data":{"id":"ext_123","first_name":"Alice","email_addresses":[{"email_address":"alice@campus.edu"}]}}`
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/identity", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err = handler.HandleIdentityEvent(c)
	assert.Equal(t, http.StatusBadRequest, httpStatus(err), "missing svix signature headers must be rejected")
	assert.Empty(t, users.users, "no user is provisioned from an unverified payload")
}

func TestWebhookRejectsBadSecret(t *testing.T) {
	_, err := NewWebhookHandler(newFakeUserRepo(), "not-a-valid-secret-%%%")
	assert.Error(t, err)
}
