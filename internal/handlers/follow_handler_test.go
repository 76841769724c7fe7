package handlers

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unithreads/backend/internal/models"
)

type followFixture struct {
	users         *fakeUserRepo
	follows       *fakeFollowRepo
	requests      *fakeFollowRequestRepo
	notifications *fakeNotificationRepo
	handler       *FollowHandler
}

func newFollowFixture() *followFixture {
	users := newFakeUserRepo()
	follows := newFakeFollowRepo(users)
	requests := newFakeFollowRequestRepo()
	notifications := newFakeNotificationRepo()
	return &followFixture{
		users:         users,
		follows:       follows,
		requests:      requests,
		notifications: notifications,
		handler:       NewFollowHandler(follows, requests, users, notifications),
	}
}

func (fx *followFixture) follow(t *testing.T, actorID, targetID uint) (int, map[string]interface{}) {
	t.Helper()
	e := newTestEcho()
	c, rec := newTestContext(e, http.MethodPost, "/", nil, actorID)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(targetID), 10))
	err := fx.handler.FollowUser(c)
	if err != nil {
		return httpStatus(err), nil
	}
	return rec.Code, decodeBody(t, rec)
}

func (fx *followFixture) unfollow(t *testing.T, actorID, targetID uint) (int, map[string]interface{}) {
	t.Helper()
	e := newTestEcho()
	c, rec := newTestContext(e, http.MethodDelete, "/", nil, actorID)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(targetID), 10))
	err := fx.handler.UnfollowUser(c)
	if err != nil {
		return httpStatus(err), nil
	}
	return rec.Code, decodeBody(t, rec)
}

func TestFollowPublicUser(t *testing.T) {
	fx := newFollowFixture()
	alice := fx.users.addUser(models.User{FirstName: "Alice"})
	bob := fx.users.addUser(models.User{FirstName: "Bob"})

	code, body := fx.follow(t, alice.ID, bob.ID)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "following", body["data"].(map[string]interface{})["status"])

	following, _ := fx.follows.IsFollowing(alice.ID, bob.ID)
	assert.True(t, following)
	updated, _ := fx.users.GetUserByID(bob.ID)
	assert.Equal(t, 1, updated.FollowersCount)
	require.Len(t, fx.notifications.notifications, 1)
	assert.Equal(t, "follow", fx.notifications.notifications[0].Type)
}

func TestFollowIsIdempotent(t *testing.T) {
	fx := newFollowFixture()
	alice := fx.users.addUser(models.User{FirstName: "Alice"})
	bob := fx.users.addUser(models.User{FirstName: "Bob"})

	for i := 0; i < 3; i++ {
		code, body := fx.follow(t, alice.ID, bob.ID)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "following", body["data"].(map[string]interface{})["status"])
	}

	updated, _ := fx.users.GetUserByID(bob.ID)
	assert.Equal(t, 1, updated.FollowersCount, "repeated follows must not inflate the counter")
	assert.Len(t, fx.notifications.notifications, 1)
}

func TestFollowSelfRejected(t *testing.T) {
	fx := newFollowFixture()
	alice := fx.users.addUser(models.User{FirstName: "Alice"})

	code, _ := fx.follow(t, alice.ID, alice.ID)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestFollowPrivateUserCreatesRequest(t *testing.T) {
	fx := newFollowFixture()
	alice := fx.users.addUser(models.User{FirstName: "Alice"})
	carol := fx.users.addUser(models.User{FirstName: "Carol", IsPrivate: true})

	code, body := fx.follow(t, alice.ID, carol.ID)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "requested", body["data"].(map[string]interface{})["status"])

	following, _ := fx.follows.IsFollowing(alice.ID, carol.ID)
	assert.False(t, following, "no edge until the request is accepted")
	updated, _ := fx.users.GetUserByID(carol.ID)
	assert.Equal(t, 0, updated.FollowersCount)

	// A second follow attempt reuses the pending request.
	code, body = fx.follow(t, alice.ID, carol.ID)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "requested", body["data"].(map[string]interface{})["status"])
	pending, err := fx.requests.GetPendingForReceiver(carol.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestUnfollowIsIdempotent(t *testing.T) {
	fx := newFollowFixture()
	alice := fx.users.addUser(models.User{FirstName: "Alice"})
	bob := fx.users.addUser(models.User{FirstName: "Bob"})

	fx.follow(t, alice.ID, bob.ID)
	code, _ := fx.unfollow(t, alice.ID, bob.ID)
	require.Equal(t, http.StatusOK, code)
	updated, _ := fx.users.GetUserByID(bob.ID)
	assert.Equal(t, 0, updated.FollowersCount)

	// Unfollowing again succeeds and the counter stays at zero.
	code, _ = fx.unfollow(t, alice.ID, bob.ID)
	require.Equal(t, http.StatusOK, code)
	updated, _ = fx.users.GetUserByID(bob.ID)
	assert.Equal(t, 0, updated.FollowersCount)
}

func TestUnfollowWithdrawsPendingRequest(t *testing.T) {
	fx := newFollowFixture()
	alice := fx.users.addUser(models.User{FirstName: "Alice"})
	carol := fx.users.addUser(models.User{FirstName: "Carol", IsPrivate: true})

	fx.follow(t, alice.ID, carol.ID)
	code, _ := fx.unfollow(t, alice.ID, carol.ID)
	require.Equal(t, http.StatusOK, code)

	pending, err := fx.requests.GetPendingForReceiver(carol.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCancelFollowRequestIsIdempotent(t *testing.T) {
	fx := newFollowFixture()
	alice := fx.users.addUser(models.User{FirstName: "Alice"})
	carol := fx.users.addUser(models.User{FirstName: "Carol", IsPrivate: true})

	fx.follow(t, alice.ID, carol.ID)

	cancel := func() map[string]interface{} {
		e := newTestEcho()
		c, rec := newTestContext(e, http.MethodDelete, "/", nil, alice.ID)
		c.SetParamNames("id")
		c.SetParamValues(strconv.FormatUint(uint64(carol.ID), 10))
		require.NoError(t, fx.handler.CancelFollowRequest(c))
		require.Equal(t, http.StatusOK, rec.Code)
		return decodeBody(t, rec)
	}

	body := cancel()
	assert.Equal(t, true, body["data"].(map[string]interface{})["withdrawn"])
	pending, err := fx.requests.GetPendingForReceiver(carol.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Nothing left to withdraw; the call still succeeds.
	body = cancel()
	assert.Equal(t, false, body["data"].(map[string]interface{})["withdrawn"])
}

func TestFollowStatusUsesEdgeCounts(t *testing.T) {
	fx := newFollowFixture()
	alice := fx.users.addUser(models.User{FirstName: "Alice"})
	bob := fx.users.addUser(models.User{FirstName: "Bob"})
	carol := fx.users.addUser(models.User{FirstName: "Carol"})

	fx.follow(t, alice.ID, bob.ID)
	fx.follow(t, carol.ID, bob.ID)
	fx.follow(t, bob.ID, alice.ID)

	e := newTestEcho()
	c, rec := newTestContext(e, http.MethodGet, "/", nil, alice.ID)
	c.SetParamNames("id")
	c.SetParamValues(strconv.FormatUint(uint64(bob.ID), 10))
	require.NoError(t, fx.handler.GetFollowStatus(c))

	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "following", data["status"])
	assert.Equal(t, float64(2), data["followersCount"])
	assert.Equal(t, float64(1), data["followingCount"])
}
