package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unithreads/backend/internal/models"
)

func TestFeedEnrichment(t *testing.T) {
	users := newFakeUserRepo()
	posts := newFakePostRepo()
	likes := newFakeLikeRepo()
	saved := newFakeSavedPostRepo()
	follows := newFakeFollowRepo(users)
	enricher := NewPostEnricher(users, likes, saved, &fakeResolver{failHandles: map[string]bool{"uploads/broken": true}})
	handler := NewFeedHandler(posts, users, follows, enricher)

	alice := users.addUser(models.User{FirstName: "Alice", ImageRef: "uploads/avatar1"})
	bob := users.addUser(models.User{FirstName: "Bob"})

	liked := posts.addPost(models.Post{
		UserID: bob.ID, Content: "liked one", IsPosted: true,
		MediaRefs: []string{"uploads/pic", "uploads/broken", "https://example.com/ext.png"},
	})
	posts.addPost(models.Post{UserID: alice.ID, Content: "own post", IsPosted: true})
	posts.addPost(models.Post{UserID: bob.ID, Content: "hidden draft", IsDraft: true})

	require.NoError(t, likes.CreateLike(&models.Like{UserID: alice.ID, PostID: liked.ID.Hex()}))
	require.NoError(t, saved.SavePost(&models.SavedPost{UserID: alice.ID, PostID: liked.ID.Hex()}))
	require.NoError(t, follows.CreateFollow(&models.Follow{FollowerID: alice.ID, FollowingID: bob.ID}))

	e := newTestEcho()
	c, rec := newTestContext(e, http.MethodGet, "/feed", nil, alice.ID)
	require.NoError(t, handler.GetFeed(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	items := body["data"].([]interface{})
	require.Len(t, items, 2, "drafts never appear in the feed")

	var likedItem map[string]interface{}
	for _, raw := range items {
		item := raw.(map[string]interface{})
		if item["content"] == "liked one" {
			likedItem = item
		}
	}
	require.NotNil(t, likedItem)

	assert.Equal(t, true, likedItem["is_liked"])
	assert.Equal(t, true, likedItem["is_saved"])
	assert.Equal(t, true, likedItem["is_following_creator"])

	media := likedItem["media_urls"].([]interface{})
	assert.Len(t, media, 2, "unresolvable media is dropped from the view")
	assert.Contains(t, media, "https://cdn.test/uploads/pic")
	assert.Contains(t, media, "https://example.com/ext.png")

	creator := likedItem["creator"].(map[string]interface{})
	assert.Equal(t, "Bob", creator["first_name"])

	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["totalItems"])
}

func TestFeedEmpty(t *testing.T) {
	users := newFakeUserRepo()
	posts := newFakePostRepo()
	follows := newFakeFollowRepo(users)
	enricher := NewPostEnricher(users, newFakeLikeRepo(), newFakeSavedPostRepo(), &fakeResolver{})
	handler := NewFeedHandler(posts, users, follows, enricher)
	alice := users.addUser(models.User{FirstName: "Alice"})

	e := newTestEcho()
	c, rec := newTestContext(e, http.MethodGet, "/feed", nil, alice.ID)
	require.NoError(t, handler.GetFeed(c))

	body := decodeBody(t, rec)
	assert.Empty(t, body["data"])
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(0), pagination["totalItems"])
	assert.Equal(t, false, pagination["hasNextPage"])
}
