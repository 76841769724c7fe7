package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/unithreads/backend/internal/domain"
	"github.com/unithreads/backend/internal/models"
	"github.com/unithreads/backend/pkg/storage"
	"github.com/unithreads/backend/validators"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- test harness ---

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validators.NewValidator()
	return e
}

// newTestContext builds an authenticated request context. userID 0 leaves
// the request unauthenticated.
func newTestContext(e *echo.Echo, method, path string, body interface{}, userID uint) (echo.Context, *httptest.ResponseRecorder) {
	var reader *strings.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = strings.NewReader(string(b))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user", &models.JwtCustomClaims{UserID: userID, RegisteredClaims: jwt.RegisteredClaims{}})
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return out
}

// httpStatus extracts the status code a handler error maps to.
func httpStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return http.StatusInternalServerError
}

// --- fake user repository ---

type fakeUserRepo struct {
	users  map[uint]*models.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]*models.User{}, nextID: 1}
}

func (f *fakeUserRepo) addUser(u models.User) *models.User {
	if u.ID == 0 {
		u.ID = f.nextID
		f.nextID++
	} else if u.ID >= f.nextID {
		f.nextID = u.ID + 1
	}
	cp := u
	f.users[cp.ID] = &cp
	return &cp
}

func (f *fakeUserRepo) CreateUser(user *models.User) error {
	created := f.addUser(*user)
	*user = *created
	return nil
}

func (f *fakeUserRepo) GetUserByID(id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetUsersByIDs(ids []uint) ([]models.User, error) {
	out := []models.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetUserByFirebaseUID(firebaseUID string) (*models.User, error) {
	for _, u := range f.users {
		if u.FirebaseUID == firebaseUID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetUserByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) UpdateUser(user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) SearchUsers(query string, excludeID uint, limit int) ([]models.User, error) {
	q := strings.ToLower(query)
	out := []models.User{}
	for _, u := range f.users {
		if u.ID == excludeID {
			continue
		}
		name := strings.ToLower(u.FirstName + " " + u.LastName)
		username := ""
		if u.Username != nil {
			username = strings.ToLower(*u.Username)
		}
		if strings.Contains(name, q) || strings.Contains(username, q) {
			out = append(out, *u)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetRecommendedUsers(excludeID uint, limit int) ([]models.User, error) {
	out := []models.User{}
	for _, u := range f.users {
		if u.ID != excludeID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FollowersCount > out[j].FollowersCount })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeUserRepo) IncrementFollowersCount(id uint) error {
	u, ok := f.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.FollowersCount++
	return nil
}

func (f *fakeUserRepo) DecrementFollowersCount(id uint) error {
	u, ok := f.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	if u.FollowersCount > 0 {
		u.FollowersCount--
	}
	return nil
}

// --- fake post repository ---

type fakePostRepo struct {
	posts map[string]*models.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: map[string]*models.Post{}}
}

func (f *fakePostRepo) addPost(p models.Post) *models.Post {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	cp := p
	f.posts[cp.ID.Hex()] = &cp
	return &cp
}

func (f *fakePostRepo) CreatePost(_ context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	cp := *post
	f.posts[cp.ID.Hex()] = &cp
	return nil
}

func (f *fakePostRepo) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePostRepo) UpdateDraft(_ context.Context, id string, post *models.Post) error {
	p, ok := f.posts[id]
	if !ok || !p.IsDraft {
		return domain.ErrNotFound
	}
	p.Content = post.Content
	p.MediaRefs = post.MediaRefs
	p.WebsiteURL = post.WebsiteURL
	p.IsPoll = post.IsPoll
	p.PollQuestion = post.PollQuestion
	p.PollOptions = post.PollOptions
	p.PollDurationHours = post.PollDurationHours
	p.PollMultipleChoice = post.PollMultipleChoice
	p.UpdatedAt = time.Now()
	return nil
}

func (f *fakePostRepo) DeletePost(_ context.Context, id string) error {
	if _, ok := f.posts[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.posts, id)
	return nil
}

func (f *fakePostRepo) DeleteByParentPostID(_ context.Context, parentID string) (int64, error) {
	var n int64
	for id, p := range f.posts {
		if p.ParentPostID != nil && p.ParentPostID.Hex() == parentID {
			delete(f.posts, id)
			n++
		}
	}
	return n, nil
}

func (f *fakePostRepo) filter(pred func(*models.Post) bool) []models.Post {
	out := []models.Post{}
	for _, p := range f.posts {
		if pred(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakePostRepo) GetFeedPosts(_ context.Context, skip, limit int64) ([]models.Post, error) {
	all := f.filter(func(p *models.Post) bool { return p.ParentPostID == nil && p.IsPosted })
	return page(all, skip, limit), nil
}

func (f *fakePostRepo) CountFeedPosts(_ context.Context) (int64, error) {
	all := f.filter(func(p *models.Post) bool { return p.ParentPostID == nil && p.IsPosted })
	return int64(len(all)), nil
}

func (f *fakePostRepo) GetPostsByUserID(_ context.Context, userID uint, skip, limit int64) ([]models.Post, error) {
	all := f.filter(func(p *models.Post) bool { return p.UserID == userID && p.IsPosted })
	return page(all, skip, limit), nil
}

func (f *fakePostRepo) GetRepliesByUserID(_ context.Context, userID uint, skip, limit int64) ([]models.Post, error) {
	all := f.filter(func(p *models.Post) bool {
		return p.UserID == userID && p.ParentPostID != nil && p.IsPosted
	})
	return page(all, skip, limit), nil
}

func (f *fakePostRepo) GetCommentsByParent(_ context.Context, parentID string) ([]models.Post, error) {
	return f.filter(func(p *models.Post) bool {
		return p.ParentPostID != nil && p.ParentPostID.Hex() == parentID && p.IsPosted
	}), nil
}

func (f *fakePostRepo) GetDraftsByUser(_ context.Context, userID uint, skip, limit int64) ([]models.Post, error) {
	all := f.filter(func(p *models.Post) bool { return p.UserID == userID && p.IsDraft })
	return page(all, skip, limit), nil
}

func (f *fakePostRepo) GetScheduledByUser(_ context.Context, userID uint, skip, limit int64) ([]models.Post, error) {
	all := f.filter(func(p *models.Post) bool {
		return p.UserID == userID && p.IsScheduled && !p.IsPosted
	})
	return page(all, skip, limit), nil
}

func (f *fakePostRepo) GetDueScheduledPosts(_ context.Context, now time.Time) ([]models.Post, error) {
	return f.filter(func(p *models.Post) bool {
		return p.IsScheduled && !p.IsPosted && p.ScheduledFor != nil && !p.ScheduledFor.After(now)
	}), nil
}

func (f *fakePostRepo) AdjustLikeCount(_ context.Context, id string, delta int) error {
	p, ok := f.posts[id]
	if !ok {
		return nil
	}
	if delta < 0 && p.LikeCount <= 0 {
		return nil
	}
	p.LikeCount += delta
	return nil
}

func (f *fakePostRepo) AdjustCommentCount(_ context.Context, id string, delta int) error {
	p, ok := f.posts[id]
	if !ok {
		return nil
	}
	if delta < 0 && p.CommentCount <= 0 {
		return nil
	}
	p.CommentCount += delta
	return nil
}

func (f *fakePostRepo) PublishDraft(_ context.Context, id string) (bool, error) {
	p, ok := f.posts[id]
	if !ok || !p.IsDraft || p.IsPosted {
		return false, nil
	}
	p.IsDraft = false
	p.IsPosted = true
	return true, nil
}

func (f *fakePostRepo) PublishScheduled(_ context.Context, id string) (bool, error) {
	p, ok := f.posts[id]
	if !ok || p.IsPosted {
		return false, nil
	}
	p.IsPosted = true
	p.IsScheduled = false
	return true, nil
}

func page(all []models.Post, skip, limit int64) []models.Post {
	if skip >= int64(len(all)) {
		return []models.Post{}
	}
	all = all[skip:]
	if limit > 0 && int64(len(all)) > limit {
		all = all[:limit]
	}
	return all
}

// --- fake follow repositories ---

type followEdge struct{ follower, following uint }

type fakeFollowRepo struct {
	edges map[followEdge]bool
	users *fakeUserRepo
}

func newFakeFollowRepo(users *fakeUserRepo) *fakeFollowRepo {
	return &fakeFollowRepo{edges: map[followEdge]bool{}, users: users}
}

func (f *fakeFollowRepo) CreateFollow(follow *models.Follow) error {
	f.edges[followEdge{follow.FollowerID, follow.FollowingID}] = true
	return nil
}

func (f *fakeFollowRepo) DeleteFollow(followerID, followingID uint) error {
	e := followEdge{followerID, followingID}
	if !f.edges[e] {
		return domain.ErrNotFound
	}
	delete(f.edges, e)
	return nil
}

func (f *fakeFollowRepo) IsFollowing(followerID, followingID uint) (bool, error) {
	return f.edges[followEdge{followerID, followingID}], nil
}

func (f *fakeFollowRepo) GetFollowers(userID uint) ([]models.User, error) {
	out := []models.User{}
	for e := range f.edges {
		if e.following == userID {
			if u, ok := f.users.users[e.follower]; ok {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

func (f *fakeFollowRepo) GetFollowing(userID uint) ([]models.User, error) {
	out := []models.User{}
	for e := range f.edges {
		if e.follower == userID {
			if u, ok := f.users.users[e.following]; ok {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

func (f *fakeFollowRepo) GetFollowersCount(userID uint) (int64, error) {
	var n int64
	for e := range f.edges {
		if e.following == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeFollowRepo) GetFollowingCount(userID uint) (int64, error) {
	var n int64
	for e := range f.edges {
		if e.follower == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeFollowRepo) GetFollowingIDs(userID uint) ([]uint, error) {
	out := []uint{}
	for e := range f.edges {
		if e.follower == userID {
			out = append(out, e.following)
		}
	}
	return out, nil
}

type fakeFollowRequestRepo struct {
	requests map[uint]*models.FollowRequest
	nextID   uint
}

func newFakeFollowRequestRepo() *fakeFollowRequestRepo {
	return &fakeFollowRequestRepo{requests: map[uint]*models.FollowRequest{}, nextID: 1}
}

func (f *fakeFollowRequestRepo) Create(req *models.FollowRequest) error {
	req.ID = f.nextID
	f.nextID++
	req.Status = models.FollowRequestPending
	req.CreatedAt = time.Now()
	cp := *req
	f.requests[cp.ID] = &cp
	return nil
}

func (f *fakeFollowRequestRepo) GetByID(id uint) (*models.FollowRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeFollowRequestRepo) GetPendingBySenderReceiver(senderID, receiverID uint) (*models.FollowRequest, error) {
	for _, r := range f.requests {
		if r.SenderID == senderID && r.ReceiverID == receiverID && r.Status == models.FollowRequestPending {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeFollowRequestRepo) GetPendingForReceiver(receiverID uint) ([]models.FollowRequest, error) {
	out := []models.FollowRequest{}
	for _, r := range f.requests {
		if r.ReceiverID == receiverID && r.Status == models.FollowRequestPending {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeFollowRequestRepo) UpdateStatus(id uint, status string) error {
	r, ok := f.requests[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.Status = status
	return nil
}

func (f *fakeFollowRequestRepo) DeletePendingBySenderReceiver(senderID, receiverID uint) (bool, error) {
	for id, r := range f.requests {
		if r.SenderID == senderID && r.ReceiverID == receiverID && r.Status == models.FollowRequestPending {
			delete(f.requests, id)
			return true, nil
		}
	}
	return false, nil
}

// --- fake like repository ---

type likeKey struct {
	userID uint
	postID string
}

type fakeLikeRepo struct {
	likes map[likeKey]bool
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{likes: map[likeKey]bool{}}
}

func (f *fakeLikeRepo) CreateLike(like *models.Like) error {
	f.likes[likeKey{like.UserID, like.PostID}] = true
	return nil
}

func (f *fakeLikeRepo) DeleteLike(userID uint, postID string) error {
	k := likeKey{userID, postID}
	if !f.likes[k] {
		return domain.ErrNotFound
	}
	delete(f.likes, k)
	return nil
}

func (f *fakeLikeRepo) GetLike(userID uint, postID string) (*models.Like, error) {
	if !f.likes[likeKey{userID, postID}] {
		return nil, domain.ErrNotFound
	}
	return &models.Like{UserID: userID, PostID: postID}, nil
}

func (f *fakeLikeRepo) HasUserLikedPost(postID string, userID uint) (bool, error) {
	return f.likes[likeKey{userID, postID}], nil
}

func (f *fakeLikeRepo) GetLikedPostIDs(userID uint, postIDs []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, id := range postIDs {
		if f.likes[likeKey{userID, id}] {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeLikeRepo) CountByPostID(postID string) (int64, error) {
	var n int64
	for k := range f.likes {
		if k.postID == postID {
			n++
		}
	}
	return n, nil
}

// --- fake saved post repository ---

type fakeSavedPostRepo struct {
	saved map[likeKey]time.Time
}

func newFakeSavedPostRepo() *fakeSavedPostRepo {
	return &fakeSavedPostRepo{saved: map[likeKey]time.Time{}}
}

func (f *fakeSavedPostRepo) SavePost(savedPost *models.SavedPost) error {
	// The store fills saved_at on insert; callers never set it.
	savedPost.SavedAt = time.Now()
	f.saved[likeKey{savedPost.UserID, savedPost.PostID}] = savedPost.SavedAt
	return nil
}

func (f *fakeSavedPostRepo) UnsavePost(userID uint, postID string) error {
	k := likeKey{userID, postID}
	if _, ok := f.saved[k]; !ok {
		return domain.ErrNotFound
	}
	delete(f.saved, k)
	return nil
}

func (f *fakeSavedPostRepo) GetSavedPost(userID uint, postID string) (*models.SavedPost, error) {
	at, ok := f.saved[likeKey{userID, postID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &models.SavedPost{UserID: userID, PostID: postID, SavedAt: at}, nil
}

func (f *fakeSavedPostRepo) IsPostSaved(userID uint, postID string) (bool, error) {
	_, ok := f.saved[likeKey{userID, postID}]
	return ok, nil
}

func (f *fakeSavedPostRepo) GetSavedPostsByUser(userID uint, skip, limit int) ([]models.SavedPost, error) {
	out := []models.SavedPost{}
	for k, at := range f.saved {
		if k.userID == userID {
			out = append(out, models.SavedPost{UserID: k.userID, PostID: k.postID, SavedAt: at})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SavedAt.After(out[j].SavedAt) })
	if skip >= len(out) {
		return []models.SavedPost{}, nil
	}
	out = out[skip:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSavedPostRepo) GetSavedPostIDs(userID uint, postIDs []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, id := range postIDs {
		if _, ok := f.saved[likeKey{userID, id}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

// --- fake poll vote repository ---

type fakePollVoteRepo struct {
	votes  map[uint]*models.PollVote
	nextID uint
}

func newFakePollVoteRepo() *fakePollVoteRepo {
	return &fakePollVoteRepo{votes: map[uint]*models.PollVote{}, nextID: 1}
}

func (f *fakePollVoteRepo) GetVote(pollID string, userID uint) (*models.PollVote, error) {
	for _, v := range f.votes {
		if v.PollID == pollID && v.UserID == userID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakePollVoteRepo) CreateVote(vote *models.PollVote) error {
	vote.ID = f.nextID
	f.nextID++
	cp := *vote
	f.votes[cp.ID] = &cp
	return nil
}

func (f *fakePollVoteRepo) UpdateVoteOption(id uint, optionIndex int) error {
	v, ok := f.votes[id]
	if !ok {
		return domain.ErrNotFound
	}
	v.OptionIndex = optionIndex
	return nil
}

func (f *fakePollVoteRepo) DeleteVote(id uint) error {
	delete(f.votes, id)
	return nil
}

func (f *fakePollVoteRepo) GetVotesByPoll(pollID string) ([]models.PollVote, error) {
	out := []models.PollVote{}
	for _, v := range f.votes {
		if v.PollID == pollID {
			out = append(out, *v)
		}
	}
	return out, nil
}

// --- fake notification repository ---

type fakeNotificationRepo struct {
	notifications []models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (f *fakeNotificationRepo) CreateNotification(n *models.Notification) error {
	n.ID = uint(len(f.notifications) + 1)
	n.CreatedAt = time.Now()
	f.notifications = append(f.notifications, *n)
	return nil
}

func (f *fakeNotificationRepo) GetNotificationsByRecipient(userID uint, skip, limit int) ([]models.Notification, error) {
	out := []models.Notification{}
	for _, n := range f.notifications {
		if n.RecipientID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkRead(id, userID uint) error {
	for i := range f.notifications {
		if f.notifications[i].ID == id && f.notifications[i].RecipientID == userID {
			f.notifications[i].IsRead = true
		}
	}
	return nil
}

func (f *fakeNotificationRepo) MarkAllRead(userID uint) error {
	for i := range f.notifications {
		if f.notifications[i].RecipientID == userID {
			f.notifications[i].IsRead = true
		}
	}
	return nil
}

// --- fake media resolver ---

// fakeResolver resolves handles to a deterministic URL scheme.
type fakeResolver struct {
	failHandles map[string]bool
}

func (f *fakeResolver) ResolveURL(_ context.Context, handle string) (string, error) {
	if f.failHandles[handle] {
		return "", domain.ErrNotFound
	}
	return "https://cdn.test/" + handle, nil
}

func (f *fakeResolver) GenerateUploadURL(_ context.Context) (*storage.UploadTarget, error) {
	return &storage.UploadTarget{UploadURL: "https://upload.test/slot", Handle: "uploads/fixed"}, nil
}
