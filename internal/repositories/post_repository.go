package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/unithreads/backend/internal/domain"
	"github.com/unithreads/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for the unified post entity
// (top-level posts, comments, replies, drafts, scheduled posts, polls).
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	UpdateDraft(ctx context.Context, id string, post *models.Post) error
	DeletePost(ctx context.Context, id string) error
	DeleteByParentPostID(ctx context.Context, parentID string) (int64, error)

	GetFeedPosts(ctx context.Context, skip, limit int64) ([]models.Post, error)
	CountFeedPosts(ctx context.Context) (int64, error)
	GetPostsByUserID(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, error)
	GetRepliesByUserID(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, error)
	GetCommentsByParent(ctx context.Context, parentID string) ([]models.Post, error)
	GetDraftsByUser(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, error)
	GetScheduledByUser(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, error)
	GetDueScheduledPosts(ctx context.Context, now time.Time) ([]models.Post, error)

	AdjustLikeCount(ctx context.Context, id string, delta int) error
	AdjustCommentCount(ctx context.Context, id string, delta int) error
	PublishDraft(ctx context.Context, id string) (bool, error)
	PublishScheduled(ctx context.Context, id string) (bool, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

func objectID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid post ID format: %w", domain.ErrValidation)
	}
	return objID, nil
}

// CreatePost inserts a new post document
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// UpdateDraft patches the editable fields of a draft in place.
func (r *MongoPostRepository) UpdateDraft(ctx context.Context, id string, post *models.Post) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"content":              post.Content,
			"media_refs":           post.MediaRefs,
			"website_url":          post.WebsiteURL,
			"is_poll":              post.IsPoll,
			"poll_question":        post.PollQuestion,
			"poll_options":         post.PollOptions,
			"poll_duration_hours":  post.PollDurationHours,
			"poll_multiple_choice": post.PollMultipleChoice,
			"updated_at":           time.Now(),
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID, "is_draft": true}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeletePost deletes a post document by ID
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByParentPostID removes every comment and reply attached to a
// post, drafts included. Used when the root post is deleted.
func (r *MongoPostRepository) DeleteByParentPostID(ctx context.Context, parentID string) (int64, error) {
	objID, err := objectID(parentID)
	if err != nil {
		return 0, err
	}
	res, err := r.collection.DeleteMany(ctx, bson.M{"parent_post_id": objID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoPostRepository) find(ctx context.Context, filter bson.M, skip, limit int64, sort bson.D) ([]models.Post, error) {
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(sort)
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

// GetFeedPosts returns published top-level posts, newest first.
func (r *MongoPostRepository) GetFeedPosts(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	filter := bson.M{
		"parent_post_id": bson.M{"$exists": false},
		"is_posted":      true,
	}
	return r.find(ctx, filter, skip, limit, newestFirst)
}

// CountFeedPosts counts published top-level posts.
func (r *MongoPostRepository) CountFeedPosts(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"parent_post_id": bson.M{"$exists": false},
		"is_posted":      true,
	})
}

// GetPostsByUserID returns a user's published posts, newest first.
func (r *MongoPostRepository) GetPostsByUserID(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, error) {
	filter := bson.M{"user_id": userID, "is_posted": true}
	return r.find(ctx, filter, skip, limit, newestFirst)
}

// GetRepliesByUserID returns a user's published comments/replies.
func (r *MongoPostRepository) GetRepliesByUserID(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, error) {
	filter := bson.M{
		"user_id":        userID,
		"parent_post_id": bson.M{"$exists": true},
		"is_posted":      true,
	}
	return r.find(ctx, filter, skip, limit, newestFirst)
}

// GetCommentsByParent returns all published comments attached to a post.
// Drafts and not-yet-due scheduled comments stay invisible.
func (r *MongoPostRepository) GetCommentsByParent(ctx context.Context, parentID string) ([]models.Post, error) {
	objID, err := objectID(parentID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{"parent_post_id": objID, "is_posted": true}
	return r.find(ctx, filter, 0, 0, newestFirst)
}

// GetDraftsByUser returns a user's drafts, newest first.
func (r *MongoPostRepository) GetDraftsByUser(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, error) {
	filter := bson.M{"user_id": userID, "is_draft": true}
	return r.find(ctx, filter, skip, limit, newestFirst)
}

// GetScheduledByUser returns a user's pending scheduled posts, soonest first.
func (r *MongoPostRepository) GetScheduledByUser(ctx context.Context, userID uint, skip, limit int64) ([]models.Post, error) {
	filter := bson.M{"user_id": userID, "is_scheduled": true, "is_posted": false}
	return r.find(ctx, filter, skip, limit, bson.D{{Key: "scheduled_for", Value: 1}})
}

// GetDueScheduledPosts returns every scheduled-not-posted post whose
// publish time has passed.
func (r *MongoPostRepository) GetDueScheduledPosts(ctx context.Context, now time.Time) ([]models.Post, error) {
	filter := bson.M{
		"is_scheduled":  true,
		"is_posted":     false,
		"scheduled_for": bson.M{"$lte": now},
	}
	return r.find(ctx, filter, 0, 0, bson.D{{Key: "scheduled_for", Value: 1}})
}

// AdjustLikeCount applies an atomic $inc to the like counter. Decrements
// are floored at zero by filtering on like_count > 0.
func (r *MongoPostRepository) AdjustLikeCount(ctx context.Context, id string, delta int) error {
	return r.adjustCounter(ctx, id, "like_count", delta)
}

// AdjustCommentCount applies an atomic $inc to the comment counter,
// floored at zero on decrement.
func (r *MongoPostRepository) AdjustCommentCount(ctx context.Context, id string, delta int) error {
	return r.adjustCounter(ctx, id, "comment_count", delta)
}

func (r *MongoPostRepository) adjustCounter(ctx context.Context, id, field string, delta int) error {
	objID, err := objectID(id)
	if err != nil {
		return err
	}
	filter := bson.M{"_id": objID}
	if delta < 0 {
		// Never drive the counter below zero, even under racing toggles.
		filter[field] = bson.M{"$gt": 0}
	}
	_, err = r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{field: delta}})
	return err
}

// PublishDraft flips a draft to posted with a compare-and-set on the draft
// flags. Returns false when the document was not a publishable draft.
func (r *MongoPostRepository) PublishDraft(ctx context.Context, id string) (bool, error) {
	objID, err := objectID(id)
	if err != nil {
		return false, err
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "is_draft": true, "is_posted": false},
		bson.M{"$set": bson.M{"is_draft": false, "is_posted": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// PublishScheduled flips a scheduled post to posted. The is_posted:false
// filter makes the operation idempotent under racing sweeps: only one
// caller observes a modified document.
func (r *MongoPostRepository) PublishScheduled(ctx context.Context, id string) (bool, error) {
	objID, err := objectID(id)
	if err != nil {
		return false, err
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "is_posted": false},
		bson.M{"$set": bson.M{"is_posted": true, "is_scheduled": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
