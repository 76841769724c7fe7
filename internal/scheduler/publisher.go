// Package scheduler promotes due scheduled posts to published state. The
// sweep is driven by an external timer hitting the internal HTTP endpoint;
// the worker itself holds no timer state.
package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/unithreads/backend/internal/repositories"
	"github.com/unithreads/backend/pkg/logger"
)

// Result aggregates one sweep.
type Result struct {
	Published int `json:"published"`
	Skipped   int `json:"skipped"`
}

// PublishOutcome reports a single post's publication.
type PublishOutcome struct {
	Success   bool `json:"success"`
	Duplicate bool `json:"duplicate"`
}

// Publisher runs the scheduled-post sweep.
type Publisher struct {
	postRepository repositories.PostRepository
	log            *logrus.Entry
}

// NewPublisher creates a Publisher.
func NewPublisher(postRepo repositories.PostRepository) *Publisher {
	return &Publisher{
		postRepository: postRepo,
		log:            logger.Log.WithField("component", "scheduler"),
	}
}

// ProcessScheduledPosts publishes every scheduled post whose time has
// passed. A post that was already published (by a racing sweep or a manual
// publish) counts as skipped, not as an error. A failing post is logged
// and skipped; it never aborts the batch.
func (p *Publisher) ProcessScheduledPosts(ctx context.Context) (Result, error) {
	now := time.Now()

	duePosts, err := p.postRepository.GetDueScheduledPosts(ctx, now)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, post := range duePosts {
		outcome, err := p.PublishScheduledPost(ctx, post.ID.Hex())
		if err != nil {
			p.log.WithField("post_id", post.ID.Hex()).Errorf("failed to publish scheduled post: %v", err)
			continue
		}
		if outcome.Duplicate {
			res.Skipped++
		} else {
			res.Published++
		}
	}

	p.log.WithFields(logrus.Fields{
		"due":       len(duePosts),
		"published": res.Published,
		"skipped":   res.Skipped,
	}).Info("scheduled post sweep completed")

	return res, nil
}

// PublishScheduledPost publishes one post idempotently. The state is
// re-checked immediately before the flip and the flip itself is a
// compare-and-set, so two racing callers cannot both publish: the loser
// observes Duplicate=true and performs no side effects.
func (p *Publisher) PublishScheduledPost(ctx context.Context, postID string) (PublishOutcome, error) {
	post, err := p.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return PublishOutcome{}, err
	}

	if post.IsPosted {
		return PublishOutcome{Success: true, Duplicate: true}, nil
	}

	published, err := p.postRepository.PublishScheduled(ctx, postID)
	if err != nil {
		return PublishOutcome{}, err
	}
	if !published {
		// Another process flipped the post between the read and the write.
		return PublishOutcome{Success: true, Duplicate: true}, nil
	}

	// The comment becomes visible now, so the parent's counter moves now.
	if post.ParentPostID != nil {
		if err := p.postRepository.AdjustCommentCount(ctx, post.ParentPostID.Hex(), 1); err != nil {
			p.log.WithField("post_id", postID).Errorf("failed to bump parent comment count: %v", err)
		}
	}

	return PublishOutcome{Success: true, Duplicate: false}, nil
}
