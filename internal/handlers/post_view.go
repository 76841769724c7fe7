package handlers

import (
	"context"

	"github.com/unithreads/backend/internal/models"
	"github.com/unithreads/backend/internal/repositories"
	"github.com/unithreads/backend/pkg/logger"
	"github.com/unithreads/backend/pkg/storage"
)

// postView is a post enriched for display: creator profile, resolved
// media URLs, and the viewer's like/save state.
type postView struct {
	models.Post
	MediaURLs []string            `json:"media_urls,omitempty"`
	Creator   *models.UserCompact `json:"creator,omitempty"`
	IsLiked   bool                `json:"is_liked"`
	IsSaved   bool                `json:"is_saved"`
}

// PostEnricher batches the lookups needed to turn raw post documents
// into display views.
type PostEnricher struct {
	userRepository      repositories.UserRepository
	likeRepository      repositories.LikeRepository
	savedPostRepository repositories.SavedPostRepository
	mediaResolver       storage.Resolver
}

func NewPostEnricher(
	userRepo repositories.UserRepository,
	likeRepo repositories.LikeRepository,
	savedRepo repositories.SavedPostRepository,
	resolver storage.Resolver,
) *PostEnricher {
	return &PostEnricher{
		userRepository:      userRepo,
		likeRepository:      likeRepo,
		savedPostRepository: savedRepo,
		mediaResolver:       resolver,
	}
}

// enrich builds views for a page of posts. Creator lookups are batched;
// like/save state is resolved for the viewer in two queries. A missing
// creator row leaves the view without a creator rather than failing the
// page.
func (e *PostEnricher) enrich(ctx context.Context, viewerID uint, posts []models.Post) ([]postView, error) {
	if len(posts) == 0 {
		return []postView{}, nil
	}

	userIDSet := make(map[uint]struct{}, len(posts))
	postIDs := make([]string, len(posts))
	for i, p := range posts {
		userIDSet[p.UserID] = struct{}{}
		postIDs[i] = p.ID.Hex()
	}
	userIDs := make([]uint, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}

	creators, err := e.userRepository.GetUsersByIDs(userIDs)
	if err != nil {
		return nil, err
	}
	creatorByID := make(map[uint]models.UserCompact, len(creators))
	for _, u := range creators {
		creatorByID[u.ID] = u.ToCompact()
	}

	liked := map[string]bool{}
	saved := map[string]bool{}
	if viewerID != 0 {
		if liked, err = e.likeRepository.GetLikedPostIDs(viewerID, postIDs); err != nil {
			return nil, err
		}
		if saved, err = e.savedPostRepository.GetSavedPostIDs(viewerID, postIDs); err != nil {
			return nil, err
		}
	}

	views := make([]postView, len(posts))
	for i, p := range posts {
		id := p.ID.Hex()
		view := postView{
			Post:    p,
			IsLiked: liked[id],
			IsSaved: saved[id],
		}
		if creator, ok := creatorByID[p.UserID]; ok {
			if creator.ImageURL != "" {
				if url, rerr := storage.ResolveRef(ctx, e.mediaResolver, creator.ImageURL); rerr == nil {
					creator.ImageURL = url
				} else {
					creator.ImageURL = ""
				}
			}
			view.Creator = &creator
		}
		if len(p.MediaRefs) > 0 {
			view.MediaURLs = storage.ResolveAll(ctx, e.mediaResolver, p.MediaRefs)
			if len(view.MediaURLs) < len(p.MediaRefs) {
				logger.Log.Warnf("dropped %d unresolvable media refs on post %s", len(p.MediaRefs)-len(view.MediaURLs), id)
			}
		}
		views[i] = view
	}
	return views, nil
}

// enrichOne is the single-post variant of enrich.
func (e *PostEnricher) enrichOne(ctx context.Context, viewerID uint, post *models.Post) (*postView, error) {
	views, err := e.enrich(ctx, viewerID, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}
