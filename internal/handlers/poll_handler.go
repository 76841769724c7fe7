package handlers

import (
	"errors"
	"math"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/unithreads/backend/internal/domain"
	"github.com/unithreads/backend/internal/models"
	"github.com/unithreads/backend/internal/repositories"
)

// PollHandler handles poll voting and results
type PollHandler struct {
	pollVoteRepository repositories.PollVoteRepository
	postRepository     repositories.PostRepository
	userRepository     repositories.UserRepository
}

// NewPollHandler creates a new PollHandler
func NewPollHandler(
	pollVoteRepo repositories.PollVoteRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
) *PollHandler {
	return &PollHandler{
		pollVoteRepository: pollVoteRepo,
		postRepository:     postRepo,
		userRepository:     userRepo,
	}
}

// RegisterPollRoutes registers poll-related routes
func (h *PollHandler) RegisterPollRoutes(g *echo.Group) {
	g.POST("/posts/:id/vote", h.Vote)
	g.GET("/posts/:id/poll-results", h.GetResults)
}

// Vote casts, retracts or moves the caller's vote. Voting for the
// current option again retracts it; voting for a different option moves
// the vote. One vote per user per poll.
func (h *PollHandler) Vote(c echo.Context) error {
	actor, err := getActor(c, h.userRepository)
	if err != nil {
		return err
	}

	var req models.VotePollRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	pollID := c.Param("id")
	post, err := h.postRepository.GetPostByID(ctx, pollID)
	if err != nil {
		return domainHTTPError(err, "Poll not found")
	}
	if !post.IsPoll {
		return domainHTTPError(domain.ErrInvalidState, "Post is not a poll")
	}
	if req.OptionIndex >= len(post.PollOptions) {
		return echo.NewHTTPError(http.StatusBadRequest, "Option index out of range")
	}

	existing, err := h.pollVoteRepository.GetVote(pollID, actor.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		vote := &models.PollVote{PollID: pollID, UserID: actor.ID, OptionIndex: req.OptionIndex}
		if err := h.pollVoteRepository.CreateVote(vote); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to record vote")
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"action": "vote"}})

	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())

	case existing.OptionIndex == req.OptionIndex:
		if err := h.pollVoteRepository.DeleteVote(existing.ID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retract vote")
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"action": "unvote"}})

	default:
		if err := h.pollVoteRepository.UpdateVoteOption(existing.ID, req.OptionIndex); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to move vote")
		}
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"action": "change"}})
	}
}

// pollOptionResult is one option's tally.
type pollOptionResult struct {
	Option     string `json:"option"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
	Voters     []uint `json:"voters"`
}

// GetResults tallies a poll. Percentages are rounded to whole numbers
// and are zero when nobody has voted.
func (h *PollHandler) GetResults(c echo.Context) error {
	ctx := c.Request().Context()
	pollID := c.Param("id")
	post, err := h.postRepository.GetPostByID(ctx, pollID)
	if err != nil {
		return domainHTTPError(err, "Poll not found")
	}
	if !post.IsPoll {
		return domainHTTPError(domain.ErrInvalidState, "Post is not a poll")
	}

	votes, err := h.pollVoteRepository.GetVotesByPoll(pollID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	viewerID := getUserIDFromContext(c)
	var userVote *int
	results := make([]pollOptionResult, len(post.PollOptions))
	for i, opt := range post.PollOptions {
		results[i] = pollOptionResult{Option: opt, Voters: []uint{}}
	}
	for _, v := range votes {
		if v.OptionIndex < 0 || v.OptionIndex >= len(results) {
			continue // vote for an option the poll no longer has
		}
		results[v.OptionIndex].Count++
		results[v.OptionIndex].Voters = append(results[v.OptionIndex].Voters, v.UserID)
		if viewerID != 0 && v.UserID == viewerID {
			idx := v.OptionIndex
			userVote = &idx
		}
	}

	total := 0
	for _, r := range results {
		total += r.Count
	}
	if total > 0 {
		for i := range results {
			results[i].Percentage = int(math.Round(float64(results[i].Count) / float64(total) * 100))
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{
		"question":   post.PollQuestion,
		"options":    results,
		"totalVotes": total,
		"userVote":   userVote,
	}})
}
