package repositories

import (
	"errors"

	"github.com/unithreads/backend/internal/domain"
	"github.com/unithreads/backend/internal/models"
	"gorm.io/gorm"
)

// PollVoteRepository defines the interface for poll vote operations
type PollVoteRepository interface {
	GetVote(pollID string, userID uint) (*models.PollVote, error)
	CreateVote(vote *models.PollVote) error
	UpdateVoteOption(id uint, optionIndex int) error
	DeleteVote(id uint) error
	GetVotesByPoll(pollID string) ([]models.PollVote, error)
}

// PostgresPollVoteRepository implements PollVoteRepository
type PostgresPollVoteRepository struct {
	db *gorm.DB
}

func NewPostgresPollVoteRepository(db *gorm.DB) *PostgresPollVoteRepository {
	return &PostgresPollVoteRepository{db: db}
}

// GetVote retrieves the user's current vote on a poll, if any
func (r *PostgresPollVoteRepository) GetVote(pollID string, userID uint) (*models.PollVote, error) {
	var vote models.PollVote
	if err := r.db.Where("poll_id = ? AND user_id = ?", pollID, userID).First(&vote).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &vote, nil
}

func (r *PostgresPollVoteRepository) CreateVote(vote *models.PollVote) error {
	return r.db.Create(vote).Error
}

// UpdateVoteOption moves an existing vote to a different option in place
func (r *PostgresPollVoteRepository) UpdateVoteOption(id uint, optionIndex int) error {
	return r.db.Model(&models.PollVote{}).Where("id = ?", id).
		Update("option_index", optionIndex).Error
}

func (r *PostgresPollVoteRepository) DeleteVote(id uint) error {
	return r.db.Delete(&models.PollVote{}, id).Error
}

// GetVotesByPoll returns every vote on a poll
func (r *PostgresPollVoteRepository) GetVotesByPoll(pollID string) ([]models.PollVote, error) {
	var votes []models.PollVote
	if err := r.db.Where("poll_id = ?", pollID).Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}
