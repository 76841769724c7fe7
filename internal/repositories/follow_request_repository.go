package repositories

import (
	"errors"

	"github.com/unithreads/backend/internal/domain"
	"github.com/unithreads/backend/internal/models"
	"gorm.io/gorm"
)

// FollowRequestRepository defines the interface for follow request
// operations (the approval gate for private accounts)
type FollowRequestRepository interface {
	Create(req *models.FollowRequest) error
	GetByID(id uint) (*models.FollowRequest, error)
	GetPendingBySenderReceiver(senderID, receiverID uint) (*models.FollowRequest, error)
	GetPendingForReceiver(receiverID uint) ([]models.FollowRequest, error)
	UpdateStatus(id uint, status string) error
	DeletePendingBySenderReceiver(senderID, receiverID uint) (bool, error)
}

// PostgresFollowRequestRepository implements FollowRequestRepository
type PostgresFollowRequestRepository struct {
	db *gorm.DB
}

func NewPostgresFollowRequestRepository(db *gorm.DB) *PostgresFollowRequestRepository {
	return &PostgresFollowRequestRepository{db: db}
}

func (r *PostgresFollowRequestRepository) Create(req *models.FollowRequest) error {
	req.Status = models.FollowRequestPending
	return r.db.Create(req).Error
}

func (r *PostgresFollowRequestRepository) GetByID(id uint) (*models.FollowRequest, error) {
	var req models.FollowRequest
	if err := r.db.First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// GetPendingBySenderReceiver finds the pending request for an ordered pair
func (r *PostgresFollowRequestRepository) GetPendingBySenderReceiver(senderID, receiverID uint) (*models.FollowRequest, error) {
	var req models.FollowRequest
	err := r.db.Where("sender_id = ? AND receiver_id = ? AND status = ?",
		senderID, receiverID, models.FollowRequestPending).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// GetPendingForReceiver retrieves all pending requests addressed to a user
func (r *PostgresFollowRequestRepository) GetPendingForReceiver(receiverID uint) ([]models.FollowRequest, error) {
	var requests []models.FollowRequest
	err := r.db.Where("receiver_id = ? AND status = ?", receiverID, models.FollowRequestPending).
		Order("created_at DESC").Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *PostgresFollowRequestRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.FollowRequest{}).Where("id = ?", id).Update("status", status).Error
}

// DeletePendingBySenderReceiver withdraws a pending request. Returns false
// when there was nothing to withdraw.
func (r *PostgresFollowRequestRepository) DeletePendingBySenderReceiver(senderID, receiverID uint) (bool, error) {
	res := r.db.Where("sender_id = ? AND receiver_id = ? AND status = ?",
		senderID, receiverID, models.FollowRequestPending).Delete(&models.FollowRequest{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
