package repositories

import (
	"github.com/unithreads/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	CreateNotification(n *models.Notification) error
	GetNotificationsByRecipient(userID uint, skip, limit int) ([]models.Notification, error)
	MarkRead(id, userID uint) error
	MarkAllRead(userID uint) error
}

// PostgresNotificationRepository implements NotificationRepository
type PostgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) CreateNotification(n *models.Notification) error {
	return r.db.Create(n).Error
}

func (r *PostgresNotificationRepository) GetNotificationsByRecipient(userID uint, skip, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("recipient_id = ?", userID).Order("created_at DESC").
		Offset(skip).Limit(limit).Find(&notifications).Error
	return notifications, err
}

func (r *PostgresNotificationRepository) MarkRead(id, userID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, userID).
		Update("is_read", true).Error
}

func (r *PostgresNotificationRepository) MarkAllRead(userID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}
