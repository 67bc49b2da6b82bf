package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/amaumene/gotrackarr/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the authoritative per-user document store for title records
// and notification history, backed by sqlite. Writes to title records
// are partial merges: only the columns present in the field map are
// touched.
type Store struct {
	db *gorm.DB
}

// NewStore opens the database and runs migrations
func NewStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&models.TitleRecord{}, &models.NotificationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Title record operations

// GetRecord retrieves a title record by its composite key
func (s *Store) GetRecord(userID string, kind models.Kind, titleID int64) (*models.TitleRecord, error) {
	var record models.TitleRecord
	err := s.db.
		Where("user_id = ? AND kind = ? AND title_id = ?", userID, kind, titleID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	return &record, nil
}

// CreateRecord inserts a new title record
func (s *Store) CreateRecord(record *models.TitleRecord) error {
	record.CreatedAt = time.Now()
	record.UpdatedAt = time.Now()
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

// MergeRecord merge-writes only the given fields into an existing
// record, leaving all other columns untouched
func (s *Store) MergeRecord(userID string, kind models.Kind, titleID int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	result := s.db.Model(&models.TitleRecord{}).
		Where("user_id = ? AND kind = ? AND title_id = ?", userID, kind, titleID).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to merge record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListRecords retrieves all records for a user and kind, optionally
// filtered to a set of categories
func (s *Store) ListRecords(userID string, kind models.Kind, categories ...models.Category) ([]*models.TitleRecord, error) {
	query := s.db.Where("user_id = ? AND kind = ?", userID, kind)
	if len(categories) > 0 {
		query = query.Where("category IN ?", categories)
	}

	var records []*models.TitleRecord
	if err := query.Order("title_id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

// Notification history operations

// AppendNotification appends an entry to the notification history
func (s *Store) AppendNotification(record *models.NotificationRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to append notification: %w", err)
	}
	return nil
}

// ListNotifications retrieves notification history for a user, most
// recent first
func (s *Store) ListNotifications(userID string, unreadOnly bool, limit int) ([]*models.NotificationRecord, error) {
	query := s.db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []*models.NotificationRecord
	if err := query.Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return records, nil
}
