package repositories

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DraftRecord is the GORM row backing one stored draft.
type DraftRecord struct {
	Key       string `gorm:"primaryKey;type:varchar(255)"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName keeps the table name stable regardless of GORM's pluralization.
func (DraftRecord) TableName() string {
	return "form_drafts"
}

// GORMDraftRepository is a GORM implementation of DraftRepository. It works
// against the SQLite file used locally as well as a Postgres DSN.
type GORMDraftRepository struct {
	db *gorm.DB
}

// NewGORMDraftRepository creates a new instance of GORMDraftRepository and
// migrates the backing table.
func NewGORMDraftRepository(db *gorm.DB) (*GORMDraftRepository, error) {
	if err := db.AutoMigrate(&DraftRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate draft storage: %w", err)
	}
	return &GORMDraftRepository{db: db}, nil
}

// Get retrieves the stored value for a key, or "" when the key is absent.
func (r *GORMDraftRepository) Get(key string) (string, error) {
	var record DraftRecord
	if err := r.db.First(&record, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read draft %s: %w", key, err)
	}
	return record.Value, nil
}

// Set stores or overwrites the value for a key.
func (r *GORMDraftRepository) Set(key, value string) error {
	record := DraftRecord{Key: key, Value: value, UpdatedAt: time.Now()}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save draft %s: %w", key, err)
	}
	return nil
}

// Remove deletes the value for a key. Removing an absent key is not an
// error; the caller only cares that the key is gone.
func (r *GORMDraftRepository) Remove(key string) error {
	if err := r.db.Delete(&DraftRecord{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("failed to remove draft %s: %w", key, err)
	}
	return nil
}
