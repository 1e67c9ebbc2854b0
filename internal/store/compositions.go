package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/scoreforge/scoreforge-api/internal/models"
)

// CompositionStore persists generation results. The store is optional: when
// no database is configured the API runs without history.
type CompositionStore struct {
	db *gorm.DB
}

func NewCompositionStore(db *gorm.DB) *CompositionStore {
	return &CompositionStore{db: db}
}

// Save records one composition.
func (s *CompositionStore) Save(ctx context.Context, c *models.Composition) error {
	return s.db.WithContext(ctx).Create(c).Error
}

// List returns the most recent compositions, newest first.
func (s *CompositionStore) List(ctx context.Context, limit int) ([]models.Composition, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var out []models.Composition
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

// Get returns one composition by request ID.
func (s *CompositionStore) Get(ctx context.Context, requestID string) (*models.Composition, error) {
	var c models.Composition
	if err := s.db.WithContext(ctx).Where("request_id = ?", requestID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}
