package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vitalmine-server/internal/models"
)

// ReadingStore is the gorm ReadingRepository.
type ReadingStore struct {
	db *gorm.DB
}

// NewReadingStore creates a ReadingStore.
func NewReadingStore(db *gorm.DB) *ReadingStore {
	return &ReadingStore{db: db}
}

func (s *ReadingStore) Save(ctx context.Context, r *models.Reading) error {
	if !r.RiskLabel.Valid() || r.Advice == "" {
		return fmt.Errorf("save reading: unscored reading")
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("save reading: %w", err)
	}
	return nil
}

func (s *ReadingStore) Get(ctx context.Context, id string) (*models.Reading, error) {
	var r models.Reading
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reading %s: %w", id, err)
	}
	return &r, nil
}

func (s *ReadingStore) ListBySubject(ctx context.Context, subjectID string, limit int) ([]models.Reading, error) {
	var out []models.Reading
	q := newestFirst(s.db.WithContext(ctx).Where("subject_id = ?", subjectID), limit)
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list readings for %s: %w", subjectID, err)
	}
	return out, nil
}

func (s *ReadingStore) ListAll(ctx context.Context, limit int) ([]models.Reading, error) {
	var out []models.Reading
	if err := newestFirst(s.db.WithContext(ctx), limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	return out, nil
}

func (s *ReadingStore) Latest(ctx context.Context, subjectID string) (*models.Reading, error) {
	list, err := s.ListBySubject(ctx, subjectID, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

// newestFirst orders by recording time with the insert sequence as tie-break.
func newestFirst(q *gorm.DB, limit int) *gorm.DB {
	q = q.Order("recorded_at DESC").Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}
