// Package repository persists users, refresh tokens and readings with gorm.
package repository

import (
	"context"
	"errors"
	"time"

	"vitalmine-server/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique value is already taken.
	ErrDuplicate = errors.New("record already exists")
)

// ReadingRepository stores immutable readings. There is deliberately no
// update operation.
type ReadingRepository interface {
	Save(ctx context.Context, r *models.Reading) error
	Get(ctx context.Context, id string) (*models.Reading, error)
	// ListBySubject returns the subject's readings newest first. limit <= 0
	// means no limit.
	ListBySubject(ctx context.Context, subjectID string, limit int) ([]models.Reading, error)
	// ListAll returns every reading newest first. limit <= 0 means no limit.
	ListAll(ctx context.Context, limit int) ([]models.Reading, error)
	Latest(ctx context.Context, subjectID string) (*models.Reading, error)
}

// UserRepository stores accounts.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	Delete(ctx context.Context, id string) error
}

// TokenRepository stores refresh tokens.
type TokenRepository interface {
	Create(ctx context.Context, t *models.RefreshToken) error
	FindUsable(ctx context.Context, token, userID string, now time.Time) (*models.RefreshToken, error)
	FindActive(ctx context.Context, token string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, t *models.RefreshToken, at time.Time) error
}
