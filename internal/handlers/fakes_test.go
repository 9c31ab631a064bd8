package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"vitalmine-server/internal/middleware"
	"vitalmine-server/internal/models"
	"vitalmine-server/internal/repository"
	"vitalmine-server/internal/vitals"
)

type memUsers struct {
	mu    sync.Mutex
	users []models.User
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = fmt.Sprintf("u%03d", len(m.users)+1)
	}
	u.Role = u.Role.OrDefault()
	m.users = append(m.users, *u)
	return nil
}

func (m *memUsers) find(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.ID == id })
}

func (m *memUsers) GetByUsername(_ context.Context, name string) (*models.User, error) {
	return m.find(func(u models.User) bool { return u.Username == name })
}

func (m *memUsers) List(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.User(nil), m.users...), nil
}

func (m *memUsers) ListByRole(_ context.Context, role models.Role) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, u := range m.users {
		if u.ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memUsers) add(id, username, password string, role models.Role) models.User {
	u := models.User{Username: username, Role: role}
	u.ID = id
	if password != "" {
		if err := u.SetPassword(password); err != nil {
			panic(err)
		}
	}
	m.users = append(m.users, u)
	return u
}

type memTokens struct {
	mu     sync.Mutex
	tokens []*models.RefreshToken
}

func (m *memTokens) Create(_ context.Context, t *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, t)
	return nil
}

func (m *memTokens) FindUsable(_ context.Context, token, userID string, now time.Time) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Token == token && t.UserID == userID && t.Usable(now) {
			return t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memTokens) FindActive(_ context.Context, token string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Token == token && !t.IsRevoked {
			return t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memTokens) Revoke(_ context.Context, t *models.RefreshToken, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.IsRevoked = true
	t.ExpiresAt = at
	return nil
}

type memReadings struct {
	mu      sync.Mutex
	rows    []models.Reading
	listErr error
}

func (m *memReadings) Save(_ context.Context, r *models.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = fmt.Sprintf("r%03d", len(m.rows)+1)
	}
	m.rows = append(m.rows, *r)
	return nil
}

func (m *memReadings) Get(_ context.Context, id string) (*models.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memReadings) list(keep func(models.Reading) bool, limit int) ([]models.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Reading
	for _, r := range m.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memReadings) ListBySubject(_ context.Context, subjectID string, limit int) ([]models.Reading, error) {
	return m.list(func(r models.Reading) bool { return r.BelongsTo(subjectID) }, limit)
}

func (m *memReadings) ListAll(_ context.Context, limit int) ([]models.Reading, error) {
	return m.list(func(models.Reading) bool { return true }, limit)
}

func (m *memReadings) Latest(ctx context.Context, subjectID string) (*models.Reading, error) {
	list, err := m.ListBySubject(ctx, subjectID, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, repository.ErrNotFound
	}
	return &list[0], nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

var errDown = errors.New("connection refused")

// as stands in for AuthMiddleware.
func as(id, username string, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetIdentity(c, id, username, role)
		c.Next()
	}
}

func vitalsWithTemp(temp float64) vitals.Vitals {
	return vitals.Vitals{Temperature: temp, HeartRate: 80, RespRate: 16, WBCCount: 8000}
}
