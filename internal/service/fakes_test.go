package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"vitalmine-server/internal/cache"
	"vitalmine-server/internal/feed"
	"vitalmine-server/internal/models"
	"vitalmine-server/internal/repository"
)

type memReadings struct {
	mu      sync.Mutex
	rows    []models.Reading
	saveErr error
	saves   int
}

func (m *memReadings) Save(_ context.Context, r *models.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
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

func (m *memReadings) sorted(keep func(models.Reading) bool, limit int) []models.Reading {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Reading
	for _, r := range m.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.After(out[j].RecordedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memReadings) ListBySubject(_ context.Context, subjectID string, limit int) ([]models.Reading, error) {
	return m.sorted(func(r models.Reading) bool { return r.BelongsTo(subjectID) }, limit), nil
}

func (m *memReadings) ListAll(_ context.Context, limit int) ([]models.Reading, error) {
	return m.sorted(func(models.Reading) bool { return true }, limit), nil
}

func (m *memReadings) Latest(ctx context.Context, subjectID string) (*models.Reading, error) {
	list, _ := m.ListBySubject(ctx, subjectID, 1)
	if len(list) == 0 {
		return nil, repository.ErrNotFound
	}
	return &list[0], nil
}

func (m *memReadings) add(subjectID string, r models.Reading) {
	if subjectID != "" {
		r.SubjectID = &subjectID
	}
	m.rows = append(m.rows, r)
}

// gatedReadings holds the first Save until release is closed.
type gatedReadings struct {
	*memReadings
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedReadings() *gatedReadings {
	return &gatedReadings{
		memReadings: &memReadings{},
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *gatedReadings) Save(ctx context.Context, r *models.Reading) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.memReadings.Save(ctx, r)
}

type memUsers struct {
	users []models.User
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.users = append(m.users, *u)
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByUsername(_ context.Context, name string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == name {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) List(context.Context) ([]models.User, error) { return m.users, nil }

func (m *memUsers) ListByRole(_ context.Context, role models.Role) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memUsers) Delete(context.Context, string) error { return nil }

type recordingPublisher struct {
	events []feed.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e feed.Event) error {
	p.events = append(p.events, e)
	return p.err
}

type failingCache struct{ err error }

func (f failingCache) Set(context.Context, string, cache.Status) error { return f.err }

func (f failingCache) Get(context.Context, string) (cache.Status, bool, error) {
	return cache.Status{}, false, f.err
}

func fixedClock(start time.Time) *Clock {
	return NewClock(func() time.Time { return start })
}
