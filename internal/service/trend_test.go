package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalmine-server/internal/advice"
	"vitalmine-server/internal/cache"
	"vitalmine-server/internal/models"
	"vitalmine-server/internal/risk"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func reading(id string, at time.Time, label risk.Label, temp float64) models.Reading {
	r := models.Reading{
		DisplayName: "alice",
		Temperature: temp,
		HeartRate:   80,
		RespRate:    16,
		WBCCount:    8000,
		RiskLabel:   label,
		Advice:      advice.For(label, risk.NoTrigger),
		RecordedAt:  at,
	}
	r.ID = id
	return r
}

func TestTrends_DashboardEmpty(t *testing.T) {
	tr := NewTrends(&memReadings{}, &memUsers{}, nil, 0, nil)

	d, err := tr.Dashboard(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, d.Empty)
	assert.Equal(t, StatusUnknown, d.Status)
	assert.Equal(t, advice.NoData, d.Advice)
	assert.NotNil(t, d.Readings)
}

func TestTrends_DashboardLatestFirst(t *testing.T) {
	store := &memReadings{}
	store.add("s1", reading("a", t0, risk.Stable, 36.8))
	store.add("s1", reading("b", t0.Add(time.Hour), risk.High, 39.5))
	store.add("s2", reading("c", t0.Add(2*time.Hour), risk.Stable, 36.9))
	tr := NewTrends(store, &memUsers{}, nil, 0, nil)

	d, err := tr.Dashboard(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, d.Empty)
	assert.Equal(t, "High", d.Status)
	assert.Equal(t, advice.Critical, d.Advice)
	require.Len(t, d.Readings, 2)
	assert.Equal(t, "b", d.Readings[0].ID)
}

func TestTrends_SeriesAscendingAndLimited(t *testing.T) {
	store := &memReadings{}
	for i := 0; i < 5; i++ {
		store.add("s1", reading(string(rune('a'+i)), t0.Add(time.Duration(i)*time.Minute), risk.Stable, 36.0+float64(i)/10))
	}
	tr := NewTrends(store, &memUsers{}, nil, 3, nil)

	s, err := tr.Series(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, s.Points, 3)
	assert.Equal(t, t0.Add(2*time.Minute), s.Points[0].Timestamp)
	assert.Equal(t, t0.Add(4*time.Minute), s.Points[2].Timestamp)
	for i := 1; i < len(s.Points); i++ {
		assert.True(t, s.Points[i].Timestamp.After(s.Points[i-1].Timestamp))
	}

	s, err = tr.Series(context.Background(), "s1", 10)
	require.NoError(t, err)
	assert.Len(t, s.Points, 5)
}

func TestTrends_SeriesEmpty(t *testing.T) {
	tr := NewTrends(&memReadings{}, &memUsers{}, nil, 0, nil)

	s, err := tr.Series(context.Background(), "s1", 5)
	require.NoError(t, err)
	assert.True(t, s.Empty)
	assert.Equal(t, SeriesNoData, s.Message)
	assert.Empty(t, s.Points)
}

func TestTrends_WardStats(t *testing.T) {
	store := &memReadings{}
	store.add("s1", reading("a", t0, risk.High, 39.5))
	store.add("s1", reading("b", t0.Add(time.Minute), risk.Warning, 38.5))
	store.add("", reading("c", t0.Add(2*time.Minute), risk.Stable, 36.8))
	tr := NewTrends(store, &memUsers{}, nil, 0, nil)

	w, err := tr.Ward(context.Background())
	require.NoError(t, err)
	assert.Equal(t, WardStats{Total: 3, High: 1, Stable: 2}, w.Stats)
	assert.Equal(t, "c", w.Readings[0].ID)
}

func TestTrends_Directory(t *testing.T) {
	store := &memReadings{}
	store.add("s1", reading("a", t0, risk.Warning, 38.5))

	users := &memUsers{users: []models.User{
		{Username: "alice", FirstName: "Alice", LastName: "Doe", Role: models.RoleSubject},
		{Username: "bob", Role: models.RoleSubject},
		{Username: "nina", Role: models.RoleClinician},
	}}
	users.users[0].ID = "s1"
	users.users[1].ID = "s2"
	users.users[2].ID = "c1"

	statuses := cache.NewMemory()
	tr := NewTrends(store, users, statuses, 0, nil)

	dir, err := tr.Directory(context.Background())
	require.NoError(t, err)
	require.Len(t, dir, 2)

	assert.Equal(t, "Alice Doe", dir[0].FullName)
	assert.Equal(t, "Warning", dir[0].LastStatus)
	assert.Equal(t, "2024-05-01", dir[0].LastSeen)

	assert.Equal(t, "bob", dir[1].FullName)
	assert.Equal(t, StatusNoData, dir[1].LastStatus)
	assert.Equal(t, LastSeenNever, dir[1].LastSeen)

	_, cached, err := statuses.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, cached)
}

func TestTrends_DirectoryPrefersCache(t *testing.T) {
	users := &memUsers{users: []models.User{{Username: "alice", Role: models.RoleSubject}}}
	users.users[0].ID = "s1"

	statuses := cache.NewMemory()
	require.NoError(t, statuses.Set(context.Background(), "s1", cache.Status{Label: risk.High, RecordedAt: t0}))

	tr := NewTrends(&memReadings{}, users, statuses, 0, nil)
	dir, err := tr.Directory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "High", dir[0].LastStatus)
}
