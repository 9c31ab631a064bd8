package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vitalmine-server/internal/advice"
	"vitalmine-server/internal/cache"
	"vitalmine-server/internal/models"
	"vitalmine-server/internal/repository"
	"vitalmine-server/internal/risk"
)

// Placeholder values shown when a subject has nothing recorded.
const (
	StatusUnknown  = "Unknown"
	StatusNoData   = "No Data"
	LastSeenNever  = "Never"
	SeriesNoData   = "no data"
	DefaultWindow  = 20
	lastSeenLayout = "2006-01-02"
)

// Dashboard is a subject's history with its latest status on top.
type Dashboard struct {
	SubjectID string           `json:"subjectId"`
	Status    string           `json:"status"`
	Advice    string           `json:"advice"`
	Empty     bool             `json:"empty"`
	Readings  []models.Reading `json:"readings"`
}

// Point is one sample of the trend series.
type Point struct {
	Timestamp   time.Time  `json:"timestamp"`
	Temperature float64    `json:"temperature"`
	HeartRate   int        `json:"heartRate"`
	RespRate    int        `json:"respRate"`
	WBCCount    float64    `json:"wbcCount"`
	Label       risk.Label `json:"status"`
}

// Series is the most recent readings in ascending time order.
type Series struct {
	SubjectID string  `json:"subjectId"`
	Points    []Point `json:"points"`
	Empty     bool    `json:"empty"`
	Message   string  `json:"message,omitempty"`
}

// WardStats counts readings by outcome. Stable counts everything that is not
// High, Warning included.
type WardStats struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Stable int `json:"stable"`
}

// WardOverview is every reading plus summary counts.
type WardOverview struct {
	Stats    WardStats        `json:"stats"`
	Readings []models.Reading `json:"readings"`
}

// DirectoryEntry is one subject row of the staff directory.
type DirectoryEntry struct {
	SubjectID  string `json:"subjectId"`
	Username   string `json:"username"`
	FullName   string `json:"fullName"`
	LastStatus string `json:"lastStatus"`
	LastSeen   string `json:"lastSeen"`
}

// Trends derives read-only views over stored readings.
type Trends struct {
	readings repository.ReadingRepository
	users    repository.UserRepository
	status   cache.StatusCache
	window   int
	log      *zap.Logger
}

// NewTrends creates a Trends. window <= 0 uses DefaultWindow and a nil
// status cache disables caching.
func NewTrends(readings repository.ReadingRepository, users repository.UserRepository, status cache.StatusCache, window int, log *zap.Logger) *Trends {
	if window <= 0 {
		window = DefaultWindow
	}
	if status == nil {
		status = cache.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Trends{readings: readings, users: users, status: status, window: window, log: log}
}

// Window is the default series length.
func (t *Trends) Window() int { return t.window }

// Dashboard returns the subject's readings newest first.
func (t *Trends) Dashboard(ctx context.Context, subjectID string) (Dashboard, error) {
	list, err := t.readings.ListBySubject(ctx, subjectID, 0)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: %w", err)
	}
	d := Dashboard{SubjectID: subjectID, Readings: list}
	if len(list) == 0 {
		d.Status = StatusUnknown
		d.Advice = advice.NoData
		d.Empty = true
		d.Readings = []models.Reading{}
		return d, nil
	}
	d.Status = string(list[0].RiskLabel)
	d.Advice = list[0].Advice
	return d, nil
}

// Series returns up to n of the subject's newest readings in ascending
// order. n <= 0 uses the configured window.
func (t *Trends) Series(ctx context.Context, subjectID string, n int) (Series, error) {
	if n <= 0 {
		n = t.window
	}
	list, err := t.readings.ListBySubject(ctx, subjectID, n)
	if err != nil {
		return Series{}, fmt.Errorf("series: %w", err)
	}
	s := Series{SubjectID: subjectID, Points: make([]Point, 0, len(list))}
	if len(list) == 0 {
		s.Empty = true
		s.Message = SeriesNoData
		return s, nil
	}
	for i := len(list) - 1; i >= 0; i-- {
		r := list[i]
		s.Points = append(s.Points, Point{
			Timestamp:   r.RecordedAt,
			Temperature: r.Temperature,
			HeartRate:   r.HeartRate,
			RespRate:    r.RespRate,
			WBCCount:    r.WBCCount,
			Label:       r.RiskLabel,
		})
	}
	return s, nil
}

// Ward returns every reading newest first with summary counts.
func (t *Trends) Ward(ctx context.Context) (WardOverview, error) {
	list, err := t.readings.ListAll(ctx, 0)
	if err != nil {
		return WardOverview{}, fmt.Errorf("ward overview: %w", err)
	}
	if list == nil {
		list = []models.Reading{}
	}
	w := WardOverview{Readings: list}
	w.Stats.Total = len(list)
	for _, r := range list {
		if r.RiskLabel == risk.High {
			w.Stats.High++
		}
	}
	w.Stats.Stable = w.Stats.Total - w.Stats.High
	return w, nil
}

// Directory lists every subject with its latest status and last-seen day.
func (t *Trends) Directory(ctx context.Context) ([]DirectoryEntry, error) {
	subjects, err := t.users.ListByRole(ctx, models.RoleSubject)
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}

	out := make([]DirectoryEntry, 0, len(subjects))
	for _, u := range subjects {
		e := DirectoryEntry{
			SubjectID:  u.ID,
			Username:   u.Username,
			FullName:   fullName(u),
			LastStatus: StatusNoData,
			LastSeen:   LastSeenNever,
		}
		st, ok, err := t.latestStatus(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("directory: %w", err)
		}
		if ok {
			e.LastStatus = string(st.Label)
			e.LastSeen = st.RecordedAt.Format(lastSeenLayout)
		}
		out = append(out, e)
	}
	return out, nil
}

func (t *Trends) latestStatus(ctx context.Context, subjectID string) (cache.Status, bool, error) {
	st, ok, err := t.status.Get(ctx, subjectID)
	if err != nil {
		t.log.Warn("status cache read failed", zap.String("subject_id", subjectID), zap.Error(err))
	} else if ok {
		return st, true, nil
	}

	r, err := t.readings.Latest(ctx, subjectID)
	if errors.Is(err, repository.ErrNotFound) {
		return cache.Status{}, false, nil
	}
	if err != nil {
		return cache.Status{}, false, err
	}
	st = cache.Status{ReadingID: r.ID, Label: r.RiskLabel, Advice: r.Advice, RecordedAt: r.RecordedAt}
	if err := t.status.Set(ctx, subjectID, st); err != nil {
		t.log.Warn("status cache fill failed", zap.String("subject_id", subjectID), zap.Error(err))
	}
	return st, true, nil
}

func fullName(u models.User) string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}
