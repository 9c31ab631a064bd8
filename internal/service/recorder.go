// Package service holds the reading workflow: recording scored entries and
// aggregating them into dashboards, series and ward views.
package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"vitalmine-server/internal/advice"
	"vitalmine-server/internal/cache"
	"vitalmine-server/internal/feed"
	"vitalmine-server/internal/models"
	"vitalmine-server/internal/repository"
	"vitalmine-server/internal/risk"
	"vitalmine-server/internal/vitals"
)

// MaxDisplayNameLength matches the readings.display_name column.
const MaxDisplayNameLength = 100

// State is the lifecycle stage an entry reached.
type State int

const (
	Unscored State = iota
	Scored
	Persisted
)

func (s State) String() string {
	switch s {
	case Scored:
		return "scored"
	case Persisted:
		return "persisted"
	default:
		return "unscored"
	}
}

// Submission is one set of vitals to record.
type Submission struct {
	Vitals      vitals.Vitals
	SubjectID   *string
	DisplayName string
	// Actor is the username of whoever submitted; it names ad-hoc entries
	// that arrive without a display name.
	Actor string
}

// Outcome is the result of a Record call.
type Outcome struct {
	Reading    *models.Reading
	Assessment risk.Assessment
	State      State
}

// Recorder validates, scores, stores and announces readings.
type Recorder struct {
	readings repository.ReadingRepository
	policy   *risk.Policy
	status   cache.StatusCache
	events   feed.Publisher
	clock    *Clock
	log      *zap.Logger
}

// RecorderOption customises a Recorder.
type RecorderOption func(*Recorder)

// WithStatusCache updates cache after each stored subject reading.
func WithStatusCache(c cache.StatusCache) RecorderOption {
	return func(r *Recorder) { r.status = c }
}

// WithPublisher announces stored readings on p.
func WithPublisher(p feed.Publisher) RecorderOption {
	return func(r *Recorder) { r.events = p }
}

// WithClock replaces the timestamp source.
func WithClock(c *Clock) RecorderOption {
	return func(r *Recorder) { r.clock = c }
}

// NewRecorder creates a Recorder.
func NewRecorder(readings repository.ReadingRepository, policy *risk.Policy, log *zap.Logger, opts ...RecorderOption) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Recorder{
		readings: readings,
		policy:   policy,
		status:   cache.Noop{},
		events:   feed.Discard{},
		clock:    NewClock(nil),
		log:      log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RecordRaw parses form values and records them.
func (r *Recorder) RecordRaw(ctx context.Context, raw vitals.Raw, subjectID *string, displayName, actor string) (*Outcome, error) {
	v, err := vitals.ParseRaw(raw)
	if err != nil {
		return &Outcome{State: Unscored}, err
	}
	return r.Record(ctx, Submission{Vitals: v, SubjectID: subjectID, DisplayName: displayName, Actor: actor})
}

// Record validates, scores and stores one submission. Invalid input is never
// stored. Failures after the reading is stored are logged, not returned.
func (r *Recorder) Record(ctx context.Context, sub Submission) (*Outcome, error) {
	out := &Outcome{State: Unscored}

	v, err := vitals.Validate(sub.Vitals)
	if err != nil {
		return out, err
	}
	name, err := displayName(sub)
	if err != nil {
		return out, err
	}

	a := r.policy.Assess(v)
	reading := &models.Reading{
		SubjectID:   sub.SubjectID,
		DisplayName: name,
		Temperature: v.Temperature,
		HeartRate:   v.HeartRate,
		RespRate:    v.RespRate,
		WBCCount:    v.WBCCount,
		RiskLabel:   a.Label,
		Advice:      advice.ForAssessment(a),
		Trigger:     string(a.Trigger),
		Strategy:    a.Strategy,
		SIRSScore:   a.SIRSScore,
	}
	out.Reading = reading
	out.Assessment = a
	out.State = Scored

	reading.RecordedAt = r.clock.Next()
	if err := r.readings.Save(ctx, reading); err != nil {
		return out, fmt.Errorf("record reading: %w", err)
	}
	out.State = Persisted

	r.log.Info("reading recorded",
		zap.String("reading_id", reading.ID),
		zap.String("subject_id", subjectField(reading.SubjectID)),
		zap.String("label", string(reading.RiskLabel)),
		zap.String("trigger", reading.Trigger),
		zap.String("strategy", reading.Strategy),
		zap.Int("sirs_score", reading.SIRSScore),
	)
	r.notify(ctx, reading)
	return out, nil
}

func (r *Recorder) notify(ctx context.Context, reading *models.Reading) {
	if reading.SubjectID != nil {
		err := r.status.Set(ctx, *reading.SubjectID, cache.Status{
			ReadingID:  reading.ID,
			Label:      reading.RiskLabel,
			Advice:     reading.Advice,
			RecordedAt: reading.RecordedAt,
		})
		if err != nil {
			r.log.Warn("status cache update failed", zap.String("reading_id", reading.ID), zap.Error(err))
		}
	}
	if err := r.events.Publish(ctx, feed.NewReadingEvent(reading)); err != nil {
		r.log.Warn("reading event publish failed", zap.String("reading_id", reading.ID), zap.Error(err))
	}
}

func displayName(sub Submission) (string, error) {
	name := strings.TrimSpace(sub.DisplayName)
	if name == "" {
		name = strings.TrimSpace(sub.Actor)
	}
	if name == "" {
		return "", &vitals.InvalidVitalsError{Field: "name", Reason: "is required"}
	}
	if len([]rune(name)) > MaxDisplayNameLength {
		return "", &vitals.InvalidVitalsError{Field: "name", Reason: fmt.Sprintf("must be at most %d characters", MaxDisplayNameLength)}
	}
	return name, nil
}

func subjectField(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}
