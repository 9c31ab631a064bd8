// Package feed fans recorded readings out to live listeners: websocket
// clients through the Hub and downstream consumers through a redis stream.
package feed

import (
	"context"
	"errors"
	"time"

	"vitalmine-server/internal/models"
)

// EventReadingRecorded is emitted once per persisted reading.
const EventReadingRecorded = "reading.recorded"

// TopicWard receives every reading.
const TopicWard = "ward"

// SubjectTopic is the topic carrying one subject's readings.
func SubjectTopic(subjectID string) string {
	return "subject/" + subjectID
}

// Event is a notification about a reading.
type Event struct {
	Type      string          `json:"type"`
	SubjectID string          `json:"subjectId,omitempty"`
	Reading   *models.Reading `json:"reading"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewReadingEvent builds the event for a freshly stored reading.
func NewReadingEvent(r *models.Reading) Event {
	e := Event{Type: EventReadingRecorded, Reading: r, Timestamp: r.RecordedAt}
	if r.SubjectID != nil {
		e.SubjectID = *r.SubjectID
	}
	return e
}

// Topics returns every topic the event belongs to.
func (e Event) Topics() []string {
	if e.SubjectID == "" {
		return []string{TopicWard}
	}
	return []string{TopicWard, SubjectTopic(e.SubjectID)}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi publishes to every member and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
