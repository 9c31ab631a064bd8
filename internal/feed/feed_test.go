package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalmine-server/internal/models"
	"vitalmine-server/internal/risk"
)

func sampleReading(subjectID string) *models.Reading {
	r := &models.Reading{
		DisplayName: "alice",
		Temperature: 38.6,
		HeartRate:   88,
		RespRate:    16,
		WBCCount:    7000,
		RiskLabel:   risk.Warning,
		Advice:      "High Fever detected. Take antipyretics and hydrate.",
		Trigger:     string(risk.Fever),
		RecordedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	r.ID = "reading-1"
	if subjectID != "" {
		r.SubjectID = &subjectID
	}
	return r
}

func TestEvent_Topics(t *testing.T) {
	assert.Equal(t, []string{TopicWard}, NewReadingEvent(sampleReading("")).Topics())
	assert.Equal(t, []string{TopicWard, "subject/s1"}, NewReadingEvent(sampleReading("s1")).Topics())
}

func TestHub_PublishRoutesByTopic(t *testing.T) {
	hub := NewHub(nil)
	ward := NewClient(TopicWard)
	mine := NewClient(SubjectTopic("s1"))
	other := NewClient(SubjectTopic("s2"))
	hub.Register(ward)
	hub.Register(mine)
	hub.Register(other)
	require.Equal(t, 3, hub.ClientCount())

	require.NoError(t, hub.Publish(context.Background(), NewReadingEvent(sampleReading("s1"))))

	assert.Len(t, ward.Send, 1)
	assert.Len(t, mine.Send, 1)
	assert.Len(t, other.Send, 0)

	var got Event
	require.NoError(t, json.Unmarshal(<-mine.Send, &got))
	assert.Equal(t, EventReadingRecorded, got.Type)
	assert.Equal(t, "s1", got.SubjectID)
	assert.Equal(t, risk.Warning, got.Reading.RiskLabel)
}

func TestHub_UnregisterTwice(t *testing.T) {
	hub := NewHub(nil)
	c := NewClient(TopicWard)
	hub.Register(c)
	hub.Unregister(c)
	hub.Unregister(c)

	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, 0, hub.TopicCount(TopicWard))
	_, open := <-c.Send
	assert.False(t, open)
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	c := NewClient(TopicWard)
	hub.Register(c)

	for i := 0; i < sendBuffer+10; i++ {
		hub.Broadcast(TopicWard, []byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, Event) error { return f.err }

func TestMulti_JoinsErrors(t *testing.T) {
	hub := NewHub(nil)
	c := NewClient(TopicWard)
	hub.Register(c)

	boom := errors.New("boom")
	m := Multi{failingPublisher{err: boom}, hub, nil, Discard{}}
	err := m.Publish(context.Background(), NewReadingEvent(sampleReading("")))

	require.ErrorIs(t, err, boom)
	assert.Len(t, c.Send, 1)
}

func TestRedisStream_Values(t *testing.T) {
	s := NewRedisStream(nil, "", 1000)
	assert.Equal(t, DefaultStream, s.stream)

	values, err := s.Values(NewReadingEvent(sampleReading("s1")))
	require.NoError(t, err)
	assert.Equal(t, EventReadingRecorded, values["type"])
	assert.Equal(t, "s1", values["subject_id"])
	assert.Equal(t, "reading-1", values["reading_id"])
	assert.Equal(t, "Warning", values["label"])
	assert.Contains(t, values["data"], `"temperature":38.6`)
}

func TestHub_ServeStreamsToWebsocket(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, nil, SubjectTopic("s1"))
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.TopicCount(SubjectTopic("s1")) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), NewReadingEvent(sampleReading("s1"))))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "reading-1", got.Reading.ID)
}
