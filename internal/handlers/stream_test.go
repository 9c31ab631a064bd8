package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalmine-server/internal/feed"
	"vitalmine-server/internal/models"
)

func TestStream_TopicFollowsRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := feed.NewHub(nil)
	h := NewStreamHandler(hub, "")

	for _, tc := range []struct {
		name  string
		who   gin.HandlerFunc
		topic string
	}{
		{"subject", as("s1", "patient_om", models.RoleSubject), feed.SubjectTopic("s1")},
		{"clinician", as("c1", "doctor", models.RoleClinician), feed.TopicWard},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(tc.who)
			r.GET("/readings/stream", h.Stream)
			srv := httptest.NewServer(r)
			defer srv.Close()

			url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/readings/stream"
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			require.NoError(t, err)
			defer conn.Close()

			require.Eventually(t, func() bool { return hub.TopicCount(tc.topic) == 1 }, time.Second, 10*time.Millisecond)

			subject := "s1"
			reading := &models.Reading{SubjectID: &subject, DisplayName: "patient_om"}
			reading.ID = "r1"
			require.NoError(t, hub.Publish(context.Background(), feed.NewReadingEvent(reading)))

			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, msg, err := conn.ReadMessage()
			require.NoError(t, err)
			assert.Contains(t, string(msg), `"r1"`)

			conn.Close()
			require.Eventually(t, func() bool { return hub.TopicCount(tc.topic) == 0 }, 2*time.Second, 10*time.Millisecond)
		})
	}
}
