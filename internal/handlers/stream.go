package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vitalmine-server/internal/feed"
)

// StreamHandler upgrades clients onto the live reading feed.
type StreamHandler struct {
	Hub         *feed.Hub
	CheckOrigin func(*http.Request) bool
}

// NewStreamHandler creates a new StreamHandler accepting the given origin.
// An empty origin keeps gorilla's same-origin check.
func NewStreamHandler(hub *feed.Hub, origin string) *StreamHandler {
	h := &StreamHandler{Hub: hub}
	if origin != "" {
		h.CheckOrigin = func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || o == origin
		}
	}
	return h
}

// Stream subscribes subjects to their own readings and staff to the ward.
func (h *StreamHandler) Stream(c *gin.Context) {
	who, ok := currentCaller(c)
	if !ok {
		return
	}
	topic := feed.SubjectTopic(who.ID)
	if who.Role.IsStaff() {
		topic = feed.TopicWard
	}
	if err := h.Hub.Serve(c.Writer, c.Request, h.CheckOrigin, topic); err != nil {
		// The upgrader has already answered the request.
		_ = c.Error(err)
	}
}
