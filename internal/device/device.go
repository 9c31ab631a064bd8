// Package device connects bedside and wearable devices to the recorder:
// an MQTT ingestor on the server side and a simulator that plays a device.
package device

import (
	"fmt"
	"strings"

	"vitalmine-server/internal/vitals"
)

// IngestTopic is the wildcard subscription for every device.
const IngestTopic = "vitalmine/devices/+/vitals"

// Payload is one device transmission.
type Payload struct {
	Temperature float64 `json:"temperature"`
	HeartRate   int     `json:"heartRate"`
	RespRate    int     `json:"respRate"`
	WBCCount    float64 `json:"wbcCount"`
	Name        string  `json:"name,omitempty"`
}

// Vitals returns the measurement part of p.
func (p Payload) Vitals() vitals.Vitals {
	return vitals.Vitals{
		Temperature: p.Temperature,
		HeartRate:   p.HeartRate,
		RespRate:    p.RespRate,
		WBCCount:    p.WBCCount,
	}
}

// TopicFor is the topic a device paired with username publishes on.
func TopicFor(username string) string {
	return "vitalmine/devices/" + username + "/vitals"
}

// UsernameFromTopic extracts the subject username from a device topic.
func UsernameFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "vitalmine" || parts[1] != "devices" || parts[3] != "vitals" || parts[2] == "" {
		return "", fmt.Errorf("unexpected device topic %q", topic)
	}
	return parts[2], nil
}
