// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/exposure-timer/internal/logic"
)

// Topic is the MQTT topic for exposure events.
const Topic = "darkroom/exposure-timer/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "darkroom/exposure-timer/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a controller event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Nop discards every message. It stands in when no broker is configured.
type Nop struct{}

func (Nop) Publish(logic.Event) error       { return nil }
func (Nop) PublishSystem(SystemEvent) error { return nil }
func (Nop) Close() error                    { return nil }
func (Nop) IsConnected() bool               { return false }

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Timer TimerPayload `json:"timer"`
}

// TimerPayload contains the exposure event details.
type TimerPayload struct {
	Timestamp        string `json:"timestamp"`
	Event            string `json:"event"`
	State            string `json:"state"`
	Setting          string `json:"setting"`
	SettingSeconds   int    `json:"setting_seconds"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Slot             int    `json:"slot,omitempty"`
	Detail           string `json:"detail,omitempty"`
	BootID           string `json:"boot_id,omitempty"`
}

// FormatPayload creates the JSON payload for a controller event.
func FormatPayload(event logic.Event, bootID string) ([]byte, error) {
	payload := Payload{
		Timer: TimerPayload{
			Timestamp:        event.Timestamp.UTC().Format(time.RFC3339),
			Event:            string(event.Type),
			State:            string(event.State),
			Setting:          event.Setting.String(),
			SettingSeconds:   event.Setting.TotalSeconds(),
			RemainingSeconds: event.Remaining.TotalSeconds(),
			Slot:             event.Slot,
			Detail:           event.Detail,
			BootID:           bootID,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
	BootID    string `json:"boot_id,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent, bootID string) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
			BootID:    bootID,
		},
	}
	return json.Marshal(payload)
}
