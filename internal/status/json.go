package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event            string       `json:"event,omitempty"`
	Reason           string       `json:"reason,omitempty"`
	State            string       `json:"state"`
	Setting          string       `json:"setting"`
	SettingSeconds   int          `json:"setting_seconds"`
	Remaining        string       `json:"remaining"`
	RemainingSeconds int          `json:"remaining_seconds"`
	Output           bool         `json:"output"`
	Brightness       int          `json:"brightness"`
	Alert            AlertJSON    `json:"alert"`
	Menu             *MenuJSON    `json:"menu,omitempty"`
	UptimeSeconds    int64        `json:"uptime_seconds"`
	StartTime        string       `json:"start_time"`
	Timestamp        string       `json:"timestamp"`
	BootID           string       `json:"boot_id,omitempty"`
	MQTT             MQTTStatus   `json:"mqtt"`
	Counts           CountsJSON   `json:"event_counts"`
	Network          *NetworkJSON `json:"network,omitempty"`
	Config           *ConfigJSON  `json:"config,omitempty"`
}

// AlertJSON is the JSON representation of the alert configuration.
type AlertJSON struct {
	Type        int  `json:"type"`
	Length      int  `json:"length_seconds"`
	RepeatCount int  `json:"repeat_count"`
	Enabled     bool `json:"enabled"`
}

// MenuJSON reports the highlighted menu item.
type MenuJSON struct {
	Item    string `json:"item"`
	Editing bool   `json:"editing"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Started   int `json:"started"`
	Completed int `json:"completed"`
	Aborted   int `json:"aborted"`
	Alerts    int `json:"alerts"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64    `json:"tick_ms"`
	DebounceMs  int64    `json:"debounce_ms"`
	LongPressMs int64    `json:"long_press_ms"`
	HeartbeatMs int64    `json:"heartbeat_ms"`
	Broker      string   `json:"broker"`
	HTTPAddr    string   `json:"http_addr"`
	Storage     string   `json:"storage"`
	Display     string   `json:"display"`
	MenuItems   []string `json:"menu_items"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.Timer.State)
	if state == "" {
		state = "UNKNOWN"
	}
	tm := snap.Timer

	inner := StatusInner{
		State:            state,
		Setting:          tm.Setting.String(),
		SettingSeconds:   tm.Setting.TotalSeconds(),
		Remaining:        tm.Remaining.String(),
		RemainingSeconds: tm.Remaining.TotalSeconds(),
		Output:           tm.Output,
		Brightness:       tm.Brightness,
		Alert: AlertJSON{
			Type:        tm.Alert.Type,
			Length:      tm.Alert.Length,
			RepeatCount: tm.Alert.RepeatCount(),
			Enabled:     tm.Alert.Enabled(),
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		BootID:        snap.BootID,
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Started:   tm.Counts.Started,
			Completed: tm.Counts.Completed,
			Aborted:   tm.Counts.Aborted,
			Alerts:    tm.Counts.Alerts,
		},
	}
	if tm.MenuItem != "" {
		inner.Menu = &MenuJSON{Item: tm.MenuItem, Editing: tm.Editing}
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

func buildConfig(snap Snapshot) *ConfigJSON {
	return &ConfigJSON{
		TickMs:      snap.Config.TickMs,
		DebounceMs:  snap.Config.DebounceMs,
		LongPressMs: snap.Config.LongPressMs,
		HeartbeatMs: snap.Config.HeartbeatMs,
		Broker:      snap.Config.Broker,
		HTTPAddr:    snap.Config.HTTPAddr,
		Storage:     snap.Config.Storage,
		Display:     snap.Config.Display,
		MenuItems:   snap.Config.MenuItems,
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	inner.Config = buildConfig(snap)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
// Only STARTUP carries the config block.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	if event == "STARTUP" {
		inner.Config = buildConfig(snap)
	}

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
