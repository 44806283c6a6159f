package web

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/sweeney/exposure-timer/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"lower": strings.ToLower,
	"join":  strings.Join,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="{{.Refresh}}">
<title>Exposure Timer</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; background: #111; color: #c33; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #400; }
th { width: 40%; }
.readout { font-size: 3em; letter-spacing: 0.1em; }
.running, .alerting { color: #f44; font-weight: bold; }
.paused, .menu { color: #c80; }
.setting { color: #c33; }
.unknown { color: #888; }
.connected { color: #6a6; }
.disconnected { color: #f44; }
</style>
</head>
<body>
<h1>Exposure Timer</h1>

{{$state := stateOrUnknown (printf "%s" .Timer.State)}}
<p id="readout" class="readout {{lower $state}}">{{if eq $state "RUNNING" "PAUSED"}}{{.Timer.Remaining}}{{else}}{{.Timer.Setting}}{{end}}</p>

<h2>State</h2>
<table>
<tr><th>State</th><td id="state" class="{{lower $state}}">{{$state}}</td></tr>
<tr><th>Setting</th><td>{{.Timer.Setting}}</td></tr>
<tr><th>Remaining</th><td>{{.Timer.Remaining}}</td></tr>
<tr><th>Enlarger</th><td>{{if .Timer.Output}}on{{else}}off{{end}}</td></tr>
<tr><th>Brightness</th><td>{{.Timer.Brightness}}</td></tr>
<tr><th>Alert</th><td>{{if .Timer.Alert.Enabled}}type {{.Timer.Alert.Type}}, {{.Timer.Alert.RepeatCount}} pulses in {{.Timer.Alert.Length}}s{{else}}off{{end}}</td></tr>
{{if .Timer.MenuItem}}<tr><th>Menu</th><td>{{.Timer.MenuItem}}{{if .Timer.Editing}} (editing){{end}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Started</th><td>{{.Timer.Counts.Started}}</td></tr>
<tr><th>Completed</th><td>{{.Timer.Counts.Completed}}</td></tr>
<tr><th>Aborted</th><td>{{.Timer.Counts.Aborted}}</td></tr>
<tr><th>Alerts</th><td>{{.Timer.Counts.Alerts}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{if .BootID}}<tr><th>Boot</th><td>{{.BootID}}</td></tr>{{end}}
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Long press</th><td>{{.Config.LongPressMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Storage</th><td>{{.Config.Storage}}</td></tr>
<tr><th>Display</th><td>{{.Config.Display}}</td></tr>
<tr><th>Menu</th><td>{{join .Config.MenuItems ", "}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

// refreshSeconds is how often the page reloads itself. Faster while an
// exposure or alert is in progress.
func refreshSeconds(snap status.Snapshot) int {
	switch snap.Timer.State {
	case "RUNNING", "ALERTING":
		return 1
	default:
		return 5
	}
}

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime  time.Duration
		Refresh int
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Refresh:  refreshSeconds(snap),
	}
	indexTmpl.Execute(w, data)
}
