package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/station-controller/internal/status"
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
	"state":     status.StateName,
	"clockTime": status.ClockTime,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="10">
<title>Station Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.alert { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Station Controller</h1>

<h2>Actuators</h2>
<table>
<tr><th>Interlock</th><td id="interlock" class="{{if .Interlock}}on{{else}}alert{{end}}">{{if .Interlock}}ENGAGED{{else}}DISENGAGED{{end}}</td></tr>
{{range .Subsystems}}<tr><th>{{.Name}}{{if .HasLine}} (line {{.Line}}){{end}}</th><td class="{{if .Enabled}}on{{else}}off{{end}}">{{state .Enabled}}{{if and .HasLine (ne .Enabled .Sensed)}} <span class="alert">sensed {{state .Sensed}}</span>{{end}}</td></tr>
{{end}}</table>

<h2>Lighting</h2>
<table>
<tr><th>Level</th><td>{{.LightLevel}}</td></tr>
<tr><th>Auto</th><td>{{if .AutoLight}}on{{else}}off{{end}}</td></tr>
<tr><th>Period</th><td>{{if .Day}}day{{else}}night{{end}}</td></tr>
<tr><th>Day starts</th><td>{{clockTime .DayTime}}</td></tr>
<tr><th>Night starts</th><td>{{clockTime .NightTime}}</td></tr>
</table>

<h2>Alerts</h2>
<table>
<tr><th>Low voltage</th><td class="{{if .Alerts.LowVoltage}}alert{{else}}off{{end}}">{{if .Alerts.LowVoltage}}ACTIVE{{else}}clear{{end}} ({{.AlertCounts.LowVoltage}})</td></tr>
<tr><th>Low pressure</th><td class="{{if .Alerts.LowPressure}}alert{{else}}off{{end}}">{{if .Alerts.LowPressure}}ACTIVE{{else}}clear{{end}} ({{.AlertCounts.LowPressure}})</td></tr>
<tr><th>Station open</th><td class="{{if .Alerts.StationOpen}}alert{{else}}off{{end}}">{{if .Alerts.StationOpen}}ACTIVE{{else}}clear{{end}} ({{.AlertCounts.StationOpen}})</td></tr>
</table>

<h2>Ground Link</h2>
<table>
<tr><th>Port</th><td>{{.Config.SerialPort}}</td></tr>
<tr><th>Frames</th><td>{{.Link.Frames}}</td></tr>
<tr><th>Frame errors</th><td>{{.Link.FrameErrors}}</td></tr>
<tr><th>Unknown opcodes</th><td>{{.Link.UnknownOpcodes}}</td></tr>
<tr><th>Interlock rejections</th><td>{{.Link.InterlockRejections}}</td></tr>
<tr><th>Replies</th><td>{{.Link.Replies}}</td></tr>
<tr><th>Send failures</th><td>{{.Link.SendFailures}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Station time</th><td>{{if .StationTime.IsZero}}unset{{else}}{{.StationTime.Format "2006-01-02 15:04:05"}}{{end}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sensor tick</th><td>{{.Config.SensorMs}}ms</td></tr>
<tr><th>Schedule tick</th><td>{{.Config.ScheduleMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/subsystems.json">subsystems</a> | <a href="/health">health</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render: %v", err)
	}
}
