package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// maxEpochSeconds bounds numeric timestamps to roughly years -5900..9900;
// anything outside is printed as received.
const maxEpochSeconds = 2.5e11

// timeLayout matches what operators are used to seeing from the greenhouse
// dashboard: date, a space, wall-clock time.
const timeLayout = "2006-01-02 15:04:05"

// field is one known sensor value with its display label and unit suffix.
type field struct {
	key   string
	label string
	unit  string
}

// gasSensor is an MQ-series sensor reported as a raw/baseline/drop triple.
type gasSensor struct {
	prefix string
	title  string
}

// Only these keys are ever displayed; anything else in a reading is ignored.
var (
	scalarFields = []field{
		{key: "temperature_bmp280", label: "Temperature (BMP280)", unit: "°C"},
		{key: "temperature_dht22", label: "Temperature (DHT22)", unit: "°C"},
		{key: "humidity", label: "Humidity", unit: "%"},
		{key: "pressure", label: "Pressure", unit: " hPa"},
		{key: "altitude", label: "Altitude", unit: " m"},
		{key: "light_raw", label: "Light (raw)"},
		{key: "light_percent", label: "Light (%)", unit: "%"},
		{key: "flame_raw", label: "Flame (raw)"},
	}

	gasSensors = []gasSensor{
		{prefix: "mq135", title: "Air Quality (MQ135)"},
		{prefix: "mq2", title: "Flammable Gas (MQ2)"},
		{prefix: "mq7", title: "Carbon Monoxide (MQ7)"},
	}
)

const missingValue = "n/a"

// Printer renders readings as numbered console blocks.
type Printer struct {
	w   io.Writer
	loc *time.Location
}

// NewPrinter writes to w and renders numeric timestamps in loc
// (time.Local when nil).
func NewPrinter(w io.Writer, loc *time.Location) *Printer {
	if loc == nil {
		loc = time.Local
	}
	return &Printer{w: w, loc: loc}
}

// Printf writes a formatted line. A nil Printer discards it.
func (p *Printer) Printf(format string, args ...any) {
	if p == nil {
		return
	}
	fmt.Fprintf(p.w, format+"\n", args...)
}

// PrintReadings writes one block per reading, numbered from 1.
func (p *Printer) PrintReadings(readings []Reading) {
	for i, r := range readings {
		p.PrintReading(i+1, r)
	}
}

// PrintReading writes the block for a single reading.
func (p *Printer) PrintReading(n int, r Reading) {
	p.Printf("\nReading #%d:", n)

	if ts, ok := p.timestamp(r); ok {
		p.Printf("Time: %s", ts)
	}

	for _, f := range scalarFields {
		if v, ok := r[f.key]; ok {
			p.Printf("%s: %s%s", f.label, formatValue(v), f.unit)
		}
	}

	if v, ok := r["flame_detected"]; ok {
		detected := "No"
		if truthy(v) {
			detected = "Yes"
		}
		p.Printf("Flame detected: %s", detected)
	}

	for _, g := range gasSensors {
		raw, ok := r[g.prefix+"_raw"]
		if !ok {
			continue
		}
		p.Printf("%s", g.title)
		p.Printf("  Raw: %s", formatValue(raw))
		p.Printf("  Baseline: %s", lookup(r, g.prefix+"_baseline"))
		p.Printf("  Drop: %s", lookup(r, g.prefix+"_drop"))
	}
}

// timestamp resolves "timestamp" (epoch seconds when numeric) and falls back
// to "timestamp_reading", which is always shown verbatim.
func (p *Printer) timestamp(r Reading) (string, bool) {
	if v, ok := r["timestamp"]; ok {
		if t, ok := epochTime(v); ok {
			return formatTime(t.In(p.loc)), true
		}
		return formatValue(v), true
	}
	if v, ok := r["timestamp_reading"]; ok {
		return formatValue(v), true
	}
	return "", false
}

func epochTime(v any) (time.Time, bool) {
	var secs float64
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return time.Time{}, false
		}
		secs = f
	case float64:
		secs = n
	case int:
		secs = float64(n)
	case int64:
		secs = float64(n)
	default:
		return time.Time{}, false
	}
	if secs > maxEpochSeconds || secs < -maxEpochSeconds {
		return time.Time{}, false
	}
	whole := int64(secs)
	frac := secs - float64(whole)
	return time.Unix(whole, int64(frac*float64(time.Second)+0.5)), true
}

// formatTime prints microseconds only when the timestamp has a fractional part.
func formatTime(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(timeLayout)
	}
	return t.Format(timeLayout + ".000000")
}

func lookup(r Reading, key string) string {
	v, ok := r[key]
	if !ok {
		return missingValue
	}
	return formatValue(v)
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

// truthy follows the loose rules the firmware relies on: false, 0, "",
// null and empty containers are false, everything else is true.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}
