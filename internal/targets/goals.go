package targets

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
	"github.com/shopspring/decimal"
)

const (
	allMetricsKey    = "__allMetrics__"
	legacyMetricsKey = "__metrics__"
)

// MetricDef binds a display label to a data column.
type MetricDef struct {
	Type  enums.MetricType `json:"type"`
	Label string           `json:"label"`
	Key   string           `json:"key"`
}

// DefaultMetrics are the five built-in metrics backed by the fixed columns.
var DefaultMetrics = []MetricDef{
	{Type: enums.MetricTypeDefault, Label: "Post Impressions", Key: "impressions"},
	{Type: enums.MetricTypeDefault, Label: "Post Engagements", Key: "engagements"},
	{Type: enums.MetricTypeDefault, Label: "Follower Count", Key: "followers"},
	{Type: enums.MetricTypeDefault, Label: "Profile Views", Key: "profile_views"},
	{Type: enums.MetricTypeDefault, Label: "Calls Booked", Key: "calls_booked"},
}

// Goals is the per-target goals blob: goal values keyed by metric label plus
// the metric list under __allMetrics__. Unknown keys survive a round trip.
type Goals struct {
	raw map[string]json.RawMessage
}

// ParseGoals decodes blob. Missing or malformed content yields empty goals.
func ParseGoals(blob *string) Goals {
	g := Goals{raw: map[string]json.RawMessage{}}
	if blob == nil || strings.TrimSpace(*blob) == "" {
		return g
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(*blob), &raw); err != nil || raw == nil {
		return g
	}
	g.raw = raw
	return g
}

// Metrics returns the effective metric list: __allMetrics__ when it is a
// non-empty array, otherwise the defaults followed by legacy customs.
func (g Goals) Metrics() []MetricDef {
	if list, ok := g.allMetrics(); ok && len(list) > 0 {
		return list
	}
	return g.fallback()
}

// editableMetrics is the list mutations start from. An existing
// __allMetrics__ array is used as is, even when empty.
func (g Goals) editableMetrics() []MetricDef {
	if list, ok := g.allMetrics(); ok {
		return list
	}
	return g.fallback()
}

func (g Goals) allMetrics() ([]MetricDef, bool) {
	raw, ok := g.raw[allMetricsKey]
	if !ok {
		return nil, false
	}
	var list []MetricDef
	if err := json.Unmarshal(raw, &list); err != nil || list == nil {
		return nil, false
	}
	for i := range list {
		if !list[i].Type.IsValid() {
			list[i].Type = enums.MetricTypeCustom
		}
	}
	return list, true
}

func (g Goals) fallback() []MetricDef {
	out := make([]MetricDef, 0, len(DefaultMetrics))
	out = append(out, DefaultMetrics...)
	raw, ok := g.raw[legacyMetricsKey]
	if !ok {
		return out
	}
	var legacy []MetricDef
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return out
	}
	for _, m := range legacy {
		out = append(out, MetricDef{Type: enums.MetricTypeCustom, Label: m.Label, Key: m.Key})
	}
	return out
}

func (g *Goals) setMetrics(list []MetricDef) error {
	if list == nil {
		list = []MetricDef{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	g.raw[allMetricsKey] = raw
	return nil
}

// Target returns the goal value for label, parsed like any numeric cell.
// The second result is false when no positive goal is set.
func (g Goals) Target(label string) (decimal.Decimal, bool) {
	raw, ok := g.raw[label]
	if !ok {
		return decimal.Zero, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return decimal.Zero, false
	}
	d := ParseNumber(v)
	return d, d.IsPositive()
}

// moveValue carries the goal value from one label to another.
func (g *Goals) moveValue(from, to string) bool {
	raw, ok := g.raw[from]
	if !ok || from == to {
		return false
	}
	delete(g.raw, from)
	g.raw[to] = raw
	return true
}

func (g *Goals) deleteValue(label string) {
	delete(g.raw, label)
}

// Encode serializes the blob for the registry.
func (g Goals) Encode() (string, error) {
	raw, err := json.Marshal(g.raw)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func indexOfMetric(list []MetricDef, key string) int {
	for i, m := range list {
		if m.Key == key {
			return i
		}
	}
	return -1
}

var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseNumber reads the leading numeric part of a cell value. Anything that
// does not start with a number counts as zero.
func ParseNumber(v any) decimal.Decimal {
	switch val := v.(type) {
	case nil:
		return decimal.Zero
	case float64:
		return decimal.NewFromFloat(val)
	case float32:
		return decimal.NewFromFloat32(val)
	case int64:
		return decimal.NewFromInt(val)
	case int:
		return decimal.NewFromInt(int64(val))
	case bool:
		return decimal.Zero
	case []byte:
		return parseNumericString(string(val))
	case string:
		return parseNumericString(val)
	case json.Number:
		return parseNumericString(val.String())
	default:
		return decimal.Zero
	}
}

func parseNumericString(s string) decimal.Decimal {
	match := numericPrefix.FindString(strings.TrimSpace(s))
	if match == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(match)
	if err != nil {
		// Exponents beyond what decimal accepts still parse as floats.
		f, ferr := strconv.ParseFloat(match, 64)
		if ferr != nil {
			return decimal.Zero
		}
		return decimal.NewFromFloat(f)
	}
	return d
}
