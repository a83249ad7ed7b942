package targets

import (
	"testing"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/enums"
)

func strPtr(s string) *string { return &s }

func TestEffectiveMetrics(t *testing.T) {
	cases := []struct {
		name string
		blob *string
		want []string
	}{
		{"nil", nil, []string{"impressions", "engagements", "followers", "profile_views", "calls_booked"}},
		{"malformed", strPtr("{not json"), []string{"impressions", "engagements", "followers", "profile_views", "calls_booked"}},
		{"legacy customs", strPtr(`{"__metrics__":[{"label":"Saves","key":"saves"}]}`), []string{"impressions", "engagements", "followers", "profile_views", "calls_booked", "saves"}},
		{"empty list falls back", strPtr(`{"__allMetrics__":[],"__metrics__":[{"label":"Saves","key":"saves"}]}`), []string{"impressions", "engagements", "followers", "profile_views", "calls_booked", "saves"}},
		{"explicit list", strPtr(`{"__allMetrics__":[{"type":"custom","label":"Saves","key":"saves"},{"type":"default","label":"Calls","key":"calls_booked"}]}`), []string{"saves", "calls_booked"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseGoals(tc.blob).Metrics()
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d metrics, got %d (%+v)", len(tc.want), len(got), got)
			}
			for i, key := range tc.want {
				if got[i].Key != key {
					t.Fatalf("metric %d: expected key %q, got %q", i, key, got[i].Key)
				}
			}
		})
	}
}

func TestLegacyCustomsAreTypedCustom(t *testing.T) {
	got := ParseGoals(strPtr(`{"__metrics__":[{"label":"Saves","key":"saves"}]}`)).Metrics()
	if last := got[len(got)-1]; last.Type != enums.MetricTypeCustom {
		t.Fatalf("expected custom type, got %q", last.Type)
	}
}

func TestEditableMetricsKeepsEmptyList(t *testing.T) {
	g := ParseGoals(strPtr(`{"__allMetrics__":[]}`))
	if n := len(g.editableMetrics()); n != 0 {
		t.Fatalf("expected an explicit empty list to stay empty, got %d", n)
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "0"},
		{12.5, "12.5"},
		{int64(7), "7"},
		{"300abc", "300"},
		{"  -4.25 units", "-4.25"},
		{".5", "0.5"},
		{"1e3", "1000"},
		{"abc", "0"},
		{[]byte("42"), "42"},
		{true, "0"},
	}
	for _, tc := range cases {
		if got := ParseNumber(tc.in).String(); got != tc.want {
			t.Fatalf("ParseNumber(%#v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestSummarizeStatusBands(t *testing.T) {
	goals := ParseGoals(strPtr(`{"Post Impressions":"100","Post Engagements":100,"Follower Count":100,"Profile Views":0}`))
	rows := []map[string]any{
		{"impressions": 79.6, "engagements": "50", "followers": 49.4, "profile_views": 5},
	}
	got := Summarize(goals, DefaultMetrics, rows, 3)

	want := []struct {
		status string
		pct    int64
	}{
		{StatusGreen, 80},
		{StatusAmber, 50},
		{StatusRed, 49},
	}
	for i, w := range want {
		if got[i].Status != w.status || got[i].Percent == nil || *got[i].Percent != w.pct {
			t.Fatalf("metric %s: expected %s/%d, got %s/%v", got[i].Key, w.status, w.pct, got[i].Status, got[i].Percent)
		}
	}
	if got[0].Daily == nil || got[0].Daily.String() != "33.33" {
		t.Fatalf("expected daily 33.33, got %v", got[0].Daily)
	}
	if got[3].Status != StatusNone || got[3].Target != nil {
		t.Fatalf("zero goal should read as no target, got %+v", got[3])
	}
	if got[4].Current.String() != "0" {
		t.Fatalf("expected empty column to sum to zero, got %s", got[4].Current)
	}

	noPeriod := Summarize(goals, DefaultMetrics[:1], rows, 0)
	if noPeriod[0].Daily != nil {
		t.Fatalf("daily must be absent without a period")
	}
}

func TestPeriodDays(t *testing.T) {
	if got := PeriodDays("2024-01-01", "2024-01-07"); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := PeriodDays("2024-02-28", "2024-03-01"); got != 3 {
		t.Fatalf("expected leap-year span of 3, got %d", got)
	}
	if got := PeriodDays("", "2024-01-07"); got != 0 {
		t.Fatalf("expected 0 without a start, got %d", got)
	}
}
