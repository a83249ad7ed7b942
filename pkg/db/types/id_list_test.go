package dbtypes

import (
	"encoding/json"
	"testing"
)

func TestScanLooseEntries(t *testing.T) {
	var l IDList
	if err := l.Scan(`[1,"2"," 3 ",4.0,"x",null]`); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(l) != 4 || l[0] != 1 || l[1] != 2 || l[2] != 3 || l[3] != 4 {
		t.Fatalf("unexpected ids %v", l)
	}
	if !l.Contains(2) || l.Contains(9) {
		t.Fatalf("contains mismatch for %v", l)
	}
}

func TestScanMalformedIsEmpty(t *testing.T) {
	for _, raw := range []any{nil, "", "not json", []byte(`{"a":1}`)} {
		var l IDList
		if err := l.Scan(raw); err != nil {
			t.Fatalf("scan %v: %v", raw, err)
		}
		if len(l) != 0 {
			t.Fatalf("expected empty list for %v, got %v", raw, l)
		}
	}
}

func TestUnmarshalRequiresArray(t *testing.T) {
	var payload struct {
		UserIDs IDList `json:"userIds"`
	}
	if err := json.Unmarshal([]byte(`{"userIds":"5"}`), &payload); err == nil {
		t.Fatalf("expected error for non-array")
	}
	if err := json.Unmarshal([]byte(`{"userIds":[5,"abc"]}`), &payload); err == nil {
		t.Fatalf("expected error for non-numeric entry")
	}
	if err := json.Unmarshal([]byte(`{"userIds":[5,"6"]}`), &payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.UserIDs.String() != "[5,6]" {
		t.Fatalf("unexpected encoding %s", payload.UserIDs.String())
	}
}

func TestOutOfRangeNumbersAreNotIDs(t *testing.T) {
	var l IDList
	if err := l.Scan(`[1e30,-1e30,9223372036854775808,7,2e3]`); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(l) != 2 || l[0] != 7 || l[1] != 2000 {
		t.Fatalf("unexpected ids %v", l)
	}

	if _, err := ParseIDList([]byte(`[1e30]`)); err == nil {
		t.Fatalf("expected error for an id past int64")
	}
	if _, ok := wholeID(-9223372036854775808); !ok {
		t.Fatalf("min int64 should be accepted")
	}
}
