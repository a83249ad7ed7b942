package dbtypes

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// IDList is a JSON array of user ids stored in a TEXT column. Entries may be
// numbers or numeric strings; both compare equal.
type IDList []int64

// Scan never fails: malformed content decodes to an empty list.
func (l *IDList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = IDList{}
	case string:
		*l = ParseIDListLenient(v)
	case []byte:
		*l = ParseIDListLenient(string(v))
	default:
		return fmt.Errorf("IDList: unsupported Scan type %T", src)
	}
	return nil
}

func (l IDList) Value() (driver.Value, error) {
	return l.String(), nil
}

func (l IDList) String() string {
	if len(l) == 0 {
		return "[]"
	}
	parts := make([]string, 0, len(l))
	for _, id := range l {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// UnmarshalJSON requires a JSON array; entries must be integers or integer strings.
func (l *IDList) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*l = nil
		return nil
	}
	parsed, err := ParseIDList(data)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

func (l IDList) MarshalJSON() ([]byte, error) {
	return []byte(l.String()), nil
}

// Contains uses loose equality, so "5" and 5 are the same member.
func (l IDList) Contains(id int64) bool {
	for _, candidate := range l {
		if candidate == id {
			return true
		}
	}
	return false
}

// ParseIDList decodes a JSON array strictly.
func ParseIDList(data []byte) (IDList, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("expected a JSON array of ids")
	}
	var raw []any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode id list: %w", err)
	}
	out := make(IDList, 0, len(raw))
	for i, entry := range raw {
		id, ok := looseID(entry)
		if !ok {
			return nil, fmt.Errorf("entry %d is not a valid id", i)
		}
		out = append(out, id)
	}
	return out, nil
}

// ParseIDListLenient skips entries that are not ids and treats malformed
// content as an empty list.
func ParseIDListLenient(raw string) IDList {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return IDList{}
	}
	var entries []any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&entries); err != nil {
		return IDList{}
	}
	out := make(IDList, 0, len(entries))
	for _, entry := range entries {
		if id, ok := looseID(entry); ok {
			out = append(out, id)
		}
	}
	return out
}

func looseID(v any) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if id, err := t.Int64(); err == nil {
			return id, true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return wholeID(f)
	case float64:
		return wholeID(t)
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

// wholeID accepts integral floats that fit in an int64. float64(MaxInt64)
// rounds up to 2^63, hence the strict upper bound.
func wholeID(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
