package database

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"supplement_tracker/internal/domain/schedule"
	"supplement_tracker/internal/domain/supplement"
)

// supplementDoc is the canonical JSON document written to supplements.doc.
// Records written by older clients use several shapes for the same field;
// decodeSupplementDoc reads those field by field.
type supplementDoc struct {
	StartDate   json.RawMessage `json:"startDate,omitempty"`
	DosesPerDay *looseNumber    `json:"dosesPerDay,omitempty"`
	Servings    *looseNumber    `json:"servings,omitempty"`
	Cycle       *cycleDoc       `json:"cycle,omitempty"`
	Dosage      string          `json:"dosage,omitempty"`
	Times       []string        `json:"times,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

type cycleDoc struct {
	On  *looseNumber `json:"on"`
	Off *looseNumber `json:"off"`
}

// looseNumber accepts 2, 2.5 and "2". A string that is not a number
// leaves the value unset.
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*n = looseNumber(math.NaN())
			return nil
		}
		*n = looseNumber(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = looseNumber(f)
	return nil
}

// value reports the number, with ok false when it is absent or unreadable.
func (n *looseNumber) value() (float64, bool) {
	if n == nil || math.IsNaN(float64(*n)) || math.IsInf(float64(*n), 0) {
		return 0, false
	}
	return float64(*n), true
}

// decodeNumber reads one loosely typed numeric field.
func decodeNumber(raw json.RawMessage) (float64, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return 0, false
	}
	n := looseNumber(math.NaN())
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n.value()
}

// decodeText reads a string field. Bare numbers keep their literal text;
// any other shape reads as empty.
func decodeText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func decodeCycle(raw json.RawMessage) *schedule.Cycle {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	on, ok := decodeNumber(fields["on"])
	if !ok {
		return nil
	}
	c := &schedule.Cycle{On: int(on)}
	if off, ok := decodeNumber(fields["off"]); ok {
		c.Off = int(off)
	}
	return c
}

// decodeSupplementDoc fills the schedule fields of s from raw. Timestamps
// are reduced to a calendar day in zone tz. Each field is read on its own:
// one that cannot be read stays unset, and a document that is not a JSON
// object leaves every field unset. A stored record never fails to load.
func decodeSupplementDoc(raw []byte, tz string, s *supplement.Supplement) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return
	}

	s.StartDate = decodeStartDate(fields["startDate"], tz)

	if v, ok := decodeNumber(fields["dosesPerDay"]); ok && v > 0 && v <= schedule.MaxDosesPerDay {
		s.DosesPerDay = int(v)
	} else if v, ok := decodeNumber(fields["dailyDose"]); ok && v > 0 && v <= schedule.MaxDosesPerDay { // legacy alias
		s.DosesPerDay = int(v)
	}

	if v, ok := decodeNumber(fields["servings"]); ok && v <= schedule.MaxServings {
		s.Servings = &v
	}

	s.Cycle = decodeCycle(fields["cycle"])
	s.Dosage = decodeText(fields["dosage"])
	s.Notes = decodeText(fields["notes"])
	s.Times = decodeTimeSlots(fields["times"])
	if len(s.Times) == 0 {
		s.Times = decodeTimeSlots(fields["time"]) // legacy: a single slot or a list
	}
}

// decodeStartDate understands "YYYY-MM-DD", RFC 3339 strings, epoch
// milliseconds, and {"_seconds": n} / {"seconds": n} timestamp objects.
func decodeStartDate(raw json.RawMessage, tz string) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
			return time.Time{}
		}
		if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s)); err == nil {
			return schedule.DayIn(t, tz)
		}
		if d, err := schedule.ParseDay(s); err == nil {
			return d
		}
	case '{':
		var ts struct {
			Seconds      *int64 `json:"_seconds"`
			Nanoseconds  int64  `json:"_nanoseconds"`
			PlainSeconds *int64 `json:"seconds"`
			PlainNanos   int64  `json:"nanoseconds"`
		}
		if err := json.Unmarshal(raw, &ts); err != nil {
			return time.Time{}
		}
		if ts.Seconds != nil {
			return schedule.DayIn(time.Unix(*ts.Seconds, ts.Nanoseconds), tz)
		}
		if ts.PlainSeconds != nil {
			return schedule.DayIn(time.Unix(*ts.PlainSeconds, ts.PlainNanos), tz)
		}
	default:
		var ms float64
		if err := json.Unmarshal(raw, &ms); err == nil && ms > 0 {
			return schedule.DayIn(time.UnixMilli(int64(ms)), tz)
		}
	}
	return time.Time{}
}

func decodeTimeSlots(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && strings.TrimSpace(single) != "" {
		return []string{single}
	}
	return nil
}

// encodeSupplementDoc writes the canonical shape: ISO start date and the
// dosesPerDay / times spellings only.
func encodeSupplementDoc(s *supplement.Supplement) ([]byte, error) {
	doc := supplementDoc{
		Dosage: s.Dosage,
		Times:  s.Times,
		Notes:  s.Notes,
	}
	if !s.StartDate.IsZero() {
		b, err := json.Marshal(s.StartDate.Format(schedule.DayLayout))
		if err != nil {
			return nil, err
		}
		doc.StartDate = b
	}
	if s.DosesPerDay > 0 {
		n := looseNumber(s.DosesPerDay)
		doc.DosesPerDay = &n
	}
	if s.Servings != nil {
		n := looseNumber(*s.Servings)
		doc.Servings = &n
	}
	if s.Cycle != nil {
		on, off := looseNumber(s.Cycle.On), looseNumber(s.Cycle.Off)
		doc.Cycle = &cycleDoc{On: &on, Off: &off}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("error encoding supplement document: %w", err)
	}
	return b, nil
}
