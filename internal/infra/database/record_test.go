package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplement_tracker/internal/domain/schedule"
	"supplement_tracker/internal/domain/supplement"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDecodeStartDate(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		tz   string
		want time.Time
	}{
		{name: "iso day", raw: `"2025-06-01"`, tz: "UTC", want: day(2025, 6, 1)},
		{name: "rfc3339 read in zone", raw: `"2025-06-01T02:00:00Z"`, tz: "America/Los_Angeles", want: day(2025, 5, 31)},
		{name: "underscore seconds object", raw: `{"_seconds": 1748736000, "_nanoseconds": 0}`, tz: "UTC", want: day(2025, 6, 1)},
		{name: "plain seconds object", raw: `{"seconds": 1748736000}`, tz: "Asia/Tokyo", want: day(2025, 6, 1)},
		{name: "epoch millis", raw: `1748736000000`, tz: "UTC", want: day(2025, 6, 1)},
		{name: "garbage string", raw: `"soon"`, tz: "UTC"},
		{name: "null", raw: `null`, tz: "UTC"},
		{name: "empty object", raw: `{}`, tz: "UTC"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, decodeStartDate([]byte(tc.raw), tc.tz))
		})
	}
}

func TestDecodeSupplementDoc_Aliases(t *testing.T) {
	raw := `{
		"startDate": {"_seconds": 1748736000},
		"dailyDose": "2",
		"servings": 60,
		"cycle": {"on": 5, "off": "2"},
		"dosage": "2 capsules daily",
		"time": "morning"
	}`
	var s supplement.Supplement
	decodeSupplementDoc([]byte(raw), "UTC", &s)

	assert.Equal(t, day(2025, 6, 1), s.StartDate)
	assert.Equal(t, 2, s.DosesPerDay)
	require.NotNil(t, s.Servings)
	assert.Equal(t, 60.0, *s.Servings)
	assert.Equal(t, &schedule.Cycle{On: 5, Off: 2}, s.Cycle)
	assert.Equal(t, []string{"morning"}, s.Times)
}

func TestDecodeSupplementDoc_PrefersCanonicalNames(t *testing.T) {
	raw := `{"dosesPerDay": 3, "dailyDose": 1, "times": ["am", "pm"], "time": ["noon"]}`
	var s supplement.Supplement
	decodeSupplementDoc([]byte(raw), "UTC", &s)

	assert.Equal(t, 3, s.DosesPerDay)
	assert.Equal(t, []string{"am", "pm"}, s.Times)
	assert.True(t, s.StartDate.IsZero())
	assert.Nil(t, s.Cycle)
	assert.Nil(t, s.Servings)
}

func TestDecodeSupplementDoc_Malformed(t *testing.T) {
	var s supplement.Supplement
	decodeSupplementDoc([]byte(`{"servings": "lots", "dosesPerDay": "two"}`), "UTC", &s)
	assert.Nil(t, s.Servings)
	assert.Equal(t, 0, s.DosesPerDay)

	for _, raw := range []string{`[1, 2]`, `"text"`, `{not json`, ``} {
		var s supplement.Supplement
		decodeSupplementDoc([]byte(raw), "UTC", &s)
		assert.True(t, s.StartDate.IsZero(), raw)
		assert.Nil(t, s.Cycle, raw)
	}
	decodeSupplementDoc(nil, "UTC", &s)
}

func TestDecodeSupplementDoc_BadFieldLeavesOthersIntact(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		check func(t *testing.T, s supplement.Supplement)
	}{
		{
			name: "cycle as string",
			raw:  `{"startDate": "2026-01-01", "servings": 30, "cycle": "5/2"}`,
			check: func(t *testing.T, s supplement.Supplement) {
				assert.Nil(t, s.Cycle)
				require.NotNil(t, s.Servings)
				assert.Equal(t, 30.0, *s.Servings)
			},
		},
		{
			name: "times as string",
			raw:  `{"startDate": "2026-01-01", "times": "08:00", "cycle": {"on": 5, "off": 2}}`,
			check: func(t *testing.T, s supplement.Supplement) {
				assert.Equal(t, []string{"08:00"}, s.Times)
				assert.Equal(t, &schedule.Cycle{On: 5, Off: 2}, s.Cycle)
			},
		},
		{
			name: "dosage as number",
			raw:  `{"startDate": "2026-01-01", "dosage": 2, "dosesPerDay": 3}`,
			check: func(t *testing.T, s supplement.Supplement) {
				assert.Equal(t, "2", s.Dosage)
				assert.Equal(t, 3, s.DosesPerDay)
			},
		},
		{
			name: "times as object and cycle without on",
			raw:  `{"startDate": "2026-01-01", "times": {"am": true}, "cycle": {"off": 2}}`,
			check: func(t *testing.T, s supplement.Supplement) {
				assert.Nil(t, s.Times)
				assert.Nil(t, s.Cycle)
			},
		},
		{
			name: "absurd servings",
			raw:  `{"startDate": "2026-01-01", "servings": 1e300, "dosesPerDay": 1e9}`,
			check: func(t *testing.T, s supplement.Supplement) {
				assert.Nil(t, s.Servings)
				assert.Equal(t, 0, s.DosesPerDay)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var s supplement.Supplement
			decodeSupplementDoc([]byte(tc.raw), "UTC", &s)
			assert.Equal(t, day(2026, 1, 1), s.StartDate)
			tc.check(t, s)
		})
	}
}

func TestEncodeSupplementDoc_RoundTripsCanonicalShape(t *testing.T) {
	servings := 90.0
	in := &supplement.Supplement{
		StartDate:   day(2026, 1, 1),
		DosesPerDay: 2,
		Servings:    &servings,
		Cycle:       &schedule.Cycle{On: 5, Off: 2},
		Dosage:      "2 caps",
		Times:       []string{"morning"},
	}
	raw, err := encodeSupplementDoc(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"startDate":"2026-01-01","dosesPerDay":2,"servings":90,"cycle":{"on":5,"off":2},"dosage":"2 caps","times":["morning"]}`, string(raw))

	var out supplement.Supplement
	decodeSupplementDoc(raw, "Pacific/Auckland", &out)
	assert.Equal(t, in.StartDate, out.StartDate)
	assert.Equal(t, in.Cycle, out.Cycle)
}
