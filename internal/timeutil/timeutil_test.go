package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestNow(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	clock := fixedClock(time.Date(2025, 3, 4, 10, 15, 30, 999, loc))

	assert.Equal(t, "2025-03-04T10:15:30-05:00", Now(clock))
}

func TestNow_EvaluatedAtCallTime(t *testing.T) {
	current := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := Clock(func() time.Time { return current })

	first := Now(clock)
	current = current.Add(time.Hour)
	second := Now(clock)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "2025-01-01T01:00:00Z", second)
}

func TestNow_NilClock(t *testing.T) {
	got, err := time.Parse(Layout, Now(nil))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), got, 2*time.Second)
}

func TestHorizon(t *testing.T) {
	clock := fixedClock(time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "2025-03-01T12:00:00Z", Horizon(clock, 1))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "rfc3339", input: "2025-01-15T14:00:00Z"},
		{name: "rfc3339 with offset", input: "2025-01-15T14:00:00+02:00"},
		{name: "date only", input: "2025-01-15"},
		{name: "garbage", input: "tomorrow", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestZoneName(t *testing.T) {
	t.Setenv("TZ", "Europe/Berlin")
	assert.Equal(t, "Europe/Berlin", ZoneName(nil))
}
