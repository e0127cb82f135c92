package ticks

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestParseDurationToTicks(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int64
	}{
		{"nil defaults to a minute", nil, 60 * TicksPerSecond},
		{"empty string defaults to a minute", "  ", 60 * TicksPerSecond},
		{"int seconds", 90, 90 * TicksPerSecond},
		{"int64 seconds", int64(5), 5 * TicksPerSecond},
		{"float seconds", 1.5, 15_000_000},
		{"negative int", -3, 0},
		{"clock string", "01:02:03", 3723 * TicksPerSecond},
		{"short clock string", "2:05", 125 * TicksPerSecond},
		{"bare numeric string", "45", 45 * TicksPerSecond},
		{"json number", json.Number("12"), 12 * TicksPerSecond},
		{"garbage", "soon", 0},
		{"bad clock", "1:75:00", 0},
		{"too many parts", "1:2:3:4", 0},
		{"unsupported type", struct{}{}, 0},
		{"longest representable", MaxSeconds, MaxSeconds * TicksPerSecond},
		{"int64 past tick range", int64(1e12), 0},
		{"int past tick range", int(1e12), 0},
		{"uint64 past tick range", uint64(1e12), 0},
		{"numeric string past tick range", "1000000000000", 0},
		{"float past tick range", 1e12, 0},
		{"clock hours past tick range", "300000000:00:00", 0},
		{"clock minutes past tick range", "20000000000:00", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDurationToTicks(tt.input); got != tt.want {
				t.Errorf("ParseDurationToTicks(%v) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestSecondsToTicks_Saturates(t *testing.T) {
	tests := []struct {
		seconds int64
		want    int64
	}{
		{1, TicksPerSecond},
		{MaxSeconds + 1, MaxSeconds * TicksPerSecond},
		{math.MaxInt64, MaxSeconds * TicksPerSecond},
		{math.MinInt64, -MaxSeconds * TicksPerSecond},
	}

	for _, tt := range tests {
		if got := SecondsToTicks(tt.seconds); got != tt.want {
			t.Errorf("SecondsToTicks(%d) = %d, want %d", tt.seconds, got, tt.want)
		}
	}
}

func TestTicksToReadableDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{125, "2:05"},
		{3600, "1:00:00"},
		{3723, "1:02:03"},
	}

	for _, tt := range tests {
		if got := TicksToReadableDuration(SecondsToTicks(tt.seconds)); got != tt.want {
			t.Errorf("TicksToReadableDuration(%ds) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestTicksJSON(t *testing.T) {
	if got := TicksJSON(600_000_000); got != `{"ticks":600000000}` {
		t.Errorf("TicksJSON = %s", got)
	}

	raw, err := json.Marshal(FromInput("0:30"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"ticks":300000000}` {
		t.Errorf("Ticks JSON = %s", raw)
	}
}

func TestProperty_SecondsRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.Int64Range(0, 1<<32).Draw(t, "seconds")

		if got := TicksToSeconds(ParseDurationToTicks(s)); got != s {
			t.Fatalf("round trip of %d seconds gave %d", s, got)
		}
		if got := TicksToSeconds(ParseDurationToTicks(fmt.Sprint(s))); got != s {
			t.Fatalf("round trip of %q gave %d", fmt.Sprint(s), got)
		}
	})
}

func TestProperty_ClockRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := rapid.Int64Range(0, 999).Draw(t, "hours")
		m := rapid.Int64Range(0, 59).Draw(t, "minutes")
		s := rapid.Int64Range(0, 59).Draw(t, "seconds")
		clock := fmt.Sprintf("%d:%02d:%02d", h, m, s)

		want := h*3600 + m*60 + s
		if got := TicksToSeconds(ParseDurationToTicks(clock)); got != want {
			t.Fatalf("round trip of %q gave %d, want %d", clock, got, want)
		}
	})
}

func TestProperty_ReadableParsesBack(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.Int64Range(0, 1_000_000).Draw(t, "seconds")
		readable := TicksToReadableDuration(SecondsToTicks(s))

		if got := ParseSeconds(readable); got != s {
			t.Fatalf("%q parsed back to %d, want %d", readable, got, s)
		}
	})
}
