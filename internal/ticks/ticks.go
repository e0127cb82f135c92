// Package ticks converts between human durations and .NET TimeSpan ticks.
//
// The Backend API is a .NET service; every duration it accepts is a TimeSpan,
// serialised as {"ticks": N} where one tick is 100 nanoseconds.
package ticks

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TicksPerSecond is the number of 100ns ticks in one second.
const TicksPerSecond int64 = 10_000_000

// DefaultSeconds is used when no duration is supplied at all.
const DefaultSeconds int64 = 60

// MaxSeconds is the longest duration whose tick count fits in an int64.
const MaxSeconds int64 = math.MaxInt64 / TicksPerSecond

// SecondsToTicks converts whole seconds to ticks, saturating at
// ±MaxSeconds instead of wrapping.
func SecondsToTicks(seconds int64) int64 {
	switch {
	case seconds > MaxSeconds:
		seconds = MaxSeconds
	case seconds < -MaxSeconds:
		seconds = -MaxSeconds
	}
	return seconds * TicksPerSecond
}

// TicksToSeconds converts ticks to whole seconds, truncating.
func TicksToSeconds(t int64) int64 {
	return t / TicksPerSecond
}

// ParseDurationToTicks accepts a number of seconds, an "H:MM:SS" / "M:SS"
// string, or a bare numeric string. A nil input means "not set" and yields
// DefaultSeconds; anything unrecognised or longer than MaxSeconds yields 0.
func ParseDurationToTicks(input any) int64 {
	switch v := input.(type) {
	case nil:
		return SecondsToTicks(DefaultSeconds)
	case int:
		return nonNegative(int64(v))
	case int32:
		return nonNegative(int64(v))
	case int64:
		return nonNegative(v)
	case uint:
		return fromUnsigned(uint64(v))
	case uint32:
		return fromUnsigned(uint64(v))
	case uint64:
		return fromUnsigned(v)
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case json.Number:
		return parseString(v.String())
	case string:
		return parseString(v)
	default:
		return 0
	}
}

// ParseSeconds is ParseDurationToTicks expressed in seconds.
func ParseSeconds(input any) int64 {
	return TicksToSeconds(ParseDurationToTicks(input))
}

// TicksToReadableDuration formats ticks as H:MM:SS, or M:SS under an hour.
func TicksToReadableDuration(t int64) string {
	total := TicksToSeconds(t)
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func nonNegative(seconds int64) int64 {
	if seconds < 0 || seconds > MaxSeconds {
		return 0
	}
	return SecondsToTicks(seconds)
}

func fromUnsigned(seconds uint64) int64 {
	if seconds > uint64(MaxSeconds) {
		return 0
	}
	return SecondsToTicks(int64(seconds))
}

func fromFloat(seconds float64) int64 {
	if seconds < 0 || math.IsNaN(seconds) || seconds > float64(MaxSeconds) {
		return 0
	}
	return int64(math.Round(seconds * float64(TicksPerSecond)))
}

func parseString(raw string) int64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return SecondsToTicks(DefaultSeconds)
	}

	if strings.Contains(s, ":") {
		seconds, ok := parseClock(s)
		if !ok {
			return 0
		}
		return nonNegative(seconds)
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return nonNegative(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromFloat(f)
	}
	return 0
}

// parseClock reads "H:MM:SS" or "M:SS". Minutes and seconds must be below 60
// whenever a larger unit precedes them.
func parseClock(s string) (int64, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}

	nums := make([]int64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		nums[i] = n
	}

	if len(nums) == 2 {
		if nums[1] >= 60 || nums[0] > MaxSeconds/60 {
			return 0, false
		}
		return nums[0]*60 + nums[1], true
	}
	if nums[1] >= 60 || nums[2] >= 60 || nums[0] > MaxSeconds/3600 {
		return 0, false
	}
	return nums[0]*3600 + nums[1]*60 + nums[2], true
}

// Ticks is a TimeSpan value in the shape the Backend API expects.
type Ticks struct {
	Ticks int64 `json:"ticks"`
}

// FromInput builds a Ticks value from any input ParseDurationToTicks accepts.
func FromInput(input any) Ticks {
	return Ticks{Ticks: ParseDurationToTicks(input)}
}

// TicksJSON renders n as the {"ticks":N} string used in multipart fields.
func TicksJSON(n int64) string {
	return `{"ticks":` + strconv.FormatInt(n, 10) + `}`
}
