package quiz

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Interval is a start/end pair in whole seconds, parsed from the two-element
// round file form ["1:10", "2:30"]. Plain numbers are accepted as seconds.
type Interval struct {
	Start int
	End   int
}

// Duration returns the interval length in seconds.
func (iv Interval) Duration() int {
	return iv.End - iv.Start
}

// Valid reports whether the interval has a positive duration.
func (iv Interval) Valid() bool {
	return iv.End > iv.Start && iv.Start >= 0
}

func (iv Interval) String() string {
	return FormatTimestamp(iv.Start) + "-" + FormatTimestamp(iv.End)
}

// UnmarshalJSON parses the round file representation: a two-element array of
// "m:ss" strings or plain second counts.
func (iv *Interval) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("interval must be a two-element array: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("interval must have exactly two elements, got %d", len(raw))
	}
	start, err := parseTimestampJSON(raw[0])
	if err != nil {
		return fmt.Errorf("interval start: %w", err)
	}
	end, err := parseTimestampJSON(raw[1])
	if err != nil {
		return fmt.Errorf("interval end: %w", err)
	}
	iv.Start = start
	iv.End = end
	return nil
}

func parseTimestampJSON(raw json.RawMessage) (int, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return ParseTimestamp(text)
	}
	var seconds int
	if err := json.Unmarshal(raw, &seconds); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("negative timestamp %d", seconds)
		}
		return seconds, nil
	}
	return 0, fmt.Errorf("timestamp %s must be an \"m:ss\" string or a whole second count", string(raw))
}

// ParseTimestamp converts an "m:ss" string to seconds, e.g. "1:11" to 71.
func ParseTimestamp(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("timestamp %q must look like m:ss", value)
	}
	minutes, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("timestamp %q has a bad minute component", value)
	}
	seconds, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("timestamp %q has a bad second component", value)
	}
	if minutes < 0 || seconds < 0 {
		return 0, fmt.Errorf("timestamp %q must not be negative", value)
	}
	return minutes*60 + seconds, nil
}

// FormatTimestamp renders seconds in the "m:ss" round file form, e.g. 130 to "2:10".
func FormatTimestamp(total int) string {
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
