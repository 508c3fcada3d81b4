package quiz_test

import (
	"encoding/json"
	"testing"

	"popquiz/internal/quiz"
)

func TestIntervalUnmarshalTimestamps(t *testing.T) {
	tests := []struct {
		input     string
		wantStart int
		wantEnd   int
	}{
		{`["0:10", "1:11"]`, 10, 71},
		{`["2:10", "4:09"]`, 130, 249},
		{`["1:10", "1:11"]`, 70, 71},
		{`[70, 150]`, 70, 150},
		{`["0:05", 42]`, 5, 42},
	}

	for _, tt := range tests {
		var iv quiz.Interval
		if err := json.Unmarshal([]byte(tt.input), &iv); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.input, err)
		}
		if iv.Start != tt.wantStart || iv.End != tt.wantEnd {
			t.Fatalf("%s parsed to (%d, %d), want (%d, %d)", tt.input, iv.Start, iv.End, tt.wantStart, tt.wantEnd)
		}
	}
}

func TestIntervalUnmarshalRejectsBadInput(t *testing.T) {
	inputs := []string{
		`"0:10"`,
		`["0:10"]`,
		`["0:10", "1:11", "2:00"]`,
		`["ten", "1:11"]`,
		`["0:10:05", "1:11"]`,
		`["0:10", true]`,
		`[-5, 10]`,
	}
	for _, input := range inputs {
		var iv quiz.Interval
		if err := json.Unmarshal([]byte(input), &iv); err == nil {
			t.Fatalf("expected error for %s, got (%d, %d)", input, iv.Start, iv.End)
		}
	}
}

func TestIntervalDurationAndValidity(t *testing.T) {
	iv := quiz.Interval{Start: 70, End: 150}
	if iv.Duration() != 80 {
		t.Fatalf("Duration = %d, want 80", iv.Duration())
	}
	if !iv.Valid() {
		t.Fatal("expected interval to be valid")
	}
	if (quiz.Interval{Start: 70, End: 70}).Valid() {
		t.Fatal("zero-length interval should be invalid")
	}
	if (quiz.Interval{Start: 80, End: 70}).Valid() {
		t.Fatal("reversed interval should be invalid")
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{10, "0:10"},
		{71, "1:11"},
		{130, "2:10"},
		{249, "4:09"},
		{600, "10:00"},
	}
	for _, tt := range tests {
		if got := quiz.FormatTimestamp(tt.seconds); got != tt.want {
			t.Fatalf("FormatTimestamp(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
