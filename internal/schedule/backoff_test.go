package schedule

import (
	"testing"

	"github.com/harrison/resched/internal/metadata"
)

func TestDelayHours(t *testing.T) {
	tests := []struct {
		failures int
		want     int
	}{
		{1, 24},
		{2, 48},
		{3, 96},
		{4, 168}, // 192 uncapped, clamped to one week
		{5, 168},
		{10, 168},
		{100, 168},
	}

	for _, tt := range tests {
		if got := DelayHours(tt.failures); got != tt.want {
			t.Errorf("DelayHours(%d) = %d, want %d", tt.failures, got, tt.want)
		}
	}
}

func TestDelayHoursNonDecreasing(t *testing.T) {
	prev := 0
	for f := 1; f <= 20; f++ {
		got := DelayHours(f)
		if got < prev {
			t.Errorf("DelayHours(%d) = %d, decreased from %d", f, got, prev)
		}
		if got > MaxDelayHours {
			t.Errorf("DelayHours(%d) = %d, exceeds cap %d", f, got, MaxDelayHours)
		}
		prev = got
	}
}

func TestSuccessRatio(t *testing.T) {
	tests := []struct {
		name      string
		successes int
		failures  int
		want      float64
	}{
		{"brand new task", 0, 0, 1.0},
		{"only successes", 2, 0, 3.0},
		{"only failures", 0, 3, 0.25},
		{"mixed history", 3, 1, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := metadata.Record{Successes: tt.successes, Failures: tt.failures}
			if got := SuccessRatio(rec); got != tt.want {
				t.Errorf("SuccessRatio(%+v) = %f, want %f", rec, got, tt.want)
			}
		})
	}
}
