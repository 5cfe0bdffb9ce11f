package planner

import (
	"testing"

	"github.com/pkg/errors"
)

func TestDurationMinutes(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       int
		wantErr    error
	}{
		{name: "hour and a half", start: "09:00", end: "10:30", want: 90},
		{name: "one minute", start: "23:58", end: "23:59", want: 1},
		{name: "whole day", start: "00:00", end: "23:59", want: 1439},
		{name: "reversed", start: "10:00", end: "09:00", wantErr: ErrNonPositiveDuration},
		{name: "equal", start: "10:00", end: "10:00", wantErr: ErrNonPositiveDuration},
		{name: "bad start", start: "9:00", end: "10:00", wantErr: ErrInvalidTimeFormat},
		{name: "bad end", start: "09:00", end: "24:00", wantErr: ErrInvalidTimeFormat},
		{name: "seconds", start: "09:00:00", end: "10:00", wantErr: ErrInvalidTimeFormat},
		{name: "empty", start: "", end: "10:00", wantErr: ErrInvalidTimeFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DurationMinutes(tt.start, tt.end)
			if errors.Cause(err) != tt.wantErr {
				t.Fatalf("DurationMinutes() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DurationMinutes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("07:05")
	if err != nil {
		t.Fatalf("ParseClock() error = %v", err)
	}
	if c.Minutes() != 425 {
		t.Errorf("Minutes() = %d, want 425", c.Minutes())
	}
	if c.String() != "07:05" {
		t.Errorf("String() = %q, want 07:05", c.String())
	}
}
