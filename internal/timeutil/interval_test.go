package timeutil

import (
	"testing"
	"time"
)

func TestOverlaps(t *testing.T) {
	ten, tenThirty := MustTimeOfDay("10:00"), MustTimeOfDay("10:30")
	eleven, elevenThirty, noon := MustTimeOfDay("11:00"), MustTimeOfDay("11:30"), MustTimeOfDay("12:00")

	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd TimeOfDay
		want                       bool
	}{
		{"back to back", ten, eleven, eleven, noon, false},
		{"partial", ten, eleven, tenThirty, elevenThirty, true},
		{"identical", ten, eleven, ten, eleven, true},
		{"nested", ten, noon, tenThirty, eleven, true},
		{"disjoint", ten, tenThirty, eleven, noon, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if got := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd); got != tt.want {
				t.Errorf("overlap is not symmetric for %s", tt.name)
			}
		})
	}
}

func TestAddHoursAndIsFuture(t *testing.T) {
	ref := time.Date(2030, 6, 11, 10, 0, 0, 0, time.UTC)

	if got := AddHours(ref, -24); !got.Equal(ref.AddDate(0, 0, -1)) {
		t.Errorf("unexpected AddHours result %v", got)
	}
	if IsFuture(ref, ref) {
		t.Error("a time is not in its own future")
	}
	if !IsFuture(ref.Add(time.Nanosecond), ref) {
		t.Error("expected strictly later time to be future")
	}
}

func TestManagedClock(t *testing.T) {
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManaged(start)

	if got := c.WarpForward(90 * time.Minute); !got.Equal(start.Add(90 * time.Minute)) {
		t.Errorf("unexpected warp result %v", got)
	}
	if !c.Now().Equal(start.Add(90 * time.Minute)) {
		t.Error("Now must reflect the warp")
	}
}
