package planner

import "testing"

func mkSlot(id, userID string, day int, start, end string, active bool) Slot {
	return Slot{ID: id, UserID: userID, DayOfWeek: day, StartTime: start, EndTime: end, IsActive: active}
}

func mkInterval(t *testing.T, userID string, day int, start, end string) Interval {
	t.Helper()
	iv, err := mkSlot("", userID, day, start, end, true).Interval()
	if err != nil {
		t.Fatalf("Interval() error = %v", err)
	}
	return iv
}

func TestFindConflict(t *testing.T) {
	existing := []Slot{
		mkSlot("a", "u1", 1, "09:00", "10:00", true),
		mkSlot("b", "u1", 1, "13:00", "14:00", false),
		mkSlot("c", "u1", 2, "09:00", "10:00", true),
		mkSlot("d", "u2", 1, "11:00", "12:00", true),
	}

	tests := []struct {
		name       string
		start, end string
		day        int
		excludeID  string
		wantID     string
	}{
		{name: "touching end", day: 1, start: "10:00", end: "11:00"},
		{name: "touching start", day: 1, start: "08:00", end: "09:00"},
		{name: "overlap tail", day: 1, start: "09:30", end: "10:30", wantID: "a"},
		{name: "overlap head", day: 1, start: "08:30", end: "09:01", wantID: "a"},
		{name: "contains", day: 1, start: "08:00", end: "11:00", wantID: "a"},
		{name: "contained", day: 1, start: "09:15", end: "09:45", wantID: "a"},
		{name: "identical", day: 1, start: "09:00", end: "10:00", wantID: "a"},
		{name: "inactive ignored", day: 1, start: "13:00", end: "14:00"},
		{name: "other user ignored", day: 1, start: "11:00", end: "12:00"},
		{name: "other day", day: 3, start: "09:00", end: "10:00"},
		{name: "excluded self", day: 1, start: "09:30", end: "10:30", excludeID: "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := FindConflict(mkInterval(t, "u1", tt.day, tt.start, tt.end), existing, tt.excludeID)
			if found != (tt.wantID != "") {
				t.Fatalf("FindConflict() found = %v, want %v", found, tt.wantID != "")
			}
			if got.ID != tt.wantID {
				t.Errorf("FindConflict() = %q, want %q", got.ID, tt.wantID)
			}
		})
	}
}
