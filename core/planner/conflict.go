package planner

// Interval is a candidate [Start, End) placement on one day of the week.
type Interval struct {
	UserID    string
	DayOfWeek int
	Start     Clock
	End       Clock
}

func (iv Interval) overlaps(o Interval) bool {
	return iv.Start.Minutes() < o.End.Minutes() && iv.End.Minutes() > o.Start.Minutes()
}

// FindConflict returns the first active slot in existing whose interval overlaps candidate.
// Slots of other users, other days, inactive slots and the slot identified by excludeID are ignored.
// Touching endpoints do not conflict.
func FindConflict(candidate Interval, existing []Slot, excludeID string) (Slot, bool) {
	for _, slot := range existing {
		if !slot.IsActive || slot.ID == excludeID {
			continue
		}
		if slot.UserID != candidate.UserID || slot.DayOfWeek != candidate.DayOfWeek {
			continue
		}
		iv, err := slot.Interval()
		if err != nil {
			continue // stored slots are validated on write
		}
		if candidate.overlaps(iv) {
			return slot, true
		}
	}
	return Slot{}, false
}
