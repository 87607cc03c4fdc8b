package calendar

// DayStatus classifies the occupancy of a whole day.
type DayStatus string

const (
	// DayEmpty means no slot of the day is booked.
	DayEmpty DayStatus = "EMPTY"
	// DayFull means every slot of the day is booked.
	DayFull DayStatus = "FULL"
	// DayPartial means some but not all slots are booked.
	DayPartial DayStatus = "PARTIAL"
)

// HalfDayStatus classifies the occupancy of a morning or afternoon.
type HalfDayStatus string

const (
	// HalfFree means no slot of the half is booked.
	HalfFree HalfDayStatus = "FREE"
	// HalfOccupied means every slot of the half is booked.
	HalfOccupied HalfDayStatus = "OCCUPIED"
	// HalfMixed means the half has both booked and free slots.
	HalfMixed HalfDayStatus = "MIXED"
)

// occupied collapses booked slots into the distinct set known to s.
func (s TimeSlotSet) occupied(booked []Slot) map[Slot]struct{} {
	set := make(map[Slot]struct{}, len(booked))
	for _, slot := range booked {
		if s.Contains(slot) {
			set[slot] = struct{}{}
		}
	}
	return set
}

// DayStatus classifies a day from the slots booked on it. Duplicate and
// unknown slots are ignored.
func (s TimeSlotSet) DayStatus(booked []Slot) DayStatus {
	taken := len(s.occupied(booked))
	switch {
	case taken == 0:
		return DayEmpty
	case taken == len(s.slots):
		return DayFull
	default:
		return DayPartial
	}
}

// HalfDayStatus classifies one half of a day from the slots booked on it. A
// half without slots is always FREE.
func (s TimeSlotSet) HalfDayStatus(booked []Slot, h Half) HalfDayStatus {
	taken := s.occupied(booked)
	part := s.SlotsIn(h)

	count := 0
	for _, slot := range part {
		if _, ok := taken[slot]; ok {
			count++
		}
	}

	switch {
	case count == 0:
		return HalfFree
	case count == len(part):
		return HalfOccupied
	default:
		return HalfMixed
	}
}

// Occupancy bundles the day and half-day classifications of one date.
type Occupancy struct {
	Day       DayStatus
	Morning   HalfDayStatus
	Afternoon HalfDayStatus
}

// Classify computes the day and both half-day statuses in one pass.
func (s TimeSlotSet) Classify(booked []Slot) Occupancy {
	return Occupancy{
		Day:       s.DayStatus(booked),
		Morning:   s.HalfDayStatus(booked, Morning),
		Afternoon: s.HalfDayStatus(booked, Afternoon),
	}
}
