package calendar

import (
	"errors"
	"fmt"
	"strings"
)

// Slot is the label of a bookable teaching hour, such as "08:15".
type Slot string

// Half identifies one of the two partitions of a school day.
type Half int

const (
	// Morning covers the leading slots of the day.
	Morning Half = iota
	// Afternoon covers the remaining slots.
	Afternoon
)

// String returns the canonical upper-case name of the half.
func (h Half) String() string {
	switch h {
	case Morning:
		return "MORNING"
	case Afternoon:
		return "AFTERNOON"
	default:
		return fmt.Sprintf("Half(%d)", int(h))
	}
}

// ParseHalf converts a textual half name into a Half.
func ParseHalf(value string) (Half, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "MORNING":
		return Morning, nil
	case "AFTERNOON":
		return Afternoon, nil
	}
	return 0, fmt.Errorf("calendar: unknown half %q", value)
}

var (
	// ErrEmptyTimetable is returned when a slot set would contain no slots.
	ErrEmptyTimetable = errors.New("calendar: timetable has no slots")
	// ErrDuplicateSlot is returned when a slot label appears twice.
	ErrDuplicateSlot = errors.New("calendar: duplicate slot")
	// ErrMorningBoundary is returned when the morning count does not fit the slot list.
	ErrMorningBoundary = errors.New("calendar: morning count out of range")
)

var defaultSlots = []string{
	"08:15", "09:15", "10:15", "11:15", "12:15", "13:15",
	"14:15", "15:15", "16:15", "17:15",
}

const defaultMorningCount = 6

// TimeSlotSet is an ordered, immutable sequence of slots partitioned into a
// morning prefix and an afternoon suffix.
type TimeSlotSet struct {
	slots   []Slot
	index   map[Slot]int
	morning int
}

// NewTimeSlotSet validates and builds a slot set. The first morningCount
// labels form the morning half.
func NewTimeSlotSet(labels []string, morningCount int) (TimeSlotSet, error) {
	if len(labels) == 0 {
		return TimeSlotSet{}, ErrEmptyTimetable
	}
	if morningCount < 0 || morningCount > len(labels) {
		return TimeSlotSet{}, fmt.Errorf("%w: %d of %d", ErrMorningBoundary, morningCount, len(labels))
	}

	set := TimeSlotSet{
		slots:   make([]Slot, 0, len(labels)),
		index:   make(map[Slot]int, len(labels)),
		morning: morningCount,
	}
	for _, label := range labels {
		slot := Slot(strings.TrimSpace(label))
		if slot == "" {
			return TimeSlotSet{}, fmt.Errorf("calendar: empty slot label at position %d", len(set.slots))
		}
		if _, exists := set.index[slot]; exists {
			return TimeSlotSet{}, fmt.Errorf("%w: %s", ErrDuplicateSlot, slot)
		}
		set.index[slot] = len(set.slots)
		set.slots = append(set.slots, slot)
	}
	return set, nil
}

// DefaultTimeSlotSet returns the ten hourly slots from 08:15 to 17:15 with a
// six slot morning.
func DefaultTimeSlotSet() TimeSlotSet {
	set, err := NewTimeSlotSet(defaultSlots, defaultMorningCount)
	if err != nil {
		panic(err)
	}
	return set
}

// Slots returns a copy of the ordered slot labels.
func (s TimeSlotSet) Slots() []Slot {
	out := make([]Slot, len(s.slots))
	copy(out, s.slots)
	return out
}

// Len reports the number of slots in the day.
func (s TimeSlotSet) Len() int {
	return len(s.slots)
}

// MorningCount reports how many leading slots belong to the morning.
func (s TimeSlotSet) MorningCount() int {
	return s.morning
}

// Index returns the position of slot in the day, or -1 when unknown.
func (s TimeSlotSet) Index(slot Slot) int {
	if i, ok := s.index[slot]; ok {
		return i
	}
	return -1
}

// Contains reports whether slot belongs to the set.
func (s TimeSlotSet) Contains(slot Slot) bool {
	_, ok := s.index[slot]
	return ok
}

// HalfOf returns the half a known slot belongs to.
func (s TimeSlotSet) HalfOf(slot Slot) (Half, bool) {
	i, ok := s.index[slot]
	if !ok {
		return 0, false
	}
	if i < s.morning {
		return Morning, true
	}
	return Afternoon, true
}

// SlotsIn returns the slots that make up the requested half.
func (s TimeSlotSet) SlotsIn(h Half) []Slot {
	var part []Slot
	switch h {
	case Morning:
		part = s.slots[:s.morning]
	case Afternoon:
		part = s.slots[s.morning:]
	}
	out := make([]Slot, len(part))
	copy(out, part)
	return out
}

// Labels returns the slot labels as plain strings.
func (s TimeSlotSet) Labels() []string {
	out := make([]string, len(s.slots))
	for i, slot := range s.slots {
		out[i] = string(slot)
	}
	return out
}
