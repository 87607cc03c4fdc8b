package calendar

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// timetableFile mirrors the YAML layout of a timetable override:
//
//	slots: ["08:00", "09:00", "10:00", "14:00"]
//	morning: 3
type timetableFile struct {
	Slots   []string `yaml:"slots"`
	Morning *int     `yaml:"morning"`
}

// LoadTimetable reads a slot set from a YAML file.
func LoadTimetable(path string) (TimeSlotSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TimeSlotSet{}, fmt.Errorf("calendar: read timetable %s: %w", path, err)
	}
	set, err := DecodeTimetable(bytes.NewReader(data))
	if err != nil {
		return TimeSlotSet{}, fmt.Errorf("calendar: timetable %s: %w", path, err)
	}
	return set, nil
}

// DecodeTimetable parses a YAML timetable document. When morning is omitted
// every slot is treated as a morning slot.
func DecodeTimetable(r io.Reader) (TimeSlotSet, error) {
	var file timetableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if err == io.EOF {
			return TimeSlotSet{}, ErrEmptyTimetable
		}
		return TimeSlotSet{}, err
	}

	morning := len(file.Slots)
	if file.Morning != nil {
		morning = *file.Morning
	}
	return NewTimeSlotSet(file.Slots, morning)
}
