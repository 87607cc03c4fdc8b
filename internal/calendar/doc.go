// Package calendar holds the school timetable and the pure occupancy rules
// used to colour the booking calendar.
//
// A day is EMPTY, FULL or PARTIAL depending on how many of its slots are
// booked; each half of the day is FREE, OCCUPIED or MIXED by the same rule
// applied to its own slots. Nothing in this package touches storage.
package calendar
