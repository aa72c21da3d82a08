package domain

import "time"

// Shift identifies one of the four fixed daily driving shifts.
type Shift string

const (
	ShiftA Shift = "A"
	ShiftB Shift = "B"
	ShiftC Shift = "C"
	ShiftD Shift = "D"
)

// ShiftTimeDifference is the check-in/check-out tolerance applied around
// shift boundaries.
const ShiftTimeDifference = 30 * time.Minute

// shiftHours maps each shift to its start and end hour. An end hour greater
// than 24 means the shift crosses midnight (shift C ends at 06:00 next day).
var shiftHours = map[Shift]struct{ Start, End int }{
	ShiftA: {6, 14},
	ShiftB: {14, 22},
	ShiftC: {22, 30},
	ShiftD: {10, 18},
}

// Valid reports whether s is one of the known shifts.
func (s Shift) Valid() bool {
	_, ok := shiftHours[s]
	return ok
}

// StartHour returns the shift's start hour (0-23).
func (s Shift) StartHour() int {
	return shiftHours[s].Start
}

// EndHour returns the shift's end hour. May exceed 24 for overnight shifts.
func (s Shift) EndHour() int {
	return shiftHours[s].End
}

// Window returns the shift's concrete [start, end) interval anchored to the
// calendar day of date. Time-of-day on date is ignored.
func (s Shift) Window(date time.Time) (start, end time.Time) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	h := shiftHours[s]
	start = day.Add(time.Duration(h.Start) * time.Hour)
	end = day.Add(time.Duration(h.End) * time.Hour)
	return start, end
}

// Overlaps reports whether the shift's window on date intersects the
// half-open interval [from, to).
func (s Shift) Overlaps(date, from, to time.Time) bool {
	start, end := s.Window(date)
	return start.Before(to) && from.Before(end)
}

// AllShifts lists every shift in a stable order.
func AllShifts() []Shift {
	return []Shift{ShiftA, ShiftB, ShiftC, ShiftD}
}

// ShiftsOverlapping returns the shifts on date whose windows intersect
// [from, to), in the stable AllShifts order.
func ShiftsOverlapping(date, from, to time.Time) []Shift {
	var shifts []Shift
	for _, s := range AllShifts() {
		if s.Overlaps(date, from, to) {
			shifts = append(shifts, s)
		}
	}
	return shifts
}
