package calendar

import "time"

// Phase of the two-step range selection.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseEnd
	PhaseDone
)

// RangePicker implements the pick-start-then-pick-end selection used by the
// booking wizard's date step. Selecting a start auto-advances to the end
// phase; an end on or before the start is ignored rather than erred.
type RangePicker struct {
	phase Phase
	start time.Time
	end   time.Time
}

func NewRangePicker() *RangePicker {
	return &RangePicker{phase: PhaseStart}
}

// Select feeds one picked date into the picker and reports whether the
// selection was accepted. Picking while done restarts with the new date as
// the start.
func (p *RangePicker) Select(d time.Time) bool {
	d = truncate(d)
	switch p.phase {
	case PhaseStart, PhaseDone:
		p.start = d
		p.end = time.Time{}
		p.phase = PhaseEnd
		return true
	case PhaseEnd:
		if !d.After(p.start) {
			return false
		}
		p.end = d
		p.phase = PhaseDone
		return true
	}
	return false
}

// Reset clears the selection back to the start phase.
func (p *RangePicker) Reset() {
	p.phase = PhaseStart
	p.start = time.Time{}
	p.end = time.Time{}
}

func (p *RangePicker) Phase() Phase { return p.phase }

// Start returns the chosen start date, zero until one is picked.
func (p *RangePicker) Start() time.Time { return p.start }

// Range returns the selected dates; ok is false until both are chosen.
func (p *RangePicker) Range() (start, end time.Time, ok bool) {
	if p.phase != PhaseDone {
		return time.Time{}, time.Time{}, false
	}
	return p.start, p.end, true
}

// DaysIn returns the day count of a month, leap years included.
func DaysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func truncate(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}
