package finance

import (
	"fmt"
	"time"
)

// Categories holds the five scheduling dates derived from "today". Weekend
// days never survive the derivation: every category is shifted onto a weekday.
// Raw time.Time values are kept alongside the formatted strings because the
// bank-specific maturity and tenor dates are computed from them directly.
type Categories struct {
	A, B, C, D, E time.Time
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// shiftToNextMonday moves a Saturday or Sunday onto the following Monday and
// leaves weekdays untouched.
func shiftToNextMonday(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	case time.Saturday:
		return t.AddDate(0, 0, 2)
	}
	return t
}

// nextWeekday advances at least one day, skipping weekends.
func nextWeekday(t time.Time) time.Time {
	for {
		t = t.AddDate(0, 0, 1)
		if !isWeekend(t) {
			return t
		}
	}
}

// previousWeekday steps back at least one day, skipping weekends.
func previousWeekday(t time.Time) time.Time {
	for {
		t = t.AddDate(0, 0, -1)
		if !isWeekend(t) {
			return t
		}
	}
}

// DateCategories derives the five category dates from now.
//
//	A: today, shifted to Monday when it lands on a weekend
//	B: one week before A, shifted
//	C: one week before B, shifted
//	D: two days after A, shifted
//	E: a weekday strictly between C and B
func DateCategories(now time.Time) Categories {
	a := shiftToNextMonday(now)
	b := shiftToNextMonday(a.AddDate(0, 0, -7))
	c := shiftToNextMonday(b.AddDate(0, 0, -7))
	d := shiftToNextMonday(a.AddDate(0, 0, 2))

	e := previousWeekday(b.AddDate(0, 0, -1))
	if !e.After(c) {
		e = nextWeekday(c)
	}

	return Categories{A: a, B: b, C: c, D: d, E: e}
}

// KBLDates returns the KBL policy pair: inception at A and maturity one year on.
func KBLDates(a time.Time) (string, string) {
	return FormatOrdinalFirst(a), FormatOrdinalFirst(a.AddDate(1, 0, 0))
}

// NSIAMaturityDate is one year after A.
func NSIAMaturityDate(a time.Time) string {
	return FormatMonthFirst(a.AddDate(1, 0, 0))
}

// MUJAADates returns the MUJAA offer pair: C, and C plus ninety weekdays.
func MUJAADates(c time.Time) (string, string) {
	end := c
	for added := 0; added < 90; {
		end = end.AddDate(0, 0, 1)
		if !isWeekend(end) {
			added++
		}
	}
	return FormatMonthFirst(c), FormatMonthFirst(end)
}

func ordinalSuffix(day int) string {
	switch day {
	case 1, 21, 31:
		return "st"
	case 2, 22:
		return "nd"
	case 3, 23:
		return "rd"
	}
	return "th"
}

// FormatOrdinalFirst renders a date as "2nd September, 2024". Used by the
// DATE_A..DATE_E categories and the KBL policy dates.
func FormatOrdinalFirst(t time.Time) string {
	return fmt.Sprintf("%d%s %s, %d", t.Day(), ordinalSuffix(t.Day()), t.Month().String(), t.Year())
}

// FormatMonthFirst renders a date as "September 2nd, 2024". Used by the plain
// DATE token and the MUJAA/NSIA dates.
func FormatMonthFirst(t time.Time) string {
	return fmt.Sprintf("%s %d%s, %d", t.Month().String(), t.Day(), ordinalSuffix(t.Day()), t.Year())
}
