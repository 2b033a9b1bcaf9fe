package finance

import (
	"fmt"
	"math"
	"math/rand"
)

// HouseSize is a plausible plot dimension used on valuation documents.
type HouseSize struct {
	InFeet         string
	InSquareMetres string
}

// RandomHouseSize picks dimensions between 25-50ft by 40-80ft and converts
// the footprint to square metres.
func RandomHouseSize() HouseSize {
	width := 25 + rand.Intn(26)
	length := 40 + rand.Intn(41)
	sqm := math.Round(float64(width) * 0.3048 * float64(length) * 0.3048)
	return HouseSize{
		InFeet:         fmt.Sprintf("%dft X %dft", width, length),
		InSquareMetres: fmt.Sprintf("%dsqm", int(sqm)),
	}
}

// RandomTwoDigit returns a number in [10, 99].
func RandomTwoDigit() int {
	return 10 + rand.Intn(90)
}

// RandomWorkingTime returns a clock time between 8:00AM and 4:59PM,
// formatted like "9:05AM".
func RandomWorkingTime() string {
	hour := 8 + rand.Intn(9)
	minute := rand.Intn(60)
	h12 := hour
	if hour > 12 {
		h12 = hour - 12
	}
	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	return fmt.Sprintf("%d:%02d%s", h12, minute, ampm)
}

// RandomUID returns a 16-digit numeric identifier.
func RandomUID() string {
	return fmt.Sprintf("%016d", rand.Int63n(1_0000_0000_0000_0000))
}
