package finance

import (
	"fmt"
	"math"
	"strings"
)

// All monetary values are carried in kobo (1 naira = 100 kobo) so derived
// amounts stay exact at the cent level. Truncation toward zero is the
// authoritative rounding rule for every derived figure.
const (
	MinLoanKobo     = 500_000_00
	MaxLoanKobo     = 2_500_000_00
	MinPropertyKobo = 3_000_000_00
	millionKobo     = 1_000_000_00

	RepaymentMonths = 84
	RepaymentYears  = 7
)

// PropertyDetails holds the financial figures derived from a contribution value.
type PropertyDetails struct {
	EquityKobo     int64
	LoanKobo       int64
	PropertyKobo   int64
	NoOfBedroom    int
	RepaymentYears int
	RepaymentKobo  int64
	ProcessingKobo int64
}

// ComputePropertyDetails derives property, equity and loan amounts from the
// applicant's contribution value (in naira). PropertyKobo == EquityKobo +
// LoanKobo holds exactly on every path.
func ComputePropertyDetails(cv float64) PropertyDetails {
	// equity = floor(cv/4, 2dp); cv/4*100 == cv*25
	equity := int64(math.Floor(cv * 25))

	var property, loan int64
	if equity >= MinPropertyKobo {
		// Round the target up to the next whole million above equity + minimum loan.
		target := equity + MinLoanKobo
		property = ((target + millionKobo - 1) / millionKobo) * millionKobo
		loan = property - equity
		if loan > MaxLoanKobo {
			loan = MaxLoanKobo
			property = equity + loan
		}
	} else {
		// Pinned floor: the loan is the exact complement, never clamped, so
		// the property identity holds to the kobo.
		property = MinPropertyKobo
		loan = property - equity
	}

	bedrooms := 2
	if property >= 10_000_000_00 {
		bedrooms = 3
	}

	return PropertyDetails{
		EquityKobo:     equity,
		LoanKobo:       loan,
		PropertyKobo:   property,
		NoOfBedroom:    bedrooms,
		RepaymentYears: RepaymentYears,
		RepaymentKobo:  loan / RepaymentMonths,
		ProcessingKobo: equity / 100,
	}
}

// FormatAmount renders a kobo amount as a currency string with thousands
// separators and two decimal places, e.g. 123456789 -> "1,234,567.89".
func FormatAmount(kobo int64) string {
	neg := kobo < 0
	if neg {
		kobo = -kobo
	}
	naira := kobo / 100
	cents := kobo % 100

	digits := fmt.Sprintf("%d", naira)
	var b strings.Builder
	pre := len(digits) % 3
	if pre > 0 {
		b.WriteString(digits[:pre])
	}
	for i := pre; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	out := fmt.Sprintf("%s.%02d", b.String(), cents)
	if neg {
		return "-" + out
	}
	return out
}

// NairaFromFloat converts a naira amount to kobo, truncating toward zero at
// two decimal places.
func NairaFromFloat(naira float64) int64 {
	return int64(math.Floor(naira * 100))
}
