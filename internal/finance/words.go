package finance

import "strings"

var (
	onesWords  = []string{"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine"}
	teensWords = []string{"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen", "Seventeen", "Eighteen", "Nineteen"}
	tensWords  = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
	scaleWords = []string{"", "Thousand", "Million", "Billion"}
)

func wordsForGroup(n int64) string {
	var parts []string
	if h := n / 100; h > 0 {
		parts = append(parts, onesWords[h]+" Hundred")
	}
	rem := n % 100
	switch {
	case rem >= 10 && rem < 20:
		parts = append(parts, teensWords[rem-10])
	default:
		if t := rem / 10; t > 0 {
			parts = append(parts, tensWords[t])
		}
		if o := rem % 10; o > 0 {
			parts = append(parts, onesWords[o])
		}
	}
	return strings.Join(parts, " ")
}

// NumberToWords spells out a kobo amount as long-form currency text,
// e.g. 150000000 -> "One Million Five Hundred Thousand Naira Only".
func NumberToWords(kobo int64) string {
	if kobo == 0 {
		return "Zero Naira Only"
	}

	naira := kobo / 100
	cents := kobo % 100

	var result string
	if naira == 0 {
		result = "Zero"
	}
	scale := 0
	for rest := naira; rest > 0; rest /= 1000 {
		group := rest % 1000
		if group > 0 {
			words := wordsForGroup(group)
			if scale > 0 {
				words += " " + scaleWords[scale]
			}
			if result != "" {
				result = words + " " + result
			} else {
				result = words
			}
		}
		scale++
	}

	result += " Naira"
	if cents > 0 {
		result += ", " + wordsForGroup(cents) + " Kobo"
	}
	return result + " Only"
}
