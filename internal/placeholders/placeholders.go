package placeholders

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"pmb-docgen/internal/finance"
)

// Vocabulary is the complete set of tokens the templates may reference. The
// repair pass in the docx engine is driven by this list, and Build guarantees
// an entry for every name in it.
var Vocabulary = []string{
	"PENSION_COMPANY", "PENSION_COMPANY_ADDRESS", "PENSION_COMPANY_ADDR_ONE",
	"PENSION_COMPANY_ADDR_TWO", "PENSION_COMPANY_ADDR_THREE", "PENSION_COMPANY_ADDR_FOUR",
	"PENSION_COMPANY_ADDR_FIVE", "PENSION_COMPANY_ADDR_SIX",
	"NO_OF_BEDROOM", "NAME", "DATE", "PENSION_NO", "LOAN_AMOUNT",
	"LOAN_AMOUNT_IN_WORDS", "LOAN_AMOUNT_IN_WORDS_IN_CAPITALS", "EQUITY_AMOUNT", "EQUITY_AMOUNT_IN_WORDS",
	"PROPERTY_AMOUNT", "PROPERTY_AMOUNT_IN_WORDS", "ACCOUNT_NO", "ACCOUNT_NAME",
	"REPAYMENT_YRS", "REPAYMENT_AMOUNT", "PROCESSING_FEE",
	"POLICY_NO", "KBL_POLICY_NO", "NSIA_POLICY_NO",
	"ADDRESS", "ADDR_ONE", "ADDR_TWO", "ADDR_THREE", "ADDR_FOUR",
	"UID", "DOB", "MORTGAGE_BANK", "MORTGAGE_BANK_ADDRESS",
	"MORTGAGE_BANK_ADDR_ONE", "MORTGAGE_BANK_ADDR_TWO", "MORTGAGE_BANK_ADDR_THREE", "MORTGAGE_BANK_ADDR_FOUR",
	"PRE_NSIA", "NSIA_MATURITY_DATE",
	"KBL_DATE_ONE", "KBL_DATE_TWO", "PRE_KBL", "SIZE_IN_FT", "SIZE_IN_SQM",
	"MUJAA_DATE_ONE", "MUJAA_DATE_TWO", "DATE_A", "DATE_B", "DATE_C", "DATE_D", "DATE_E",
	"MARKET_VALUE", "MARKET_VALUE_IN_WORDS", "BUILDING_COST", "RENTAL_VALUE",
	"REINSTATEMENT_COST", "SELLING_PRICE",
	"LKN_A", "LKN_B", "NSIA_TIME",
}

// Slot counts for the three address families.
const (
	ResidentialSlots    = 4
	MortgageBankSlots   = 4
	PensionCompanySlots = 6
)

var slotNames = []string{"ONE", "TWO", "THREE", "FOUR", "FIVE", "SIX"}

func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if !prevLetter && unicode.IsLetter(r) {
				r = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SplitAddress breaks a comma-separated free-text address into a fixed number
// of title-cased slots. Non-final populated slots end with a comma, the last
// populated slot ends with a period, trailing slots are empty.
func SplitAddress(addr string, slots int) []string {
	out := make([]string, slots)
	parts := strings.Split(addr, ",")
	populated := 0
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		populated++
	}
	filled := 0
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if filled >= slots {
			break
		}
		segment := titleCase(p)
		if filled == populated-1 || filled == slots-1 {
			segment += "."
		} else {
			segment += ","
		}
		out[filled] = segment
		filled++
	}
	return out
}

func assignSlots(m map[string]string, prefix string, parts []string) {
	for i, part := range parts {
		m[prefix+slotNames[i]] = part
	}
}

// Input carries everything Build needs to assemble the token map for one
// request: the raw applicant fields, the pre-drawn policy numbers, and the
// reference time the date categories derive from.
type Input struct {
	Name                  string
	PensionCompany        string
	PensionNo             string
	PensionCompanyAddress string
	AccountNo             string
	Address               string
	DOB                   string
	MortgageBank          string
	MortgageBankAddress   string

	ContributionValue float64

	PolicyNo     string
	KBLPolicyNo  string
	NSIAPolicyNo string

	Now time.Time
}

// Build assembles the complete placeholder map. Every Vocabulary token is
// present in the result.
func Build(in Input) map[string]string {
	details := finance.ComputePropertyDetails(in.ContributionValue)
	cats := finance.DateCategories(in.Now)

	mujaaOne, mujaaTwo := finance.MUJAADates(cats.C)
	kblOne, kblTwo := finance.KBLDates(cats.A)
	size := finance.RandomHouseSize()

	propertyNaira := float64(details.PropertyKobo) / 100
	marketValueKobo := details.PropertyKobo + 2_000_000_00
	buildingCostKobo := finance.NairaFromFloat(propertyNaira * 0.45)
	rentalValueKobo := finance.NairaFromFloat(propertyNaira * 0.50)
	reinstatementKobo := 2_000_000_00 + rentalValueKobo
	preNSIAKobo := details.LoanKobo / 100
	preKBLKobo := finance.NairaFromFloat(propertyNaira * 0.0021)

	loanWords := finance.NumberToWords(details.LoanKobo)

	m := map[string]string{
		"PENSION_COMPANY":          strings.ToUpper(in.PensionCompany),
		"PENSION_COMPANY_ADDRESS":  strings.ToUpper(in.PensionCompanyAddress),
		"NO_OF_BEDROOM":            strconv.Itoa(details.NoOfBedroom),
		"NAME":                     strings.ToUpper(in.Name),
		"DATE":                     finance.FormatMonthFirst(in.Now),
		"PENSION_NO":               in.PensionNo,
		"LOAN_AMOUNT":              finance.FormatAmount(details.LoanKobo),
		"LOAN_AMOUNT_IN_WORDS":     loanWords,
		"EQUITY_AMOUNT":            finance.FormatAmount(details.EquityKobo),
		"EQUITY_AMOUNT_IN_WORDS":   finance.NumberToWords(details.EquityKobo),
		"PROPERTY_AMOUNT":          finance.FormatAmount(details.PropertyKobo),
		"PROPERTY_AMOUNT_IN_WORDS": finance.NumberToWords(details.PropertyKobo),
		"MARKET_VALUE":             finance.FormatAmount(marketValueKobo),
		"MARKET_VALUE_IN_WORDS":    finance.NumberToWords(marketValueKobo),
		"BUILDING_COST":            finance.FormatAmount(buildingCostKobo),
		"RENTAL_VALUE":             finance.FormatAmount(rentalValueKobo),
		"REINSTATEMENT_COST":       finance.FormatAmount(reinstatementKobo),
		"SELLING_PRICE":            finance.FormatAmount(details.PropertyKobo),
		"LKN_A":                    strconv.Itoa(finance.RandomTwoDigit()),
		"LKN_B":                    strconv.Itoa(finance.RandomTwoDigit()),
		"NSIA_TIME":                finance.RandomWorkingTime(),
		"ACCOUNT_NO":               in.AccountNo,
		"ACCOUNT_NAME":             strings.ToUpper(in.Name),
		"REPAYMENT_YRS":            strconv.Itoa(details.RepaymentYears),
		"REPAYMENT_AMOUNT":         finance.FormatAmount(details.RepaymentKobo),
		"PROCESSING_FEE":           finance.FormatAmount(details.ProcessingKobo),
		"POLICY_NO":                in.PolicyNo,
		"KBL_POLICY_NO":            in.KBLPolicyNo,
		"NSIA_POLICY_NO":           in.NSIAPolicyNo,
		"ADDRESS":                  in.Address,
		"UID":                      finance.RandomUID(),
		"DOB":                      in.DOB,
		"MORTGAGE_BANK":            in.MortgageBank,
		"MORTGAGE_BANK_ADDRESS":    in.MortgageBankAddress,
		"PRE_NSIA":                 finance.FormatAmount(preNSIAKobo),
		"NSIA_MATURITY_DATE":       finance.NSIAMaturityDate(cats.A),
		"KBL_DATE_ONE":             kblOne,
		"KBL_DATE_TWO":             kblTwo,
		"PRE_KBL":                  finance.FormatAmount(preKBLKobo),
		"SIZE_IN_FT":               size.InFeet,
		"SIZE_IN_SQM":              size.InSquareMetres,
		"MUJAA_DATE_ONE":           mujaaOne,
		"MUJAA_DATE_TWO":           mujaaTwo,
		"DATE_A":                   finance.FormatOrdinalFirst(cats.A),
		"DATE_B":                   finance.FormatOrdinalFirst(cats.B),
		"DATE_C":                   finance.FormatOrdinalFirst(cats.C),
		"DATE_D":                   finance.FormatOrdinalFirst(cats.D),
		"DATE_E":                   finance.FormatOrdinalFirst(cats.E),
	}

	m["LOAN_AMOUNT_IN_WORDS_IN_CAPITALS"] = strings.ToUpper(loanWords)

	assignSlots(m, "ADDR_", SplitAddress(in.Address, ResidentialSlots))
	assignSlots(m, "MORTGAGE_BANK_ADDR_", SplitAddress(in.MortgageBankAddress, MortgageBankSlots))
	assignSlots(m, "PENSION_COMPANY_ADDR_", SplitAddress(in.PensionCompanyAddress, PensionCompanySlots))

	return m
}
