package placeholders_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmb-docgen/internal/placeholders"
)

func TestSplitAddress(t *testing.T) {
	t.Run("three segments in four slots", func(t *testing.T) {
		got := placeholders.SplitAddress("12 Main St, Ikeja, Lagos", 4)
		assert.Equal(t, []string{"12 Main St,", "Ikeja,", "Lagos.", ""}, got)
	})

	t.Run("single segment gets the period", func(t *testing.T) {
		got := placeholders.SplitAddress("Abuja", 4)
		assert.Equal(t, []string{"Abuja.", "", "", ""}, got)
	})

	t.Run("segments are title cased", func(t *testing.T) {
		got := placeholders.SplitAddress("no 5 ahmadu bello way, KADUNA", 4)
		assert.Equal(t, "No 5 Ahmadu Bello Way,", got[0])
		assert.Equal(t, "Kaduna.", got[1])
	})

	t.Run("overflow segments are dropped", func(t *testing.T) {
		got := placeholders.SplitAddress("a, b, c, d, e, f, g", 4)
		assert.Equal(t, "A,", got[0])
		assert.Equal(t, "D.", got[3])
	})

	t.Run("empty segments are skipped", func(t *testing.T) {
		got := placeholders.SplitAddress("Wuse, , Abuja", 4)
		assert.Equal(t, []string{"Wuse,", "Abuja.", "", ""}, got)
	})
}

func TestBuild(t *testing.T) {
	in := placeholders.Input{
		Name:                  "adewale johnson",
		PensionCompany:        "Premium Pension Limited",
		PensionNo:             "PEN100200300",
		PensionCompanyAddress: "Plot 24, Cadastral Zone, Wuse, Abuja",
		AccountNo:             "0123456789",
		Address:               "12 Main St, Ikeja, Lagos",
		DOB:                   "1985-04-12",
		MortgageBank:          "Jigawa Savings and Loans",
		MortgageBankAddress:   "1 Bank Road, Dutse, Jigawa",
		ContributionValue:     14_000_000,
		PolicyNo:              "000042",
		KBLPolicyNo:           "00007",
		NSIAPolicyNo:          "50001",
		Now:                   time.Date(2024, time.September, 2, 10, 0, 0, 0, time.UTC),
	}
	m := placeholders.Build(in)

	t.Run("every vocabulary token has an entry", func(t *testing.T) {
		for _, token := range placeholders.Vocabulary {
			_, ok := m[token]
			assert.True(t, ok, "missing token %s", token)
		}
	})

	t.Run("names are upper cased", func(t *testing.T) {
		assert.Equal(t, "ADEWALE JOHNSON", m["NAME"])
		assert.Equal(t, "ADEWALE JOHNSON", m["ACCOUNT_NAME"])
		assert.Equal(t, "PREMIUM PENSION LIMITED", m["PENSION_COMPANY"])
	})

	t.Run("financial identity flows into the map", func(t *testing.T) {
		// equity 3.5M -> property 4M, loan 0.5M
		assert.Equal(t, "3,500,000.00", m["EQUITY_AMOUNT"])
		assert.Equal(t, "4,000,000.00", m["PROPERTY_AMOUNT"])
		assert.Equal(t, "500,000.00", m["LOAN_AMOUNT"])
		assert.Equal(t, "Five Hundred Thousand Naira Only", m["LOAN_AMOUNT_IN_WORDS"])
		assert.Equal(t, "FIVE HUNDRED THOUSAND NAIRA ONLY", m["LOAN_AMOUNT_IN_WORDS_IN_CAPITALS"])
	})

	t.Run("derived valuation figures", func(t *testing.T) {
		assert.Equal(t, "6,000,000.00", m["MARKET_VALUE"])  // property + 2M
		assert.Equal(t, "1,800,000.00", m["BUILDING_COST"]) // 45%
		assert.Equal(t, "2,000,000.00", m["RENTAL_VALUE"])  // 50%
		assert.Equal(t, "4,000,000.00", m["REINSTATEMENT_COST"])
		assert.Equal(t, m["PROPERTY_AMOUNT"], m["SELLING_PRICE"])
	})

	t.Run("policy numbers pass through", func(t *testing.T) {
		assert.Equal(t, "000042", m["POLICY_NO"])
		assert.Equal(t, "00007", m["KBL_POLICY_NO"])
		assert.Equal(t, "50001", m["NSIA_POLICY_NO"])
	})

	t.Run("address slots populated for all three families", func(t *testing.T) {
		assert.Equal(t, "12 Main St,", m["ADDR_ONE"])
		assert.Equal(t, "Lagos.", m["ADDR_THREE"])
		assert.Equal(t, "", m["ADDR_FOUR"])
		assert.Equal(t, "1 Bank Road,", m["MORTGAGE_BANK_ADDR_ONE"])
		assert.Equal(t, "Plot 24,", m["PENSION_COMPANY_ADDR_ONE"])
		assert.Equal(t, "Abuja.", m["PENSION_COMPANY_ADDR_FOUR"])
	})

	t.Run("dates use the two house formats", func(t *testing.T) {
		require.Equal(t, "September 2nd, 2024", m["DATE"])
		assert.Equal(t, "2nd September, 2024", m["DATE_A"])
		assert.Equal(t, "2nd September, 2025", m["KBL_DATE_TWO"])
		assert.Equal(t, "September 2nd, 2025", m["NSIA_MATURITY_DATE"])
	})
}
