package docx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pmb-docgen/internal/docx"
)

var vocab = []string{"PROPERTY_AMOUNT", "LOAN_AMOUNT", "LOAN_AMOUNT_IN_WORDS", "NAME"}

func TestRepair(t *testing.T) {
	t.Run("collapses markup-split token", func(t *testing.T) {
		in := `<w:t>{{<b>PROP</b>ERTY_AMOUNT}}</w:t>`
		assert.Equal(t, `<w:t>{{PROPERTY_AMOUNT}}</w:t>`, docx.Repair(in, vocab))
	})

	t.Run("canonicalizes whitespace variants", func(t *testing.T) {
		assert.Equal(t, "{{NAME}}", docx.Repair("{{ NAME }}", vocab))
	})

	t.Run("case insensitive match", func(t *testing.T) {
		assert.Equal(t, "{{NAME}}", docx.Repair("{{name}}", vocab))
	})

	t.Run("longest token wins", func(t *testing.T) {
		in := "{{LOAN_AMOUNT_IN_WORDS}}"
		assert.Equal(t, "{{LOAN_AMOUNT_IN_WORDS}}", docx.Repair(in, vocab))
	})

	t.Run("collapses doubled braces", func(t *testing.T) {
		assert.Equal(t, "{{NAME}}", docx.Repair("{{{{NAME}}}}", vocab))
	})

	t.Run("unknown spans untouched", func(t *testing.T) {
		in := "<w:t>{{SOMETHING_ELSE}}</w:t>"
		assert.Equal(t, in, docx.Repair(in, vocab))
	})

	t.Run("text outside spans preserved", func(t *testing.T) {
		in := `<w:p>Dear {{NAME}}, your loan is {{<i>LOAN</i>_AMOUNT}}.</w:p>`
		want := `<w:p>Dear {{NAME}}, your loan is {{LOAN_AMOUNT}}.</w:p>`
		assert.Equal(t, want, docx.Repair(in, vocab))
	})
}
