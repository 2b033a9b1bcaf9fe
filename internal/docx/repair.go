package docx

import (
	"regexp"
	"sort"
	"strings"
)

var (
	doubledOpen  = regexp.MustCompile(`\{\{\s*\{\{`)
	doubledClose = regexp.MustCompile(`\}\}\s*\}\}`)
)

// stripMarkup removes XML tags from a fragment, leaving only text content.
func stripMarkup(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// Repair heals placeholder markers that word processors have mangled. For
// every {{...}} span in the document XML, the span's tag-stripped content is
// matched case-insensitively against the known token vocabulary; a hit
// collapses the whole span to a clean {{TOKEN}} marker. Whitespace variants
// ({{ TOKEN }}) canonicalize the same way, and doubled braces left by
// repeated fixups are collapsed afterwards.
//
// This is a best-effort pass over a finite vocabulary, not a general parser:
// spans that match no known token are left untouched.
func Repair(documentXML string, vocabulary []string) string {
	// Longest token first so LOAN_AMOUNT never swallows LOAN_AMOUNT_IN_WORDS.
	vocab := append([]string(nil), vocabulary...)
	sort.Slice(vocab, func(i, j int) bool { return len(vocab[i]) > len(vocab[j]) })

	var b strings.Builder
	b.Grow(len(documentXML))
	rest := documentXML
	for {
		open := strings.Index(rest, "{{")
		if open == -1 {
			b.WriteString(rest)
			break
		}
		close := strings.Index(rest[open+2:], "}}")
		if close == -1 {
			b.WriteString(rest)
			break
		}
		end := open + 2 + close + 2
		span := rest[open:end]

		b.WriteString(rest[:open])
		b.WriteString(repairSpan(span, vocab))
		rest = rest[end:]
	}

	out := b.String()
	out = doubledOpen.ReplaceAllString(out, "{{")
	out = doubledClose.ReplaceAllString(out, "}}")
	return out
}

func repairSpan(span string, vocab []string) string {
	clean := strings.ToUpper(stripWhitespace(stripMarkup(span)))
	for _, token := range vocab {
		if strings.Contains(clean, token) {
			return "{{" + token + "}}"
		}
	}
	return span
}
