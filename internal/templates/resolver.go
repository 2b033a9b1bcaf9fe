package templates

import (
	"os"
	"path/filepath"
	"strings"
)

// Base documents produced for every mortgage bank.
var BankSpecificTemplates = []string{
	"confirmation_of_property_availability.docx",
	"confirmation_of_property_title.docx",
	"indemnity.docx",
	"readiness.docx",
	"verification.docx",
	"indicative.docx",
	"legal_search.docx",
}

// Region-specific DOCX additions. Jigawa carries the NSIA set on top of its
// own insurance template; Kebbi carries the full KBL set.
var (
	JigawaTemplates = []string{"kbl_insurance.docx"}

	NSIATemplates = []string{
		"nsia_insurance.docx",
		"mujaa_offer_letter.docx",
		"valuation_report.docx",
	}

	KBLTemplates = []string{
		"kbl_insurance.docx",
		"nsia_insurance.docx",
		"mujaa_offer_letter.docx",
		"valuation_report.docx",
	}
)

// Pre-rendered PDFs carried verbatim into the output set (no placeholders).
var (
	JigawaPDFs = []string{
		"pension_cert.pdf",
		"rangaza_c_of_o.pdf",
		"rangaza_deed_of_assignment.pdf",
	}

	KBLPDFs = []string{
		"clearance_cert.pdf",
		"rangaza_c_of_o.pdf",
		"rangaza_deed_of_assignment.pdf",
	}
)

// Resolver maps mortgage bank names onto template directories and file sets.
type Resolver struct {
	dir string
}

func NewResolver(templatesDir string) *Resolver {
	return &Resolver{dir: templatesDir}
}

// BankDirectory classifies a mortgage bank name into a region directory key.
// Empty string means the common templates directory.
func (r *Resolver) BankDirectory(mortgageBank string) string {
	lower := strings.ToLower(mortgageBank)
	switch {
	case strings.Contains(lower, "jigawa"):
		return "jigawa"
	case strings.Contains(lower, "kebbi"):
		return "kebbi"
	}
	return ""
}

// TemplateSet returns the DOCX templates to render for a bank, in processing
// order. Duplicates between the region sets are removed.
func (r *Resolver) TemplateSet(mortgageBank string) []string {
	files := append([]string(nil), BankSpecificTemplates...)
	switch r.BankDirectory(mortgageBank) {
	case "jigawa":
		files = append(files, JigawaTemplates...)
		files = append(files, NSIATemplates...)
	case "kebbi":
		files = append(files, KBLTemplates...)
	}

	seen := make(map[string]bool, len(files))
	out := files[:0]
	for _, f := range files {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// PDFSet returns the pre-rendered PDFs to copy for a bank.
func (r *Resolver) PDFSet(mortgageBank string) []string {
	switch r.BankDirectory(mortgageBank) {
	case "jigawa":
		return append([]string(nil), JigawaPDFs...)
	case "kebbi":
		return append([]string(nil), KBLPDFs...)
	}
	return nil
}

// Path resolves a template file for a bank: the bank-specific directory wins
// when the file exists there, otherwise the common directory is used. The
// returned path may still not exist; callers treat that as a per-template
// failure, not a fatal one.
func (r *Resolver) Path(file, mortgageBank string) string {
	if bankDir := r.BankDirectory(mortgageBank); bankDir != "" {
		p := filepath.Join(r.dir, bankDir, file)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(r.dir, file)
}

// PDFPath resolves a pre-rendered PDF inside the bank directory.
func (r *Resolver) PDFPath(file, mortgageBank string) string {
	return filepath.Join(r.dir, r.BankDirectory(mortgageBank), file)
}

// DirectoryHealth reports availability of one directory's expected files.
type DirectoryHealth struct {
	Directory string   `json:"directory"`
	Exists    bool     `json:"exists"`
	Expected  []string `json:"expected"`
	Available []string `json:"available"`
	Count     int      `json:"count"`
}

// HealthReport checks template availability for the common directory and each
// bank directory.
func (r *Resolver) HealthReport() map[string]DirectoryHealth {
	report := map[string]DirectoryHealth{
		"common": r.checkDir(r.dir, BankSpecificTemplates),
		"jigawa": r.checkDir(filepath.Join(r.dir, "jigawa"),
			concat(BankSpecificTemplates, JigawaTemplates, NSIATemplates, JigawaPDFs)),
		"kebbi": r.checkDir(filepath.Join(r.dir, "kebbi"),
			concat(BankSpecificTemplates, KBLTemplates, KBLPDFs)),
	}
	return report
}

func (r *Resolver) checkDir(dir string, expected []string) DirectoryHealth {
	h := DirectoryHealth{Directory: dir, Expected: expected, Available: []string{}}
	if _, err := os.Stat(dir); err != nil {
		return h
	}
	h.Exists = true
	for _, f := range expected {
		if _, err := os.Stat(filepath.Join(dir, f)); err == nil {
			h.Available = append(h.Available, f)
		}
	}
	h.Count = len(h.Available)
	return h
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
