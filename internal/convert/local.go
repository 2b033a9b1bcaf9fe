package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// LocalMerge concatenates PDFs in order into outPath without touching the
// remote provider.
func LocalMerge(pdfPaths []string, outPath string) error {
	if len(pdfPaths) == 0 {
		return fmt.Errorf("merge: no input files")
	}
	if err := api.MergeCreateFile(pdfPaths, outPath, false, nil); err != nil {
		return fmt.Errorf("merge %d files: %w", len(pdfPaths), err)
	}
	return nil
}

// LocalSplit splits a PDF into single pages on disk and returns them in page
// order. Used when the remote split tool is unavailable.
func LocalSplit(pdfPath, workDir string) ([]Page, error) {
	outDir := filepath.Join(workDir, "split")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	if err := api.SplitFile(pdfPath, outDir, 1, nil); err != nil {
		return nil, fmt.Errorf("split %s: %w", filepath.Base(pdfPath), err)
	}

	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	count, err := api.PageCountFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("page count %s: %w", filepath.Base(pdfPath), err)
	}

	pages := make([]Page, 0, count)
	for n := 1; n <= count; n++ {
		name := fmt.Sprintf("%s_%d.pdf", base, n)
		data, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			return nil, fmt.Errorf("read split page %s: %w", name, err)
		}
		pages = append(pages, Page{Number: n, Name: fmt.Sprintf("%s_page_%d.pdf", base, n), Data: data})
	}
	return pages, nil
}

// PageCount returns the number of pages in a PDF file.
func PageCount(pdfPath string) (int, error) {
	return api.PageCountFile(pdfPath)
}
