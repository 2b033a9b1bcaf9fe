package convert

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Page is one single-page PDF produced by a split.
type Page struct {
	Number int
	Name   string
	Data   []byte
}

// Providers name split output either base_page_3.pdf or base_3.pdf depending
// on the tool version.
var pageNumberRe = regexp.MustCompile(`_(?:page_)?(\d+)\.pdf$`)

// extractPages unpacks a split result. A single-page input comes back as a
// bare PDF; multi-page results arrive as a zip of per-page files.
func extractPages(data []byte) ([]Page, error) {
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return []Page{{Number: 1, Name: "page_1.pdf", Data: data}}, nil
	}

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("split result is neither pdf nor zip: %w", err)
	}

	var pages []Page
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ".pdf") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		pages = append(pages, Page{Number: pageNumber(f.Name), Name: f.Name, Data: content})
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("split archive contains no pdf pages")
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}

// pageNumber pulls the page index out of a split filename; files without a
// recognizable index sort first.
func pageNumber(name string) int {
	m := pageNumberRe.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
