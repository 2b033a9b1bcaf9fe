package pipeline

import (
	"log/slog"
	"strings"
)

// Kind classifies a produced document for order resolution.
type Kind string

const (
	KindGenerated Kind = "generated"
	KindUploaded  Kind = "uploaded"
	KindSplitPage Kind = "split_page"
)

// Document is one PDF available for the final merge: a rendered template, a
// raw upload, or a single split page. All live inside the request's temp
// directory.
type Document struct {
	Kind         Kind
	Name         string
	OriginalName string
	ID           string
	PageNumber   int
	Path         string
}

// OrderItem is one entry of the client-supplied merge manifest.
type OrderItem struct {
	Type         string `json:"type"`
	DocumentName string `json:"documentName"`
	PageNumber   int    `json:"pageNumber,omitempty"`
}

// ResolveOrder maps the manifest onto concrete file paths, preserving
// manifest order. Entries that resolve to nothing are logged and skipped;
// resolution never fails outright.
func ResolveOrder(manifest []OrderItem, docs []Document, log *slog.Logger) []string {
	var paths []string
	for _, item := range manifest {
		doc := resolveItem(item, docs)
		if doc == nil {
			log.Warn("order manifest entry matched no document",
				"type", item.Type, "name", item.DocumentName, "page", item.PageNumber)
			continue
		}
		paths = append(paths, doc.Path)
	}
	return paths
}

func resolveItem(item OrderItem, docs []Document) *Document {
	switch Kind(item.Type) {
	case KindGenerated:
		return matchGenerated(item.DocumentName, docs)
	case KindUploaded:
		for i := range docs {
			d := &docs[i]
			if d.Kind != KindUploaded {
				continue
			}
			if strings.EqualFold(d.OriginalName, item.DocumentName) ||
				strings.EqualFold(d.Name, item.DocumentName) {
				return d
			}
		}
	case KindSplitPage:
		for i := range docs {
			d := &docs[i]
			if d.Kind == KindSplitPage && d.ID != "" && d.ID == item.DocumentName {
				return d
			}
		}
		for i := range docs {
			d := &docs[i]
			if d.Kind != KindSplitPage {
				continue
			}
			if strings.EqualFold(d.Name, item.DocumentName) ||
				(item.PageNumber > 0 && d.PageNumber == item.PageNumber) {
				return d
			}
		}
	}
	return nil
}

// matchGenerated tries exact name, substring containment either way, then
// underscore/space-normalized equality. First hit at the strongest tier wins.
func matchGenerated(name string, docs []Document) *Document {
	want := strings.ToLower(name)
	var substring, normalized *Document
	for i := range docs {
		d := &docs[i]
		if d.Kind != KindGenerated {
			continue
		}
		have := strings.ToLower(d.Name)
		if have == want {
			return d
		}
		if substring == nil && (strings.Contains(have, want) || strings.Contains(want, have)) {
			substring = d
		}
		if normalized == nil && normalizeName(have) == normalizeName(want) {
			normalized = d
		}
	}
	if substring != nil {
		return substring
	}
	return normalized
}

func normalizeName(s string) string {
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, " ", "")
}
