package pipeline

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolveOrder(t *testing.T) {
	docs := []Document{
		{Kind: KindGenerated, Name: "indemnity", Path: "/tmp/pdf/indemnity.pdf"},
		{Kind: KindGenerated, Name: "legal_search", Path: "/tmp/pdf/legal_search.pdf"},
		{Kind: KindUploaded, Name: "statement.pdf", OriginalName: "Bank Statement.pdf", Path: "/tmp/uploads/statement.pdf"},
		{Kind: KindSplitPage, Name: "doc_page_1.pdf", ID: "pg1", PageNumber: 1, Path: "/tmp/uploads/doc_page_1.pdf"},
		{Kind: KindSplitPage, Name: "doc_page_2.pdf", ID: "pg2", PageNumber: 2, Path: "/tmp/uploads/doc_page_2.pdf"},
	}

	t.Run("manifest order preserved, unmatched dropped", func(t *testing.T) {
		manifest := []OrderItem{
			{Type: "split_page", DocumentName: "pg1"},
			{Type: "generated", DocumentName: "indemnity"},
			{Type: "generated", DocumentName: "does_not_exist_anywhere"},
		}
		got := ResolveOrder(manifest, docs, testLogger())
		assert.Equal(t, []string{"/tmp/uploads/doc_page_1.pdf", "/tmp/pdf/indemnity.pdf"}, got)
	})

	t.Run("generated matches by substring", func(t *testing.T) {
		got := ResolveOrder([]OrderItem{{Type: "generated", DocumentName: "legal"}}, docs, testLogger())
		assert.Equal(t, []string{"/tmp/pdf/legal_search.pdf"}, got)
	})

	t.Run("generated matches space-normalized names", func(t *testing.T) {
		got := ResolveOrder([]OrderItem{{Type: "generated", DocumentName: "legal search"}}, docs, testLogger())
		assert.Equal(t, []string{"/tmp/pdf/legal_search.pdf"}, got)
	})

	t.Run("exact beats substring", func(t *testing.T) {
		withVariant := append(docs, Document{Kind: KindGenerated, Name: "indemnity_extra", Path: "/tmp/pdf/indemnity_extra.pdf"})
		got := ResolveOrder([]OrderItem{{Type: "generated", DocumentName: "indemnity"}}, withVariant, testLogger())
		assert.Equal(t, []string{"/tmp/pdf/indemnity.pdf"}, got)
	})

	t.Run("uploaded matches by original name", func(t *testing.T) {
		got := ResolveOrder([]OrderItem{{Type: "uploaded", DocumentName: "Bank Statement.pdf"}}, docs, testLogger())
		assert.Equal(t, []string{"/tmp/uploads/statement.pdf"}, got)
	})

	t.Run("split page falls back to page number", func(t *testing.T) {
		got := ResolveOrder([]OrderItem{{Type: "split_page", DocumentName: "unknown-id", PageNumber: 2}}, docs, testLogger())
		assert.Equal(t, []string{"/tmp/uploads/doc_page_2.pdf"}, got)
	})

	t.Run("empty manifest resolves to nothing", func(t *testing.T) {
		assert.Empty(t, ResolveOrder(nil, docs, testLogger()))
	})
}
