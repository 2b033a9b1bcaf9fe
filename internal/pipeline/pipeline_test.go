package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmb-docgen/internal/convert"
	"pmb-docgen/internal/docx"
	"pmb-docgen/internal/templates"
)

// stubConverter fakes the conversion backend: conversions write a marker
// file, merges return canned bytes, and both can be told to fail.
type stubConverter struct {
	mu          sync.Mutex
	failConvert map[string]bool
	mergeErr    error
	merged      []byte
	mergeCalls  [][]string
}

func (s *stubConverter) ConvertToFile(_ context.Context, docxPath, outPath string) error {
	base := filepath.Base(docxPath)
	if s.failConvert[base] {
		return errors.New("conversion refused")
	}
	return os.WriteFile(outPath, []byte("%PDF-stub "+base), 0o644)
}

func (s *stubConverter) Merge(_ context.Context, paths []string) ([]byte, error) {
	s.mu.Lock()
	s.mergeCalls = append(s.mergeCalls, append([]string(nil), paths...))
	s.mu.Unlock()
	if s.mergeErr != nil {
		return nil, s.mergeErr
	}
	return s.merged, nil
}

func (s *stubConverter) Split(context.Context, string, string) ([]convert.Page, error) {
	return nil, errors.New("no split backend")
}

func writeTemplate(t *testing.T, dir, name string) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<w:t>Offer for {{NAME}}</w:t>`))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

func newTestPipeline(t *testing.T, stub *stubConverter) (*Pipeline, string, string) {
	t.Helper()
	templatesDir := t.TempDir()
	tempRoot := t.TempDir()
	engine := docx.NewEngine([]string{"NAME"}, testLogger())
	p := New(templates.NewResolver(templatesDir), engine, stub, tempRoot, testLogger())
	return p, templatesDir, tempRoot
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "work dirs left behind under %s", dir)
}

func TestRunAbsorbsPerTemplateFailures(t *testing.T) {
	stub := &stubConverter{
		failConvert: map[string]bool{"readiness.docx": true},
		merged:      []byte("merged-pdf"),
	}
	p, templatesDir, tempRoot := newTestPipeline(t, stub)

	// Two of the base set exist; one of those refuses to convert, the
	// remaining five are missing entirely. The run must still succeed.
	writeTemplate(t, templatesDir, "indemnity.docx")
	writeTemplate(t, templatesDir, "readiness.docx")

	out, err := p.Run(context.Background(), Request{
		MortgageBank: "Abbey Mortgage Bank",
		Values:       map[string]string{"NAME": "ADEWALE"},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("merged-pdf"), out)

	require.Len(t, stub.mergeCalls, 1)
	require.Len(t, stub.mergeCalls[0], 1, "only the converted document reaches the merge")
	assert.Contains(t, stub.mergeCalls[0][0], "indemnity.pdf")

	requireEmptyDir(t, tempRoot)
}

func TestRunOrderedMergeFallsBackToUnordered(t *testing.T) {
	stub := &stubConverter{merged: []byte("fallback-merged")}
	p, templatesDir, tempRoot := newTestPipeline(t, stub)

	writeTemplate(t, templatesDir, "indemnity.docx")
	writeTemplate(t, templatesDir, "readiness.docx")

	// The stub's PDF bytes are not parseable, so the local ordered merge
	// fails and the run must degrade to the backend merge over everything.
	out, err := p.Run(context.Background(), Request{
		MortgageBank: "Abbey Mortgage Bank",
		Values:       map[string]string{"NAME": "ADEWALE"},
		Order:        []OrderItem{{Type: "generated", DocumentName: "indemnity"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("fallback-merged"), out)

	require.Len(t, stub.mergeCalls, 1)
	assert.Len(t, stub.mergeCalls[0], 2, "fallback merges every available document")

	requireEmptyDir(t, tempRoot)
}

func TestRunMergeFailureReturnsFirstDocument(t *testing.T) {
	stub := &stubConverter{mergeErr: errors.New("merge backend down")}
	p, templatesDir, tempRoot := newTestPipeline(t, stub)

	writeTemplate(t, templatesDir, "indemnity.docx")

	out, err := p.Run(context.Background(), Request{
		MortgageBank: "Abbey Mortgage Bank",
		Values:       map[string]string{"NAME": "ADEWALE"},
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-stub indemnity.docx"), out)

	requireEmptyDir(t, tempRoot)
}

func TestRunFailsWhenNothingProduced(t *testing.T) {
	stub := &stubConverter{merged: []byte("unreachable")}
	p, _, tempRoot := newTestPipeline(t, stub)

	// Empty templates directory: every render fails with a missing file.
	_, err := p.Run(context.Background(), Request{
		MortgageBank: "Abbey Mortgage Bank",
		Values:       map[string]string{"NAME": "ADEWALE"},
	})
	require.Error(t, err)
	assert.Empty(t, stub.mergeCalls)

	requireEmptyDir(t, tempRoot)
}
