package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProvider implements just enough of the conversion protocol for the
// client: auth, start, upload, process, download against one server.
type fakeProvider struct {
	srv       *httptest.Server
	authCalls atomic.Int32
	result    []byte
}

func newFakeProvider(t *testing.T, result []byte) *fakeProvider {
	t.Helper()
	p := &fakeProvider{result: result}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/auth", func(w http.ResponseWriter, r *http.Request) {
		p.authCalls.Add(1)
		var body struct {
			PublicKey string `json:"public_key"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.PublicKey != "pk_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "tok_abc"})
	})
	mux.HandleFunc("GET /v1/start/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok_abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"server":            p.srv.URL,
			"task":              "task_1",
			"remaining_credits": 42,
		})
	})
	mux.HandleFunc("POST /v1/upload", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(16<<20))
		assert.Equal(t, "task_1", r.FormValue("task"))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		json.NewEncoder(w).Encode(map[string]string{"server_filename": "srv_" + header.Filename})
	})
	mux.HandleFunc("POST /v1/process", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "task_1", body["task"])
		json.NewEncoder(w).Encode(map[string]string{"status": "TaskSuccess"})
	})
	mux.HandleFunc("GET /v1/download/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(p.result)
	})

	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func TestClientConvertToPDF(t *testing.T) {
	provider := newFakeProvider(t, []byte("%PDF-1.7 converted"))
	client := NewClient(provider.srv.URL, "pk_test", testLogger())

	docx := filepath.Join(t.TempDir(), "letter.docx")
	require.NoError(t, os.WriteFile(docx, []byte("fake docx"), 0o644))

	data, err := client.ConvertToPDF(context.Background(), docx)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7 converted"), data)
}

func TestClientTokenReuse(t *testing.T) {
	provider := newFakeProvider(t, []byte("%PDF-1.7"))
	client := NewClient(provider.srv.URL, "pk_test", testLogger())

	docx := filepath.Join(t.TempDir(), "a.docx")
	require.NoError(t, os.WriteFile(docx, []byte("x"), 0o644))

	for i := 0; i < 3; i++ {
		_, err := client.ConvertToPDF(context.Background(), docx)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), provider.authCalls.Load(), "token should be cached across calls")
}

func TestClientUnconfigured(t *testing.T) {
	client := NewClient("http://localhost:1", "", testLogger())
	assert.False(t, client.Configured())

	_, err := client.convertOnce(context.Background(), "whatever.docx")
	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "auth", convErr.Stage)
}

func TestClientSetPublicKeyInvalidatesToken(t *testing.T) {
	provider := newFakeProvider(t, []byte("%PDF-1.7"))
	client := NewClient(provider.srv.URL, "pk_test", testLogger())

	docx := filepath.Join(t.TempDir(), "a.docx")
	require.NoError(t, os.WriteFile(docx, []byte("x"), 0o644))
	_, err := client.ConvertToPDF(context.Background(), docx)
	require.NoError(t, err)

	client.SetPublicKey("pk_test")
	_, err = client.ConvertToPDF(context.Background(), docx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), provider.authCalls.Load())
}

func TestClientMergeOrdersFiles(t *testing.T) {
	provider := newFakeProvider(t, []byte("%PDF-1.7 merged"))
	client := NewClient(provider.srv.URL, "pk_test", testLogger())

	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"one.pdf", "two.pdf"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("%PDF"), 0o644))
		paths = append(paths, p)
	}

	data, err := client.Merge(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7 merged"), data)
}

func buildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestExtractPages(t *testing.T) {
	t.Run("zip pages sorted by number", func(t *testing.T) {
		archive := buildZip(t, map[string][]byte{
			"doc_page_10.pdf": []byte("p10"),
			"doc_page_2.pdf":  []byte("p2"),
			"doc_page_1.pdf":  []byte("p1"),
		})
		pages, err := extractPages(archive)
		require.NoError(t, err)
		require.Len(t, pages, 3)
		assert.Equal(t, []int{1, 2, 10}, []int{pages[0].Number, pages[1].Number, pages[2].Number})
		assert.Equal(t, []byte("p1"), pages[0].Data)
	})

	t.Run("legacy naming without page infix", func(t *testing.T) {
		archive := buildZip(t, map[string][]byte{
			"doc_2.pdf": []byte("b"),
			"doc_1.pdf": []byte("a"),
		})
		pages, err := extractPages(archive)
		require.NoError(t, err)
		assert.Equal(t, 1, pages[0].Number)
		assert.Equal(t, 2, pages[1].Number)
	})

	t.Run("bare pdf is a single page", func(t *testing.T) {
		pages, err := extractPages([]byte("%PDF-1.4 single"))
		require.NoError(t, err)
		require.Len(t, pages, 1)
		assert.Equal(t, 1, pages[0].Number)
	})

	t.Run("garbage input fails", func(t *testing.T) {
		_, err := extractPages([]byte("not a pdf or zip"))
		assert.Error(t, err)
	})
}

func TestPageNumber(t *testing.T) {
	assert.Equal(t, 7, pageNumber("report_page_7.pdf"))
	assert.Equal(t, 3, pageNumber("report_3.pdf"))
	assert.Equal(t, 0, pageNumber("report.pdf"))
}
