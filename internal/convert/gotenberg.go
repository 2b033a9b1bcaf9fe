package convert

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/starwalkn/gotenberg-go-client/v8"
	"github.com/starwalkn/gotenberg-go-client/v8/document"
)

// Gotenberg converts office documents through a local Gotenberg instance.
// It backs up the remote provider: same output, no credit consumption.
type Gotenberg struct {
	client  *gotenberg.Client
	timeout time.Duration
}

func NewGotenberg(url string, timeout time.Duration) (*Gotenberg, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client, err := gotenberg.NewClient(url, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("create gotenberg client: %w", err)
	}
	return &Gotenberg{client: client, timeout: timeout}, nil
}

// ConvertToPDF converts the DOCX at docxPath and returns the PDF bytes.
func (g *Gotenberg) ConvertToPDF(ctx context.Context, docxPath string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= convertRetries; attempt++ {
		data, err := g.convertOnce(ctx, docxPath)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if attempt < convertRetries {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("gotenberg convert %s after %d attempts: %w",
		filepath.Base(docxPath), convertRetries, lastErr)
}

func (g *Gotenberg) convertOnce(ctx context.Context, docxPath string) ([]byte, error) {
	doc, err := document.FromPath(filepath.Base(docxPath), docxPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(docxPath), err)
	}
	req := gotenberg.NewLibreOfficeRequest(doc)

	convertCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out := docxPath + ".pdf.tmp"
	if err := g.client.Store(convertCtx, req, out); err != nil {
		return nil, err
	}
	defer os.Remove(out)
	return os.ReadFile(out)
}
