package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Token lifetime advertised by the provider is two hours; refresh a little
// early so an in-flight request never rides an expiring token.
const tokenLifetime = 90 * time.Minute

const convertRetries = 3

// ConversionError reports a failed call against the conversion provider.
type ConversionError struct {
	Stage  string
	Status int
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("conversion %s: status %d: %v", e.Stage, e.Status, e.Err)
	}
	return fmt.Sprintf("conversion %s: %v", e.Stage, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Client talks to the remote document conversion provider. Each job is a
// task: start allocates a worker server, files are uploaded to it, process
// runs the tool, download fetches the result.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     *slog.Logger

	mu          sync.Mutex
	publicKey   string
	token       string
	tokenExpiry time.Time

	// Last credit balance reported by the provider, -1 until known.
	credits int
}

func NewClient(baseURL, publicKey string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		httpc:     &http.Client{Timeout: 2 * time.Minute},
		log:       logger,
		publicKey: publicKey,
		credits:   -1,
	}
}

// Configured reports whether the client has a public key to authenticate with.
func (c *Client) Configured() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.publicKey != ""
}

// SetPublicKey replaces the credential and invalidates any cached token.
func (c *Client) SetPublicKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publicKey = key
	c.token = ""
	c.tokenExpiry = time.Time{}
}

// Credits returns the remaining credit balance as last reported by the
// provider. A fresh balance is fetched by starting (and abandoning) a task.
func (c *Client) Credits(ctx context.Context) (int, error) {
	if _, err := c.startTask(ctx, "officepdf"); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.credits, nil
}

// authenticate returns a bearer token, refreshing it when the cached one has
// aged out. The mutex makes refresh single-flight: concurrent requests wait
// rather than each hitting the auth endpoint.
func (c *Client) authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.publicKey == "" {
		return "", &ConversionError{Stage: "auth", Err: fmt.Errorf("no public key configured")}
	}
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	body, _ := json.Marshal(map[string]string{"public_key": c.publicKey})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/auth", bytes.NewReader(body))
	if err != nil {
		return "", &ConversionError{Stage: "auth", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(req, "auth", &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", &ConversionError{Stage: "auth", Err: fmt.Errorf("empty token in response")}
	}

	c.token = out.Token
	c.tokenExpiry = time.Now().Add(tokenLifetime)
	c.log.Info("conversion token refreshed", "expires", c.tokenExpiry)
	return c.token, nil
}

type task struct {
	Server string `json:"server"`
	Task   string `json:"task"`
}

func (c *Client) startTask(ctx context.Context, tool string) (*task, error) {
	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/start/"+tool, nil)
	if err != nil {
		return nil, &ConversionError{Stage: "start", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var out struct {
		Server           string `json:"server"`
		Task             string `json:"task"`
		RemainingCredits int    `json:"remaining_credits"`
	}
	if err := c.do(req, "start", &out); err != nil {
		return nil, err
	}
	if out.Server == "" || out.Task == "" {
		return nil, &ConversionError{Stage: "start", Err: fmt.Errorf("incomplete task assignment")}
	}

	c.mu.Lock()
	c.credits = out.RemainingCredits
	c.mu.Unlock()

	return &task{Server: out.Server, Task: out.Task}, nil
}

func (c *Client) serverURL(t *task, path string) string {
	// The provider usually returns a bare host; some deployments hand back a
	// full URL.
	if strings.Contains(t.Server, "://") {
		return strings.TrimRight(t.Server, "/") + path
	}
	return "https://" + t.Server + path
}

// upload sends one file to the task's worker server and returns the name the
// server stored it under.
func (c *Client) upload(ctx context.Context, t *task, filePath string) (string, error) {
	token, err := c.authenticate(ctx)
	if err != nil {
		return "", err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return "", &ConversionError{Stage: "upload", Err: err}
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("task", t.Task); err != nil {
		return "", &ConversionError{Stage: "upload", Err: err}
	}
	part, err := w.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", &ConversionError{Stage: "upload", Err: err}
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", &ConversionError{Stage: "upload", Err: err}
	}
	if err := w.Close(); err != nil {
		return "", &ConversionError{Stage: "upload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL(t, "/v1/upload"), &buf)
	if err != nil {
		return "", &ConversionError{Stage: "upload", Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	var out struct {
		ServerFilename string `json:"server_filename"`
	}
	if err := c.do(req, "upload", &out); err != nil {
		return "", err
	}
	if out.ServerFilename == "" {
		return "", &ConversionError{Stage: "upload", Err: fmt.Errorf("no server filename returned")}
	}
	return out.ServerFilename, nil
}

type taskFile struct {
	ServerFilename string `json:"server_filename"`
	Filename       string `json:"filename"`
}

// process runs the tool over the uploaded files. extra carries tool-specific
// parameters (split mode, packaged filename).
func (c *Client) process(ctx context.Context, t *task, tool string, files []taskFile, extra map[string]any) error {
	token, err := c.authenticate(ctx)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"task":  t.Task,
		"tool":  tool,
		"files": files,
	}
	for k, v := range extra {
		payload[k] = v
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return &ConversionError{Stage: "process", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL(t, "/v1/process"), bytes.NewReader(body))
	if err != nil {
		return &ConversionError{Stage: "process", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	var out struct {
		Status string `json:"status"`
	}
	return c.do(req, "process", &out)
}

func (c *Client) download(ctx context.Context, t *task) ([]byte, error) {
	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL(t, "/v1/download/"+t.Task), nil)
	if err != nil {
		return nil, &ConversionError{Stage: "download", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &ConversionError{Stage: "download", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &ConversionError{Stage: "download", Status: resp.StatusCode, Err: fmt.Errorf("unexpected status")}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConversionError{Stage: "download", Err: err}
	}
	return data, nil
}

func (c *Client) do(req *http.Request, stage string, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return &ConversionError{Stage: stage, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &ConversionError{Stage: stage, Status: resp.StatusCode,
			Err: fmt.Errorf("%s", strings.TrimSpace(string(snippet)))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ConversionError{Stage: stage, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// ConvertToPDF converts one office document through the provider and returns
// the PDF bytes. Transient failures are retried with linear backoff.
func (c *Client) ConvertToPDF(ctx context.Context, docxPath string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= convertRetries; attempt++ {
		data, err := c.convertOnce(ctx, docxPath)
		if err == nil {
			return data, nil
		}
		lastErr = err
		c.log.Warn("remote conversion attempt failed",
			"file", filepath.Base(docxPath), "attempt", attempt, "error", err)
		if attempt < convertRetries {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("convert %s after %d attempts: %w",
		filepath.Base(docxPath), convertRetries, lastErr)
}

func (c *Client) convertOnce(ctx context.Context, docxPath string) ([]byte, error) {
	t, err := c.startTask(ctx, "officepdf")
	if err != nil {
		return nil, err
	}
	serverName, err := c.upload(ctx, t, docxPath)
	if err != nil {
		return nil, err
	}
	files := []taskFile{{ServerFilename: serverName, Filename: filepath.Base(docxPath)}}
	if err := c.process(ctx, t, "officepdf", files, nil); err != nil {
		return nil, err
	}
	return c.download(ctx, t)
}

// Merge concatenates the given PDFs in order and returns the merged bytes.
func (c *Client) Merge(ctx context.Context, pdfPaths []string) ([]byte, error) {
	if len(pdfPaths) == 0 {
		return nil, fmt.Errorf("merge: no input files")
	}
	t, err := c.startTask(ctx, "merge")
	if err != nil {
		return nil, err
	}
	files := make([]taskFile, 0, len(pdfPaths))
	for _, p := range pdfPaths {
		serverName, err := c.upload(ctx, t, p)
		if err != nil {
			return nil, err
		}
		files = append(files, taskFile{ServerFilename: serverName, Filename: filepath.Base(p)})
	}
	if err := c.process(ctx, t, "merge", files, nil); err != nil {
		return nil, err
	}
	return c.download(ctx, t)
}

// SplitToPages splits a PDF into single-page documents. The provider packages
// multi-page results as a zip archive; the returned pages are ordered by page
// number.
func (c *Client) SplitToPages(ctx context.Context, pdfPath string) ([]Page, error) {
	t, err := c.startTask(ctx, "split")
	if err != nil {
		return nil, err
	}
	serverName, err := c.upload(ctx, t, pdfPath)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	files := []taskFile{{ServerFilename: serverName, Filename: filepath.Base(pdfPath)}}
	extra := map[string]any{
		"split_mode":        "fixed_range",
		"fixed_range":       1,
		"output_filename":   base + "_page_{n}",
		"packaged_filename": base + "_pages",
	}
	if err := c.process(ctx, t, "split", files, extra); err != nil {
		return nil, err
	}
	data, err := c.download(ctx, t)
	if err != nil {
		return nil, err
	}
	return extractPages(data)
}
