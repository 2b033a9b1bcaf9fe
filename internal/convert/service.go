package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Service is the conversion surface the pipeline works against. It prefers
// the remote provider and falls back to the local Gotenberg instance for
// conversion and to pdfcpu for splitting when the remote side is
// unconfigured or failing.
type Service struct {
	remote   *Client
	fallback *Gotenberg
	log      *slog.Logger
}

func NewService(remote *Client, fallback *Gotenberg, logger *slog.Logger) *Service {
	return &Service{remote: remote, fallback: fallback, log: logger}
}

// Remote exposes the underlying provider client for the admin endpoints.
func (s *Service) Remote() *Client { return s.remote }

// ConvertToFile converts a DOCX to PDF, writing the result to outPath.
func (s *Service) ConvertToFile(ctx context.Context, docxPath, outPath string) error {
	data, err := s.convert(ctx, docxPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(outPath), err)
	}
	return nil
}

func (s *Service) convert(ctx context.Context, docxPath string) ([]byte, error) {
	if s.remote.Configured() {
		data, err := s.remote.ConvertToPDF(ctx, docxPath)
		if err == nil {
			return data, nil
		}
		if s.fallback == nil {
			return nil, err
		}
		s.log.Warn("remote conversion failed, using local converter",
			"file", filepath.Base(docxPath), "error", err)
	} else if s.fallback == nil {
		return nil, fmt.Errorf("no conversion backend available for %s", filepath.Base(docxPath))
	}
	return s.fallback.ConvertToPDF(ctx, docxPath)
}

// Merge concatenates PDFs in order through the remote provider.
func (s *Service) Merge(ctx context.Context, pdfPaths []string) ([]byte, error) {
	if s.remote.Configured() {
		data, err := s.remote.Merge(ctx, pdfPaths)
		if err == nil {
			return data, nil
		}
		s.log.Warn("remote merge failed, merging locally", "files", len(pdfPaths), "error", err)
	}
	out := pdfPaths[0] + ".merged"
	if err := LocalMerge(pdfPaths, out); err != nil {
		return nil, err
	}
	defer os.Remove(out)
	return os.ReadFile(out)
}

// Split breaks a PDF into single pages, remote first, pdfcpu second.
func (s *Service) Split(ctx context.Context, pdfPath, workDir string) ([]Page, error) {
	if s.remote.Configured() {
		pages, err := s.remote.SplitToPages(ctx, pdfPath)
		if err == nil {
			return pages, nil
		}
		s.log.Warn("remote split failed, splitting locally",
			"file", filepath.Base(pdfPath), "error", err)
	}
	return LocalSplit(pdfPath, workDir)
}
