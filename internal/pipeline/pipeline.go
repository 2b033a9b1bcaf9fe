package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pmb-docgen/internal/convert"
	"pmb-docgen/internal/docx"
	"pmb-docgen/internal/templates"
)

// Upload is a client-supplied PDF carried into the merge set.
type Upload struct {
	Name           string
	Data           []byte
	SplitIntoPages bool
}

// SplitPage is a pre-split single page sent back by the client after a
// split-pdf round trip.
type SplitPage struct {
	ID               string
	Name             string
	PageNumber       int
	OriginalFileName string
	Data             []byte
}

// Request is one document-generation job, already validated and with its
// placeholder values built.
type Request struct {
	MortgageBank string
	Values       map[string]string

	// Custom-order extras; Order nil means merge in discovery order.
	Order      []OrderItem
	Uploads    []Upload
	SplitPages []SplitPage
}

// Converter is the conversion surface the pipeline drives; satisfied by
// convert.Service.
type Converter interface {
	ConvertToFile(ctx context.Context, docxPath, outPath string) error
	Merge(ctx context.Context, pdfPaths []string) ([]byte, error)
	Split(ctx context.Context, pdfPath, workDir string) ([]convert.Page, error)
}

// Pipeline renders the bank's template set, converts each to PDF, and merges
// the results into one document. Each run owns a temp directory that is
// removed on every exit path.
type Pipeline struct {
	resolver  *templates.Resolver
	engine    *docx.Engine
	converter Converter
	log       *slog.Logger
	tempRoot  string
}

func New(resolver *templates.Resolver, engine *docx.Engine, converter Converter, tempRoot string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		resolver:  resolver,
		engine:    engine,
		converter: converter,
		log:       logger,
		tempRoot:  tempRoot,
	}
}

type itemResult struct {
	file string
	path string
	err  error
}

// Run executes one generation job and returns the merged PDF bytes.
func (p *Pipeline) Run(ctx context.Context, req Request) ([]byte, error) {
	workDir := filepath.Join(p.tempRoot, uuid.NewString())
	for _, sub := range []string{"docx", "pdf", "uploads"} {
		if err := os.MkdirAll(filepath.Join(workDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create work dir: %w", err)
		}
	}
	defer os.RemoveAll(workDir)

	docs, err := p.produceDocuments(ctx, req, workDir)
	if err != nil {
		return nil, err
	}

	uploadedDocs, splitDocs, err := p.materializeExtras(ctx, req, workDir)
	if err != nil {
		return nil, err
	}
	docs = append(docs, uploadedDocs...)
	docs = append(docs, splitDocs...)

	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents produced")
	}

	if len(req.Order) > 0 {
		return p.mergeOrdered(ctx, req.Order, docs, workDir)
	}
	return p.mergeAll(ctx, docs)
}

// produceDocuments renders and converts every template in the bank's set
// concurrently and copies the bank's pre-rendered PDFs. Per-template failures
// are logged and absorbed.
func (p *Pipeline) produceDocuments(ctx context.Context, req Request, workDir string) ([]Document, error) {
	files := p.resolver.TemplateSet(req.MortgageBank)
	results := make([]itemResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			results[i] = p.processTemplate(gctx, file, req, workDir)
			return nil
		})
	}
	_ = g.Wait()

	var docs []Document
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			p.log.Error("template processing failed", "template", r.file, "error", r.err)
			continue
		}
		docs = append(docs, Document{
			Kind: KindGenerated,
			Name: strings.TrimSuffix(r.file, filepath.Ext(r.file)),
			Path: r.path,
		})
	}
	if failed > 0 {
		p.log.Warn("some templates failed", "failed", failed, "succeeded", len(docs))
	}

	for _, pdf := range p.resolver.PDFSet(req.MortgageBank) {
		src := p.resolver.PDFPath(pdf, req.MortgageBank)
		dst := filepath.Join(workDir, "pdf", pdf)
		if err := copyFile(src, dst); err != nil {
			p.log.Error("bank pdf unavailable", "file", pdf, "error", err)
			continue
		}
		docs = append(docs, Document{
			Kind: KindGenerated,
			Name: strings.TrimSuffix(pdf, filepath.Ext(pdf)),
			Path: dst,
		})
	}
	return docs, nil
}

func (p *Pipeline) processTemplate(ctx context.Context, file string, req Request, workDir string) itemResult {
	path := p.resolver.Path(file, req.MortgageBank)
	filled, err := p.engine.Render(path, req.Values)
	if err != nil {
		return itemResult{file: file, err: err}
	}

	docxPath := filepath.Join(workDir, "docx", file)
	if err := os.WriteFile(docxPath, filled, 0o644); err != nil {
		return itemResult{file: file, err: fmt.Errorf("write filled docx: %w", err)}
	}

	pdfPath := filepath.Join(workDir, "pdf", strings.TrimSuffix(file, filepath.Ext(file))+".pdf")
	if err := p.converter.ConvertToFile(ctx, docxPath, pdfPath); err != nil {
		return itemResult{file: file, err: err}
	}
	return itemResult{file: file, path: pdfPath}
}

// materializeExtras writes uploads and client-provided split pages into the
// work dir. Uploads flagged for splitting are broken into pages here.
func (p *Pipeline) materializeExtras(ctx context.Context, req Request, workDir string) (uploaded, split []Document, err error) {
	for i, up := range req.Uploads {
		name := up.Name
		if name == "" {
			name = fmt.Sprintf("upload_%d.pdf", i+1)
		}
		path := filepath.Join(workDir, "uploads", name)
		if err := os.WriteFile(path, up.Data, 0o644); err != nil {
			return nil, nil, fmt.Errorf("save upload %s: %w", name, err)
		}

		if !up.SplitIntoPages {
			uploaded = append(uploaded, Document{
				Kind:         KindUploaded,
				Name:         name,
				OriginalName: up.Name,
				Path:         path,
			})
			continue
		}

		pages, err := p.converter.Split(ctx, path, workDir)
		if err != nil {
			p.log.Error("upload split failed, keeping whole file", "file", name, "error", err)
			uploaded = append(uploaded, Document{
				Kind:         KindUploaded,
				Name:         name,
				OriginalName: up.Name,
				Path:         path,
			})
			continue
		}
		for _, pg := range pages {
			pgPath := filepath.Join(workDir, "uploads", pg.Name)
			if err := os.WriteFile(pgPath, pg.Data, 0o644); err != nil {
				return nil, nil, fmt.Errorf("save split page %s: %w", pg.Name, err)
			}
			split = append(split, Document{
				Kind:         KindSplitPage,
				Name:         pg.Name,
				OriginalName: up.Name,
				PageNumber:   pg.Number,
				Path:         pgPath,
			})
		}
	}

	for i, sp := range req.SplitPages {
		name := sp.Name
		if name == "" {
			name = fmt.Sprintf("page_%d.pdf", i+1)
		}
		path := filepath.Join(workDir, "uploads", name)
		if err := os.WriteFile(path, sp.Data, 0o644); err != nil {
			return nil, nil, fmt.Errorf("save split page %s: %w", name, err)
		}
		split = append(split, Document{
			Kind:         KindSplitPage,
			Name:         name,
			OriginalName: sp.OriginalFileName,
			ID:           sp.ID,
			PageNumber:   sp.PageNumber,
			Path:         path,
		})
	}
	return uploaded, split, nil
}

// mergeOrdered assembles the final PDF in manifest order, degrading to an
// unordered merge of everything available when resolution or the ordered
// merge comes up empty.
func (p *Pipeline) mergeOrdered(ctx context.Context, manifest []OrderItem, docs []Document, workDir string) ([]byte, error) {
	paths := ResolveOrder(manifest, docs, p.log)
	if len(paths) > 0 {
		out := filepath.Join(workDir, "merged.pdf")
		err := convert.LocalMerge(paths, out)
		if err == nil {
			return os.ReadFile(out)
		}
		p.log.Error("ordered merge failed", "files", len(paths), "error", err)
	}
	p.log.Warn("falling back to unordered merge", "documents", len(docs))
	return p.mergeAll(ctx, docs)
}

// mergeAll merges every document in discovery order. When even that fails,
// the first available PDF is returned alone rather than nothing.
func (p *Pipeline) mergeAll(ctx context.Context, docs []Document) ([]byte, error) {
	paths := make([]string, len(docs))
	for i, d := range docs {
		paths[i] = d.Path
	}

	data, err := p.converter.Merge(ctx, paths)
	if err == nil {
		return data, nil
	}
	p.log.Error("merge failed, returning first document only", "files", len(paths), "error", err)
	return os.ReadFile(paths[0])
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
