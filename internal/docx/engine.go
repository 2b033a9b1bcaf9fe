package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const documentPart = "word/document.xml"

// ErrTemplateNotFound reports that the template path does not exist on disk.
var ErrTemplateNotFound = errors.New("template file not found")

// RenderError reports a substitution failure: a token the template references
// has no value in the supplied map.
type RenderError struct {
	Template string
	Token    string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: no value for token %s", e.Template, e.Token)
}

type cachedTemplate struct {
	names []string
	parts map[string][]byte
	size  int64
}

// Engine fills DOCX templates. Parsed templates (with their document XML
// already repaired) are cached by path; the cache is flushed wholesale when
// it exceeds the entry ceiling or the byte watermark.
type Engine struct {
	vocabulary []string
	log        *slog.Logger

	mu         sync.Mutex
	cache      map[string]*cachedTemplate
	cacheBytes int64

	maxEntries int
	maxBytes   int64
}

// NewEngine creates an engine over the given token vocabulary.
func NewEngine(vocabulary []string, logger *slog.Logger) *Engine {
	return &Engine{
		vocabulary: vocabulary,
		log:        logger,
		cache:      make(map[string]*cachedTemplate),
		maxEntries: 50,
		maxBytes:   100 << 20,
	}
}

// Render loads the template at templatePath, repairs its placeholder markup,
// substitutes the supplied values and returns the filled DOCX bytes.
func (e *Engine) Render(templatePath string, values map[string]string) ([]byte, error) {
	tmpl, err := e.load(templatePath)
	if err != nil {
		return nil, err
	}

	xml := string(tmpl.parts[documentPart])
	xml, err = e.substitute(templatePath, xml, values)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range tmpl.names {
		f, err := w.Create(name)
		if err != nil {
			return nil, fmt.Errorf("rebuild %s: %w", name, err)
		}
		data := tmpl.parts[name]
		if name == documentPart {
			data = []byte(xml)
		}
		if _, err := f.Write(data); err != nil {
			return nil, fmt.Errorf("rebuild %s: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize docx: %w", err)
	}
	return buf.Bytes(), nil
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func (e *Engine) substitute(templatePath, xml string, values map[string]string) (string, error) {
	for _, token := range e.vocabulary {
		marker := "{{" + token + "}}"
		present := strings.Contains(xml, marker)
		if !present {
			// The repair pass misses markers whose braces themselves got
			// split across runs; match those across markup.
			if !containsAcrossMarkup(xml, marker) {
				continue
			}
		}
		value, ok := values[token]
		if !ok {
			return "", &RenderError{Template: templatePath, Token: token}
		}
		escaped := xmlEscaper.Replace(value)
		if present {
			xml = strings.ReplaceAll(xml, marker, escaped)
		} else {
			xml = replaceAcrossMarkup(xml, marker, escaped)
		}
	}
	return xml, nil
}

func (e *Engine) load(templatePath string) (*cachedTemplate, error) {
	e.mu.Lock()
	if tmpl, ok := e.cache[templatePath]; ok {
		e.mu.Unlock()
		return tmpl, nil
	}
	e.mu.Unlock()

	raw, err := os.ReadFile(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templatePath)
		}
		return nil, fmt.Errorf("read template %s: %w", templatePath, err)
	}

	reader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open docx %s: %w", templatePath, err)
	}

	tmpl := &cachedTemplate{parts: make(map[string][]byte, len(reader.File))}
	for _, f := range reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("extract %s from %s: %w", f.Name, templatePath, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("extract %s from %s: %w", f.Name, templatePath, err)
		}
		tmpl.names = append(tmpl.names, f.Name)
		tmpl.parts[f.Name] = data
		tmpl.size += int64(len(data))
	}

	doc, ok := tmpl.parts[documentPart]
	if !ok {
		return nil, fmt.Errorf("open docx %s: missing %s", templatePath, documentPart)
	}
	tmpl.parts[documentPart] = []byte(Repair(string(doc), e.vocabulary))

	e.store(templatePath, tmpl)
	return tmpl, nil
}

func (e *Engine) store(templatePath string, tmpl *cachedTemplate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.cache) >= e.maxEntries || e.cacheBytes+tmpl.size > e.maxBytes {
		e.log.Info("flushing template cache",
			"entries", len(e.cache), "bytes", e.cacheBytes)
		e.cache = make(map[string]*cachedTemplate)
		e.cacheBytes = 0
	}
	e.cache[templatePath] = tmpl
	e.cacheBytes += tmpl.size
}

// CacheStats reports the current cache occupancy.
func (e *Engine) CacheStats() (entries int, bytes int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache), e.cacheBytes
}

// containsAcrossMarkup reports whether needle occurs in content when
// interleaved XML tags are skipped over.
func containsAcrossMarkup(content, needle string) bool {
	runes := []rune(content)
	target := []rune(needle)
	for i := range runes {
		if ok, _ := matchAcrossMarkup(runes, i, target); ok {
			return true
		}
	}
	return false
}

// replaceAcrossMarkup replaces every occurrence of needle in content with
// value, treating XML tags inside the match as noise to be dropped.
func replaceAcrossMarkup(content, needle, value string) string {
	runes := []rune(content)
	target := []rune(needle)
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); {
		if ok, end := matchAcrossMarkup(runes, i, target); ok {
			out = append(out, []rune(value)...)
			i = end
			continue
		}
		out = append(out, runes[i])
		i++
	}
	return string(out)
}

// matchAcrossMarkup attempts to match target starting at pos, skipping any
// characters inside XML tags. It gives up once the window grows past ten
// times the target length, which bounds the scan on documents with heavy
// inline formatting.
func matchAcrossMarkup(content []rune, pos int, target []rune) (bool, int) {
	idx := 0
	i := pos
	inTag := false
	for i < len(content) && idx < len(target) {
		c := content[i]
		switch {
		case c == '<':
			inTag = true
		case c == '>':
			inTag = false
		case !inTag:
			if c != target[idx] {
				return false, pos
			}
			idx++
		}
		i++
		if i-pos > len(target)*10 {
			return false, pos
		}
	}
	return idx == len(target), i
}
