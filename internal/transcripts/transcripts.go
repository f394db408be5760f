// Package transcripts discovers, loads and normalizes interview transcripts
// and cuts them into overlapping chunks for code generation and matching.
package transcripts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/unicode/norm"

	"github.com/mwiater/thematic/internal/logging"
	"github.com/mwiater/thematic/internal/records"
)

// DefaultPattern matches every supported transcript under a root.
const DefaultPattern = "**/*.{txt,pdf}"

// Document is one loaded transcript.
type Document struct {
	// Source is the slash-separated path relative to the discovery root, or
	// the base name when loaded directly.
	Source string
	Path   string
	Text   string
}

// Discover returns the supported files under root matching a doublestar
// pattern, sorted by relative path.
func Discover(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, &records.InputError{Op: "discover transcripts", Key: pattern, Reason: "invalid glob pattern"}
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("discover transcripts: %w", err)
	}
	if !info.IsDir() {
		return nil, &records.InputError{Op: "discover transcripts", Key: root, Reason: "not a directory"}
	}

	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("discover transcripts: %w", err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if Supported(m) {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Supported reports whether path has an extension LoadFile understands.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".pdf":
		return true
	}
	return false
}

// LoadFile reads a .txt or .pdf transcript and normalizes its text.
func LoadFile(path string) (Document, error) {
	var (
		text string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt":
		var raw []byte
		raw, err = os.ReadFile(path)
		text = string(raw)
	case ".pdf":
		text, err = readPDF(path)
	default:
		return Document{}, &records.InputError{Op: "load transcript", Key: path, Reason: fmt.Sprintf("unsupported file type %q", ext)}
	}
	if err != nil {
		return Document{}, fmt.Errorf("load transcript %s: %w", path, err)
	}
	return Document{Source: filepath.Base(path), Path: path, Text: Normalize(text)}, nil
}

// LoadDir discovers and loads every matching transcript under root.
func LoadDir(root, pattern string) ([]Document, error) {
	paths, err := Discover(root, pattern)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(paths))
	for _, rel := range paths {
		doc, err := LoadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		doc.Source = rel
		logging.LogEvent("[TRANSCRIPTS] Loaded %s (%d characters)", rel, len(doc.Text))
		docs = append(docs, doc)
	}
	return docs, nil
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, pageErr := p.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no extractable text found in pdf")
	}
	return b.String(), nil
}

// Normalize applies NFKC normalization (folding ligatures and full-width
// forms that PDF extraction produces) and collapses whitespace within lines.
// Blank lines are dropped.
func Normalize(text string) string {
	text = norm.NFKC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		out = append(out, strings.Join(fields, " "))
	}
	return strings.Join(out, "\n")
}
