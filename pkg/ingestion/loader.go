package ingestion

import (
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// Page is the text of one page. Number is 1-based for PDFs and 0 for plain text.
type Page struct {
	Number int
	Text   string
}

type Document struct {
	Source string
	Pages  []Page
}

var ErrUnsupportedFormat = fmt.Errorf("unsupported document format")

// Supported reports whether LoadFile can read path
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown", ".pdf":
		return true
	}
	return false
}

// LoadFile reads a text, markdown or PDF file
func LoadFile(path string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return &Document{
			Source: filepath.Base(path),
			Pages:  []Page{{Number: 0, Text: string(raw)}},
		}, nil
	case ".pdf":
		pages, err := extractPDFPages(path)
		if err != nil {
			return nil, fmt.Errorf("read pdf %s: %w", path, err)
		}
		return &Document{Source: filepath.Base(path), Pages: pages}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadDir loads every supported file under root, in lexical order
func LoadDir(root string) ([]*Document, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	docs := make([]*Document, 0, len(paths))
	for _, p := range paths {
		doc, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// extractPDFPages keeps page numbers so chunks can cite them.
// Scanned PDFs without a text layer fall back to pdftotext when it is installed.
func extractPDFPages(path string) ([]Page, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pages []Page
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, Page{Number: i, Text: text})
		}
	}

	if len(pages) == 0 {
		out, err := exec.Command("pdftotext", "-layout", path, "-").Output()
		if err == nil && strings.TrimSpace(string(out)) != "" {
			return splitFormFeeds(string(out)), nil
		}
	}
	return pages, nil
}

// splitFormFeeds splits pdftotext output, which separates pages with \f
func splitFormFeeds(out string) []Page {
	var pages []Page
	for i, text := range strings.Split(out, "\f") {
		if strings.TrimSpace(text) != "" {
			pages = append(pages, Page{Number: i + 1, Text: text})
		}
	}
	return pages
}
