package kb

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document is a raw knowledge-base source text with its provenance label
// (file name, optionally "#pN" for a PDF page). Immutable once loaded.
type Document struct {
	Text   string
	Source string
}

// LoadDir reads every supported file in dir into Documents. Markdown and
// plain-text files load as a single document; PDFs load one document per
// page with the page number in the provenance. Unsupported files are skipped.
func LoadDir(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read kb dir: %w", err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".md", ".markdown":
			data, err := os.ReadFile(path) // #nosec G304 -- path is under the configured KB directory
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
			}
			if strings.TrimSpace(string(data)) == "" {
				continue
			}
			docs = append(docs, Document{Text: string(data), Source: entry.Name()})
		case ".pdf":
			pages, err := loadPDF(path, entry.Name())
			if err != nil {
				slog.Warn("skipping unreadable pdf", "file", entry.Name(), "error", err)
				continue
			}
			docs = append(docs, pages...)
		}
	}
	return docs, nil
}

func loadPDF(path, name string) ([]Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []Document
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("skipping unreadable pdf page", "file", name, "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(content) == "" {
			continue
		}
		docs = append(docs, Document{Text: content, Source: fmt.Sprintf("%s#p%d", name, i)})
	}
	return docs, nil
}
