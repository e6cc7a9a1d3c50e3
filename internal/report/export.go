package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Paths lists the files an export wrote. PDF is empty when no PDF was
// produced.
type Paths struct {
	HTML string
	PDF  string
}

// Printer converts a rendered report page into a PDF file.
type Printer interface {
	PrintPDF(ctx context.Context, html []byte, out string) error
}

// Exporter writes reports to disk.
type Exporter struct {
	// Dir receives the files. Empty means the working directory.
	Dir string
	// Printer, when set, also produces a PDF.
	Printer Printer
	Logger  *zap.Logger
}

// Export writes doc as HTML and, when a Printer is configured, as PDF.
// A failed PDF is logged and leaves the HTML in place.
func (e *Exporter) Export(ctx context.Context, doc *Document) (Paths, error) {
	logger := e.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	page, err := doc.HTML()
	if err != nil {
		return Paths{}, err
	}

	dir := e.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create export dir: %w", err)
	}

	base := filepath.Join(dir, fileStem(doc))
	paths := Paths{HTML: base + ".html"}
	if err := os.WriteFile(paths.HTML, page, 0o644); err != nil {
		return Paths{}, fmt.Errorf("write report: %w", err)
	}

	if e.Printer == nil {
		return paths, nil
	}
	pdf := base + ".pdf"
	if err := e.Printer.PrintPDF(ctx, page, pdf); err != nil {
		if errors.Is(err, ErrNoBrowser) {
			logger.Info("no browser for PDF export, wrote HTML only", zap.String("html", paths.HTML))
		} else {
			logger.Warn("pdf export failed", zap.String("session", doc.SessionID), zap.Error(err))
		}
		return paths, nil
	}
	paths.PDF = pdf
	logger.Info("report exported",
		zap.String("session", doc.SessionID),
		zap.String("html", paths.HTML),
		zap.String("pdf", paths.PDF),
		zap.Int("pages", len(doc.Pages)))
	return paths, nil
}

func fileStem(doc *Document) string {
	id := doc.SessionID
	if len(id) > 8 {
		id = id[:8]
	}
	stem := "ielts-report-" + doc.CreatedAt.Format("20060102-150405")
	if id != "" {
		stem += "-" + id
	}
	return stem
}
