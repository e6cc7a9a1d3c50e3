package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ErrNoBrowser means no Chromium binary was found for PDF printing.
var ErrNoBrowser = errors.New("no chromium browser found")

// RodPrinter prints reports through a headless Chromium.
type RodPrinter struct {
	// Bin is the browser executable. Empty searches the usual locations.
	Bin string
}

// PrintPDF loads html into a fresh headless browser and prints it to out.
func (p RodPrinter) PrintPDF(ctx context.Context, html []byte, out string) error {
	bin := p.Bin
	if bin == "" {
		found, ok := launcher.LookPath()
		if !ok {
			return ErrNoBrowser
		}
		bin = found
	}

	l := launcher.New().Bin(bin).Headless(true).Context(ctx)
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch chromium: %w", err)
	}
	// Kill runs first; Cleanup then waits for exit and removes the profile.
	defer l.Cleanup()
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chromium: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	if err := page.SetDocumentContent(string(html)); err != nil {
		return fmt.Errorf("load report: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for report: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return fmt.Errorf("print pdf: %w", err)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	if _, err := io.Copy(f, stream); err != nil {
		f.Close()
		return fmt.Errorf("write pdf: %w", err)
	}
	return f.Close()
}
