package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"github.com/raulito1500/ielts-simulator/internal/imagegen"
	"github.com/raulito1500/ielts-simulator/internal/markup"
)

// Placeholder lines for assets that could not be rendered.
const (
	ImageUnavailable   = "Task image could not be loaded."
	SurfaceUnavailable = "Could not capture writing sheet."
)

// Dimensions of the placeholder image served at imagegen.PlaceholderURL.
const (
	placeholderWidth  = 600
	placeholderHeight = 400
)

const maxImageBytes = 16 << 20

// AssetError reports one report asset that could not be loaded. The export
// continues with a placeholder line in its place.
type AssetError struct {
	Asset string
	Err   error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("report asset %s: %v", e.Asset, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

// ImageAsset is a task image ready to place.
type ImageAsset struct {
	Src           template.URL
	Width, Height int
}

// SurfaceAsset is a snapshot of the writing sheet.
type SurfaceAsset struct {
	// HTML is inserted into the report unescaped.
	HTML template.HTML
	// Plain is used to measure the block.
	Plain string
}

// Loader resolves the two assets a report embeds.
type Loader interface {
	Image(ctx context.Context, img *imagegen.Image) (ImageAsset, error)
	Surface(ctx context.Context, r Report) (SurfaceAsset, error)
}

// HTTPLoader measures images locally and fetches remote ones over HTTP.
type HTTPLoader struct {
	Client *http.Client
}

// Image measures img, downloading it first when only a URL is known.
func (l HTTPLoader) Image(ctx context.Context, img *imagegen.Image) (ImageAsset, error) {
	if img == nil {
		return ImageAsset{}, &AssetError{Asset: "image", Err: errors.New("no task image")}
	}
	if img.Placeholder {
		return ImageAsset{Src: template.URL(img.Source()), Width: placeholderWidth, Height: placeholderHeight}, nil
	}

	data := img.Data
	if len(data) == 0 {
		if img.URL == "" {
			return ImageAsset{}, &AssetError{Asset: "image", Err: errors.New("image has neither data nor url")}
		}
		var err error
		data, err = l.fetch(ctx, img.URL)
		if err != nil {
			return ImageAsset{}, &AssetError{Asset: "image", Err: err}
		}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageAsset{}, &AssetError{Asset: "image", Err: fmt.Errorf("decode image: %w", err)}
	}
	return ImageAsset{Src: template.URL(img.Source()), Width: cfg.Width, Height: cfg.Height}, nil
}

func (l HTTPLoader) fetch(ctx context.Context, url string) ([]byte, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

// Surface returns the graded markup verbatim, or the escaped essay text
// when the session was never graded.
func (l HTTPLoader) Surface(_ context.Context, r Report) (SurfaceAsset, error) {
	if r.Result != nil && r.Result.CorrectedHTML != "" {
		segs, err := markup.Parse(r.Result.CorrectedHTML)
		if err != nil {
			return SurfaceAsset{}, &AssetError{Asset: "surface", Err: err}
		}
		return SurfaceAsset{
			HTML:  template.HTML(r.Result.CorrectedHTML),
			Plain: markup.OriginalText(segs),
		}, nil
	}
	if strings.TrimSpace(r.Text) == "" {
		return SurfaceAsset{}, &AssetError{Asset: "surface", Err: errors.New("writing sheet is empty")}
	}
	escaped := strings.ReplaceAll(html.EscapeString(r.Text), "\n", "<br>")
	return SurfaceAsset{HTML: template.HTML(escaped), Plain: r.Text}, nil
}
