package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/raulito1500/ielts-simulator/internal/grading"
	"github.com/raulito1500/ielts-simulator/internal/imagegen"
)

// Title heads every report.
const Title = "IELTS Writing Task 1 Report"

// Report is everything a finished session contributes to the export.
type Report struct {
	SessionID string
	CreatedAt time.Time

	Result    *grading.Result
	Elapsed   time.Duration
	WordCount int

	Image *imagegen.Image
	// Text is the essay as typed. Once graded the result's corrected
	// markup is shown instead.
	Text string
}

// Document is a laid-out report.
type Document struct {
	Title     string
	SessionID string
	CreatedAt time.Time
	Pages     []Page
}

// FormatClock renders a duration as MM:SS.
func FormatClock(d time.Duration) string {
	secs := int(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Build loads the report assets concurrently and lays out the document.
// A failed asset becomes a placeholder line; only cancellation of ctx
// aborts the build.
func Build(ctx context.Context, r Report, loader Loader, logger *zap.Logger) (*Document, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loader == nil {
		loader = HTTPLoader{}
	}

	var (
		img             ImageAsset
		surface         SurfaceAsset
		imgErr, surfErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	if r.Image != nil {
		g.Go(func() error {
			img, imgErr = loader.Image(gctx, r.Image)
			return nil
		})
	}
	g.Go(func() error {
		surface, surfErr = loader.Surface(gctx, r)
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	blocks := []Block{
		titleBlock(Title),
		lineBlock("Overall Score: " + grading.FormatOverall(r.Result)),
		lineBlock("Time Spent: " + FormatClock(r.Elapsed)),
		lineBlock(fmt.Sprintf("Word Count: %d", r.WordCount)),
	}
	blocks[len(blocks)-1].Gap = 15

	if r.Result != nil && len(r.Result.Scores) > 0 {
		blocks = append(blocks, headingBlock("Detailed Scores & Feedback:"))
		for _, s := range r.Result.Scores {
			blocks = append(blocks, criterionBlock(s.Criterion.Label(), grading.FormatBand(s.Score), s.Observation))
		}
		blocks[len(blocks)-1].Gap = 15
	}

	if r.Image != nil {
		if imgErr != nil {
			logAssetError(logger, r.SessionID, imgErr)
			blocks = append(blocks, placeholderBlock(ImageUnavailable))
		} else {
			blocks = append(blocks, imageBlock(img.Src, img.Width, img.Height))
		}
	}

	if surfErr != nil {
		logAssetError(logger, r.SessionID, surfErr)
		blocks = append(blocks, placeholderBlock(SurfaceUnavailable))
	} else {
		blocks = append(blocks, surfaceBlock(surface.HTML, surface.Plain))
	}

	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return &Document{
		Title:     Title,
		SessionID: r.SessionID,
		CreatedAt: created,
		Pages:     Paginate(blocks),
	}, nil
}

func logAssetError(logger *zap.Logger, sessionID string, err error) {
	var ae *AssetError
	asset := "unknown"
	if errors.As(err, &ae) {
		asset = ae.Asset
	}
	logger.Warn("report asset unavailable",
		zap.String("session", sessionID),
		zap.String("asset", asset),
		zap.Error(err))
}
