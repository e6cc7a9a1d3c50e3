package imagegen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultModel is the Imagen model used when none is configured.
const DefaultModel = "imagen-3.0-generate-002"

// ErrNoAPIKey is wrapped in a GenerationError when no key was configured.
var ErrNoAPIKey = errors.New("no Gemini API key configured")

type imageGenerator interface {
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Options configures a Generator.
type Options struct {
	APIKey  string
	Model   string
	Prompts Prompts
	Logger  *zap.Logger
	// Rand picks prompts. Nil seeds a new source.
	Rand *rand.Rand
}

// Generator turns a random task description into an image.
type Generator struct {
	images  imageGenerator
	model   string
	prompts Prompts
	logger  *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Generator. An empty API key is not an error: every
// Generate call then fails and Acquire falls back to the placeholder.
func New(ctx context.Context, opts Options) (*Generator, error) {
	g := newGenerator(nil, opts)
	if opts.APIKey == "" {
		return g, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create imagen client: %w", err)
	}
	g.images = client.Models
	return g, nil
}

func newGenerator(images imageGenerator, opts Options) *Generator {
	g := &Generator{
		images:  images,
		model:   opts.Model,
		prompts: opts.Prompts,
		logger:  opts.Logger,
		rng:     opts.Rand,
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.prompts == nil {
		g.prompts = StaticPrompts(DefaultPrompts)
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return g
}

// Prompt picks a task description. A failing prompt source falls back to
// DefaultPrompts.
func (g *Generator) Prompt() string {
	prompts, err := g.prompts.Descriptions()
	if err != nil || len(prompts) == 0 {
		g.logger.Warn("prompt source unavailable, using built-in prompts", zap.Error(err))
		prompts = DefaultPrompts
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	p, _ := PickPrompt(g.rng, prompts)
	return p
}

// Generate requests one image for a random prompt. Failures are
// *GenerationError.
func (g *Generator) Generate(ctx context.Context) (Image, error) {
	return g.generate(ctx, g.Prompt())
}

func (g *Generator) generate(ctx context.Context, prompt string) (Image, error) {
	if g.images == nil {
		return Image{}, &GenerationError{Prompt: prompt, Err: ErrNoAPIKey}
	}
	resp, err := g.images.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/png",
	})
	if err != nil {
		return Image{}, &GenerationError{Prompt: prompt, Err: err}
	}
	if resp == nil || len(resp.GeneratedImages) == 0 ||
		resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return Image{}, &GenerationError{Prompt: prompt, Err: errors.New("response carried no image bytes")}
	}

	out := resp.GeneratedImages[0].Image
	mime := out.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return Image{Prompt: prompt, Data: out.ImageBytes, MIMEType: mime}, nil
}

// Acquire returns a generated image or, on any failure, the placeholder.
func (g *Generator) Acquire(ctx context.Context) Image {
	prompt := g.Prompt()
	start := time.Now()
	img, err := g.generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("image generation failed, using placeholder",
			zap.String("model", g.model),
			zap.Error(err))
		return Placeholder(prompt)
	}
	g.logger.Info("image generated",
		zap.String("model", g.model),
		zap.Int("bytes", len(img.Data)),
		zap.Duration("latency", time.Since(start)))
	return img
}
