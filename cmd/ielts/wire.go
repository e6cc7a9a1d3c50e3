package main

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/raulito1500/ielts-simulator/internal/config"
	"github.com/raulito1500/ielts-simulator/internal/db"
	"github.com/raulito1500/ielts-simulator/internal/grading"
	"github.com/raulito1500/ielts-simulator/internal/imagegen"
	"github.com/raulito1500/ielts-simulator/internal/report"
)

// newGrader builds the grading service for the configured provider.
func newGrader(ctx context.Context) (*grading.Service, error) {
	opts := grading.Options{Provider: cfg.Grader.Provider}
	switch cfg.Grader.Provider {
	case grading.ProviderAnthropic:
		opts.APIKey = cfg.Anthropic.APIKey
		opts.Model = cfg.Anthropic.Model
	default:
		opts.APIKey = cfg.Gemini.APIKey
		opts.Model = cfg.Gemini.GradingModel
	}
	completer, err := grading.NewCompleter(ctx, opts)
	if err != nil {
		return nil, err
	}
	return grading.NewService(completer, logger, cfg.Session.RequestTimeout), nil
}

// openPromptBank opens the configured prompt database. It returns nil when
// no database exists, in which case the built-in prompts are used.
func openPromptBank() (*db.Store, error) {
	path := cfg.Prompts.DBPath
	explicit := path != ""
	if !explicit {
		path = db.DefaultDBPath()
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil, nil
		}
		return nil, err
	}
	return db.Open(path)
}

// promptSource returns the prompt bank if one is available, otherwise the
// built-in prompts. The returned func releases the bank.
func promptSource() (imagegen.Prompts, func(), error) {
	store, err := openPromptBank()
	if err != nil {
		return nil, nil, err
	}
	if store == nil {
		return imagegen.StaticPrompts(imagegen.DefaultPrompts), func() {}, nil
	}
	return store, func() { store.Close() }, nil
}

func newImageSource(ctx context.Context) (*imagegen.Generator, func(), error) {
	prompts, closeBank, err := promptSource()
	if err != nil {
		return nil, nil, err
	}
	gen, err := imagegen.New(ctx, imagegen.Options{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.ImageModel,
		Prompts: prompts,
		Logger:  logger,
	})
	if err != nil {
		closeBank()
		return nil, nil, err
	}
	if cfg.Gemini.APIKey == "" {
		logger.Info("no Gemini API key, task images will use the placeholder")
	}
	return gen, closeBank, nil
}

func newExporter() *report.Exporter {
	return exporterFor(cfg, cfg.Export.Dir, logger)
}

func exporterFor(c *config.Config, dir string, l *zap.Logger) *report.Exporter {
	exp := &report.Exporter{Dir: dir, Logger: l}
	if c.Export.PDF {
		exp.Printer = report.RodPrinter{Bin: c.Export.Browser}
	}
	return exp
}
