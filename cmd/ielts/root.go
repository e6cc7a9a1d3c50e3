package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raulito1500/ielts-simulator/internal/app"
	"github.com/raulito1500/ielts-simulator/internal/config"
	"github.com/raulito1500/ielts-simulator/internal/logging"
	"github.com/raulito1500/ielts-simulator/internal/report"
)

var (
	// Global flags
	configPath string
	provider   string
	duration   time.Duration
	debug      bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ielts",
	Short: "IELTS Academic Writing Task 1 simulator",
	Long: `ielts runs a timed IELTS Academic Writing Task 1 session in the terminal.

Generate a task chart with ctrl+g or start typing with your own material.
The 20 minute countdown starts with the first keystroke or the first
generated image. End the session early with ctrl+e, then grade with ctrl+s
for band scores on all four criteria and inline corrections.

Run without arguments to start the writing session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFromPath(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("provider") {
			cfg.Grader.Provider = provider
		}
		if cmd.Flags().Changed("duration") {
			cfg.Session.Duration = duration
		}
		if cmd.Flags().Changed("debug") {
			cfg.Log.Debug = debug
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err = logging.New(logging.Options{File: cfg.Log.File, Debug: cfg.Log.Debug})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd.Context())
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.UserConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "Grading provider: gemini or anthropic")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Write debug-level logs")
	rootCmd.Flags().DurationVar(&duration, "duration", 0, "Session length (default 20m)")

	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(promptsCmd)
	rootCmd.AddCommand(versionCmd)
}

func runSession(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	grader, err := newGrader(ctx)
	if err != nil {
		// The session still runs; grading reports the failure when asked.
		logger.Warn("grader unavailable", zap.Error(err))
	}

	images, closeBank, err := newImageSource(ctx)
	if err != nil {
		return err
	}
	defer closeBank()

	opts := app.Options{
		Images:         images,
		Exporter:       newExporter(),
		Loader:         report.HTTPLoader{},
		Logger:         logger,
		Duration:       cfg.Session.DurationSeconds(),
		WarnBelow:      int(cfg.Session.WarnBelow / time.Second),
		TargetWords:    cfg.Session.TargetWords,
		RequestTimeout: cfg.Session.RequestTimeout,
	}
	if grader != nil {
		opts.Grader = grader
	}

	p := tea.NewProgram(app.New(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run session: %w", err)
	}
	return nil
}
