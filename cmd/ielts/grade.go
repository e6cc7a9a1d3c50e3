package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/raulito1500/ielts-simulator/internal/grading"
	"github.com/raulito1500/ielts-simulator/internal/markup"
	"github.com/raulito1500/ielts-simulator/internal/report"
	"github.com/raulito1500/ielts-simulator/internal/session"
)

var (
	gradeFormat    string
	gradeReportDir string
)

var gradeCmd = &cobra.Command{
	Use:   "grade FILE",
	Short: "Grade an essay without the interactive session",
	Long: `Sends the essay in FILE to the configured grading provider and prints
the band scores, examiner notes and corrected text.

Use "-" to read the essay from stdin.

Examples:
  ielts grade essay.txt
  ielts grade --format json essay.txt
  ielts grade --report ./reports essay.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runGrade,
}

func init() {
	gradeCmd.Flags().StringVarP(&gradeFormat, "format", "f", "text", "Output format: text, json or yaml")
	gradeCmd.Flags().StringVar(&gradeReportDir, "report", "", "Also export a report into this directory")
}

// gradeOutput is the machine-readable form of a graded essay.
type gradeOutput struct {
	Overall   string          `json:"overall" yaml:"overall"`
	WordCount int             `json:"wordCount" yaml:"wordCount"`
	Scores    []grading.Score `json:"scores" yaml:"scores"`
	Corrected string          `json:"corrected" yaml:"corrected"`
	Markup    string          `json:"correctedHtml" yaml:"correctedHtml"`
}

func readEssay(name string) (string, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("read essay: %w", err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("essay %s is empty", name)
	}
	return text, nil
}

func runGrade(cmd *cobra.Command, args []string) error {
	switch gradeFormat {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", gradeFormat)
	}

	text, err := readEssay(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	svc, err := newGrader(ctx)
	if err != nil {
		return err
	}
	res, err := svc.Grade(ctx, text)
	if err != nil {
		return fmt.Errorf("grade essay: %w", err)
	}

	segments, err := markup.Parse(res.CorrectedHTML)
	if err != nil {
		logger.Warn("corrected markup unreadable", zap.Error(err))
	}
	out := gradeOutput{
		Overall:   grading.FormatOverall(res),
		WordCount: session.CountWords(text),
		Scores:    res.Scores,
		Corrected: markup.PlainText(segments),
		Markup:    res.CorrectedHTML,
	}

	w := cmd.OutOrStdout()
	switch gradeFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	default:
		printGrade(w, out, segments)
	}

	if gradeReportDir == "" {
		return nil
	}
	return exportGrade(cmd, text, res, out.WordCount)
}

func printGrade(w io.Writer, out gradeOutput, segments []markup.Segment) {
	bold := color.New(color.Bold)
	band := color.New(color.FgBlue, color.Bold)
	dim := color.New(color.Faint)

	fmt.Fprintf(w, "%s %s\n", bold.Sprint("Overall Estimated Band Score:"), band.Sprint(out.Overall))
	fmt.Fprintf(w, "%s\n\n", dim.Sprintf("%d words", out.WordCount))

	for _, s := range out.Scores {
		fmt.Fprintf(w, "%s  %s\n", band.Sprint(grading.FormatBand(s.Score)), bold.Sprint(s.Criterion.Label()))
		if s.Observation != "" {
			fmt.Fprintf(w, "     %s\n", s.Observation)
		}
	}

	fmt.Fprintf(w, "\n%s\n", bold.Sprint("Corrected Text"))
	fmt.Fprintln(w, markup.Render(segments, 0))
}

func exportGrade(cmd *cobra.Command, text string, res *grading.Result, words int) error {
	r := report.Report{
		SessionID: uuid.NewString(),
		CreatedAt: time.Now(),
		Result:    res,
		WordCount: words,
		Text:      text,
	}
	doc, err := report.Build(cmd.Context(), r, report.HTTPLoader{}, logger)
	if err != nil {
		return err
	}
	paths, err := exporterFor(cfg, gradeReportDir, logger).Export(cmd.Context(), doc)
	if err != nil {
		return err
	}

	ok := color.New(color.FgGreen)
	w := cmd.ErrOrStderr()
	fmt.Fprintf(w, "%s Report written to %s\n", ok.Sprint("✓"), paths.HTML)
	if paths.PDF != "" {
		fmt.Fprintf(w, "%s PDF written to %s\n", ok.Sprint("✓"), paths.PDF)
	}
	return nil
}
