package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List the task descriptions used for image generation",
	Long: `Lists the Task 1 descriptions a session picks from. They come from the
prompt bank at prompts.db_path when it exists, otherwise from the built-in set.`,
	Args: cobra.NoArgs,
	RunE: runPrompts,
}

func runPrompts(cmd *cobra.Command, args []string) error {
	prompts, closeBank, err := promptSource()
	if err != nil {
		return err
	}
	defer closeBank()

	descriptions, err := prompts.Descriptions()
	if err != nil {
		return err
	}

	num := color.New(color.FgYellow)
	w := cmd.OutOrStdout()
	for i, d := range descriptions {
		fmt.Fprintf(w, "%s %s\n", num.Sprintf("%2d.", i+1), d)
	}
	return nil
}
