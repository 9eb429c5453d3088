package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resultCmd = &cobra.Command{
	Use:   "result <candidate-id>",
	Short: "Show a candidate's assessment result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := fetchResult(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printResult(r.Status, r.Score, r.Duration)
		return nil
	},
}

func printResult(status string, score float64, duration int) {
	fmt.Printf("\nStatus: %s\nScore:  %.0f%%\nTime:   %s\n", status, score, formatSeconds(duration))
}

func formatSeconds(s int) string {
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
