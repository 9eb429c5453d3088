// Command assessctl takes an assessment from the terminal.
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const app = "assessctl"

var (
	serverURL string
	debug     bool
	log       zerolog.Logger

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "assessctl registers candidates and takes timed assessments against an assessment backend",
		PersistentPreRun: func(*cobra.Command, []string) {
			level := zerolog.InfoLevel
			if debug {
				level = zerolog.DebugLevel
			}
			log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				Level(level).With().Timestamp().Logger()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", envOr("ASSESSMENT_SERVER", "http://localhost:8080"), "backend base URL")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")

	rootCmd.AddCommand(registerCmd, takeCmd, resultCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
