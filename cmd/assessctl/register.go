package main

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var (
	regName   string
	regEmail  string
	regTrack  string
	regResume string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a candidate and upload their resume",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := askMissing(); err != nil {
			return err
		}
		c, err := register(cmd.Context(), regName, regEmail, regTrack, regResume)
		if err != nil {
			return err
		}
		fmt.Printf("Registered %s <%s>\nCandidate ID: %s\n", c.FullName, c.Email, c.ID)
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&regName, "name", "", "full name")
	registerCmd.Flags().StringVar(&regEmail, "email", "", "email address")
	registerCmd.Flags().StringVar(&regTrack, "track", "", "technology track, e.g. Python")
	registerCmd.Flags().StringVar(&regResume, "resume", "", "path to a .pdf, .doc or .docx resume")
}

// askMissing prompts for any field not given as a flag.
func askMissing() error {
	fields := []struct {
		label string
		dst   *string
	}{
		{"Full name", &regName},
		{"Email", &regEmail},
		{"Technology track", &regTrack},
		{"Resume file", &regResume},
	}
	for _, f := range fields {
		if *f.dst != "" {
			continue
		}
		p := promptui.Prompt{
			Label: f.label,
			Validate: func(s string) error {
				if s == "" {
					return fmt.Errorf("%s is required", f.label)
				}
				return nil
			},
		}
		v, err := p.Run()
		if err != nil {
			return err
		}
		*f.dst = v
	}
	return nil
}
