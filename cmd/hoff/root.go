package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hoff",
	Short: "A gatekeeper for your GitHub projects",
	Long: `hoff guards the target branch of your GitHub projects: reviewers approve
pull requests with a comment, hoff rebases each approved pull request onto
the target branch, pushes the result to a test branch, and fast-forwards
the target branch once CI reports a passing build.`,
	Version:      "0.1.0",
	SilenceUsage: true,
}
