package main

import (
	"strings"

	"github.com/aretw0/arbor"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Arbor",
	Run: func(cmd *cobra.Command, args []string) {
		printf(cmd, "arbor version %s\n", strings.TrimSpace(arbor.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
