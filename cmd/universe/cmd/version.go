package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhzhou/universe-data/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}
