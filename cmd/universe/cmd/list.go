package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhzhou/universe-data/internal/store"
)

var listOutput string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List existing universe snapshots",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "", "universe directory")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	baseDir := cfg.Storage.BaseDir
	if listOutput != "" {
		baseDir = listOutput
	}

	snapshots, err := store.List(baseDir)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Printf("no snapshots found in %s\n", baseDir)
		return nil
	}

	for _, s := range snapshots {
		fmt.Println(s.Name)
		if s.Manifest == nil {
			fmt.Println("  (no manifest)")
			continue
		}
		m := s.Manifest
		fmt.Printf("  records:  %d (skipped %d)\n", m.NormalizedCount, m.SkippedCount)
		for exchangeName, categories := range m.Exchanges {
			for category, count := range categories {
				fmt.Printf("  %s / %s: %d\n", exchangeName, category, count)
			}
		}
	}
	return nil
}
