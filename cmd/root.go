package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pointpattern/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "pointpattern",
	Short: "Nearest-neighbour analysis of point patterns",
	Long:  "Computes the Clark-Evans nearest neighbour index of a point dataset within a study area, from files, PostGIS tables or over HTTP, and keeps a history of runs.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
