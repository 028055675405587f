package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edy93762/gesto-de-epi-sub000/internal/core/config"
	"github.com/edy93762/gesto-de-epi-sub000/internal/core/logger"
)

var configDir string

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.NewLogger(cfg.Log.Level, cfg.Log.Development), nil
}

func Execute(ctx context.Context) {
	rootCmd := &cobra.Command{
		Use:           "gestao-epi",
		Short:         "PPE issuance tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Directory containing config.yaml")

	rootCmd.AddCommand(ServeCmd, MigrateCmd, BackupCmd, PullCmd, HashPasswordCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
