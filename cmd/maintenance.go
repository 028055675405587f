package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edy93762/gesto-de-epi-sub000/internal/backup"
	"github.com/edy93762/gesto-de-epi-sub000/internal/core/container"
	"github.com/edy93762/gesto-de-epi-sub000/pkg/security"
)

var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Provision the local store schema.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		s, err := container.NewStore(cmd.Context(), cfg, log)
		if err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		defer s.Close()

		log.Info("Local store ready", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}

var BackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a backup file of the local store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		s, err := container.NewStore(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := backup.NewBackupService(s, backup.Options{
			Dir:       cfg.Backup.Dir,
			Interval:  cfg.Backup.Interval,
			Retention: cfg.Backup.Retention,
		}, nil, log)
		if err != nil {
			return err
		}
		defer svc.Shutdown()

		path, err := svc.RunOnce(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var PullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Replace collaborators and catalog with the remote lists.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		s, err := container.NewStore(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer s.Close()

		bridge, err := container.NewSync(cmd.Context(), cfg, s, log)
		if err != nil {
			return err
		}
		result, err := bridge.Pull(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "collaborators: %d (replaced: %t)\ncatalog: %d (replaced: %t)\n",
			result.Collaborators, result.CollaboratorsReplaced, result.Catalog, result.CatalogReplaced)
		return nil
	},
}

var HashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print the bcrypt hash of a password read from stdin, for auth.password_hash.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return fmt.Errorf("password is empty")
		}

		hash, err := security.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}
