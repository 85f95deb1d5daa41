package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/lvlup/internal/backup"
	"github.com/spf13/cobra"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export the stat snapshot and change log to a backup file",
		Long: `Back up the stat snapshot together with the change log.

Default location: <data_dir>/backups/lvlup-backup-YYYYMMDD-HHMMSS.json.gz
Keeps backups according to backup.max_count (default: last 10).

Examples:
  lvlup backup                              # Backup to default location (V2 compressed)
  lvlup backup --output my-backup.json.gz   # Backup to specific file
  lvlup backup --no-compress                # Create V1 uncompressed backup
  lvlup backup list                         # List all backups
  lvlup backup verify <file>                # Verify backup integrity`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			outputPath, _ := cmd.Flags().GetString("output")
			noCompress, _ := cmd.Flags().GetBool("no-compress")

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			compress := a.cfg.Backup.Compression && !noCompress
			now := time.Now()

			if outputPath == "" {
				dir, err := a.cfg.BackupDir()
				if err != nil {
					return fmt.Errorf("failed to get backup directory: %w", err)
				}
				outputPath = backup.GenerateBackupPath(dir, now, compress)
			} else {
				outputPath, err = a.confineBackupPath(outputPath)
				if err != nil {
					return fmt.Errorf("backup path rejected: %w", err)
				}
			}

			payload, err := backup.Backup(cmd.Context(), a.store, a.log, outputPath, backup.Options{
				Compress: compress,
				Now:      func() time.Time { return now },
			})
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			policy := &backup.CountPolicy{MaxCount: a.cfg.Backup.MaxCount}
			if _, err := backup.ApplyRetention(filepath.Dir(outputPath), policy); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to apply retention: %v\n", err)
			}

			statCount := 0
			for _, cat := range payload.Snapshot.Categories {
				statCount += len(cat)
			}

			if jsonOut {
				var sizeBytes int64
				if info, err := os.Stat(outputPath); err == nil {
					sizeBytes = info.Size()
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"path":        outputPath,
					"stat_count":  statCount,
					"log_lines":   len(payload.LogLines),
					"total_level": payload.Snapshot.TotalLevel,
					"version":     payload.Version,
					"compressed":  compress,
					"size_bytes":  sizeBytes,
				})
			}

			versionLabel := "v2/gzip"
			if !compress {
				versionLabel = "v1/json"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backup created: %d stats, %d log lines (%s)\n", statCount, len(payload.LogLines), versionLabel)
			fmt.Fprintf(out, "  Path: %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().String("output", "", "Output file path (default: auto-generated in the backup directory)")
	cmd.Flags().Bool("no-compress", false, "Create V1 uncompressed backup instead of V2 compressed")

	cmd.AddCommand(
		newBackupListCmd(),
		newBackupVerifyCmd(),
	)

	return cmd
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir, err := cfg.BackupDir()
			if err != nil {
				return fmt.Errorf("failed to get backup directory: %w", err)
			}

			backups, err := backup.List(dir)
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}

			if jsonOut {
				if backups == nil {
					backups = []backup.Info{}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"backups":     backups,
					"total_count": len(backups),
					"directory":   dir,
				})
			}

			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintf(out, "No backups found in %s\n", dir)
				return nil
			}

			fmt.Fprintf(out, "Backups in %s:\n", dir)
			var totalSize int64
			for _, b := range backups {
				totalSize += b.Size
				fmt.Fprintf(out, "  %s  v%d  %s  %s\n",
					filepath.Base(b.Path), b.Version, formatSize(b.Size),
					b.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			fmt.Fprintf(out, "%d backup(s), %s total\n", len(backups), formatSize(totalSize))
			return nil
		},
	}
}

func newBackupVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>",
		Short: "Verify backup integrity",
		Long: `Check that a backup can be restored. V2 files are checked against the
checksum in their header; both formats are fully decoded and validated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			path := args[0]

			verr := verifyBackup(path)

			if jsonOut {
				result := map[string]interface{}{
					"path":  path,
					"valid": verr == nil,
				}
				if verr != nil {
					result["error"] = verr.Error()
				}
				if err := json.NewEncoder(cmd.OutOrStdout()).Encode(result); err != nil {
					return err
				}
				return verr
			}

			if verr != nil {
				return fmt.Errorf("backup %s is invalid: %w", path, verr)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup %s is valid\n", path)
			return nil
		},
	}
}

// verifyBackup checks the V2 checksum when present, then decodes and
// validates the payload.
func verifyBackup(path string) error {
	version, err := backup.DetectFormat(path)
	if err != nil {
		return err
	}
	if version == backup.FormatV2 {
		if err := backup.VerifyChecksum(path); err != nil {
			return err
		}
	}
	p, err := backup.Read(path)
	if err != nil {
		return err
	}
	if p.Snapshot == nil {
		return fmt.Errorf("no snapshot")
	}
	return p.Snapshot.Validate()
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
