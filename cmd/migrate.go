package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anoixa/facility-image-store/config"
	"github.com/anoixa/facility-image-store/database"
	"github.com/anoixa/facility-image-store/database/models"
	"github.com/anoixa/facility-image-store/database/repo/images"
	"github.com/anoixa/facility-image-store/internal/app"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// migrateCmd 把 web 平台的图片数据迁移到当前配置的数据库
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy stored images from a SQLite file into the configured database",
	Long: `Copy stored images from a SQLite file into the configured database.

Examples:
  # Move a device's SQLite store into the shared PostgreSQL database
  image-store migrate --from-sqlite ./data/image_storage.db --yes

  # Replace images that already exist in the target
  image-store migrate --from-sqlite ./old.db --on-conflict=overwrite`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fromSQLite, _ := cmd.Flags().GetString("from-sqlite")
		skipConfirm, _ := cmd.Flags().GetBool("yes")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		onConflict, _ := cmd.Flags().GetString("on-conflict")

		stats, err := runMigration(cmd, fromSQLite, skipConfirm, batchSize, onConflict)
		if stats != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Copied %d, skipped %d\n", stats.copied, stats.skipped)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().String("from-sqlite", "", "Source SQLite file path")
	migrateCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	migrateCmd.Flags().Int("batch-size", 100, "Batch size for data migration")
	migrateCmd.Flags().String("on-conflict", "skip", "Conflict resolution strategy: skip (default), overwrite, error")
}

// migrateStats 迁移统计
type migrateStats struct {
	copied  int // 写入（含覆盖）的记录数
	skipped int // 目标中已存在而跳过的记录数
}

// runMigration 执行迁移
func runMigration(cmd *cobra.Command, fromSQLite string, skipConfirm bool, batchSize int, onConflict string) (*migrateStats, error) {
	if onConflict != "skip" && onConflict != "overwrite" && onConflict != "error" {
		return nil, fmt.Errorf("invalid on-conflict strategy: %s (must be skip, overwrite, or error)", onConflict)
	}
	if fromSQLite == "" {
		return nil, fmt.Errorf("--from-sqlite is required")
	}

	targetCfg := app.DatabaseConfig(config.Get())
	if isSQLite(targetCfg.Type) && samePath(targetCfg.FilePath, fromSQLite) {
		return nil, fmt.Errorf("source and target databases are the same")
	}
	if _, err := os.Stat(fromSQLite); err != nil {
		return nil, fmt.Errorf("source database: %w", err)
	}

	if !skipConfirm && !confirm(cmd, fmt.Sprintf("Copy images from %s into the %s database (on conflict: %s)?", fromSQLite, targetCfg.Type, onConflict)) {
		fmt.Fprintln(cmd.OutOrStdout(), "Migration cancelled.")
		return nil, nil
	}

	source := database.NewFactory(database.Config{Type: "sqlite", FilePath: fromSQLite})
	defer source.Close()
	target := database.NewFactory(targetCfg)
	defer target.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return copyBlobs(ctx, images.NewBlobRepository(source), images.NewBlobRepository(target), batchSize, onConflict)
}

// copyBlobs 逐批复制，error 策略下遇到已存在的路径即停止
func copyBlobs(ctx context.Context, src, dst *images.BlobRepository, batchSize int, onConflict string) (*migrateStats, error) {
	stats := &migrateStats{}
	err := src.Each(ctx, batchSize, func(batch []models.ImageBlob) error {
		for _, blob := range batch {
			if onConflict == "error" {
				existing, err := dst.Find(ctx, blob.Path)
				if err != nil {
					return err
				}
				if existing != nil {
					return fmt.Errorf("image already exists in target: %s", blob.Path)
				}
			}

			written, err := dst.Import(ctx, blob, onConflict == "overwrite")
			if err != nil {
				return fmt.Errorf("failed to copy %s: %w", blob.Path, err)
			}
			if written {
				stats.copied++
			} else {
				stats.skipped++
			}
		}
		log.Debug().Int("copied", stats.copied).Int("skipped", stats.skipped).Msg("Migration batch done")
		return nil
	})
	return stats, err
}

func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func isSQLite(dbType string) bool {
	return dbType == "sqlite" || dbType == "sqlite3"
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
