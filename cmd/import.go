package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/anoixa/facility-image-store/internal/app"
	"github.com/anoixa/facility-image-store/internal/imagestore"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// importCmd 批量导入目录或文件
var importCmd = &cobra.Command{
	Use:   "import <file|dir>...",
	Short: "Import image files or directories in bulk",
	Long: `Import image files or directories in bulk.

Example:
  # Import every file under ./photos into the equipments category
  image-store import ./photos --category equipments

  # Import two files without compression
  image-store import a.jpg b.png --no-compress`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		noCompress, _ := cmd.Flags().GetBool("no-compress")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		names, err := collectFiles(args)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return fmt.Errorf("no files to import")
		}

		return withContainer(cmd, func(ctx context.Context, container *app.Container) error {
			files, err := readFiles(ctx, names, concurrency)
			if err != nil {
				return err
			}

			results, err := container.Service().SaveBatch(ctx, files, category, !noCompress)
			if err != nil {
				return err
			}

			failed := 0
			out := cmd.OutOrStdout()
			for _, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintf(out, "FAIL  %s: %s\n", r.FileName, r.Error)
					continue
				}
				fmt.Fprintf(out, "OK    %s -> %s\n", r.FileName, r.Path)
			}
			fmt.Fprintf(out, "Imported %d of %d files\n", len(results)-failed, len(results))
			if failed > 0 {
				return fmt.Errorf("%d files failed to import", failed)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringP("category", "c", "", "Image category (default: general)")
	importCmd.Flags().Bool("no-compress", false, "Store images without compressing them")
	importCmd.Flags().Int("concurrency", 4, "Number of files read in parallel")
}

// collectFiles 展开目录，只取普通文件
func collectFiles(args []string) ([]string, error) {
	var names []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			names = append(names, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				names = append(names, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
		}
	}
	return names, nil
}

// readFiles 并发读取文件，保持输入顺序
func readFiles(ctx context.Context, names []string, concurrency int) ([]imagestore.File, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	files := make([]imagestore.File, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			file, err := readImageFile(name)
			if err != nil {
				return err
			}
			files[i] = file
			log.Debug().Str("file", name).Str("type", file.ContentType).Msg("File read")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}
