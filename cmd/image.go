package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anoixa/facility-image-store/internal/app"
	"github.com/anoixa/facility-image-store/internal/imagestore"
	"github.com/anoixa/facility-image-store/storage/mirror"
	"github.com/anoixa/facility-image-store/utils/codec"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

// saveCmd 保存一张图片并打印路径
var saveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Save an image and print its relative path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		noCompress, _ := cmd.Flags().GetBool("no-compress")

		file, err := readImageFile(args[0])
		if err != nil {
			return err
		}

		return withContainer(cmd, func(ctx context.Context, container *app.Container) error {
			path, err := container.Service().Save(ctx, file, category, !noCompress)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		})
	},
}

// loadCmd 打印可显示的 URL，或用 --out 写出图片内容
var loadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Load an image and print its display URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		return withContainer(cmd, func(ctx context.Context, container *app.Container) error {
			res := container.Service().Load(ctx, args[0])
			switch res.Status {
			case imagestore.StatusNotFound:
				return fmt.Errorf("image not found: %s", args[0])
			case imagestore.StatusReadError:
				return fmt.Errorf("failed to read %s: %w", args[0], res.Err)
			}

			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), res.URL)
				return nil
			}

			data, err := resolveURL(ctx, container, res.URL)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], out)
			return nil
		})
	},
}

// deleteCmd 删除图片，不存在时也视为成功
var deleteCmd = &cobra.Command{
	Use:   "delete <path>",
	Short: "Delete an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, container *app.Container) error {
			container.Service().Delete(ctx, args[0])
			return nil
		})
	},
}

// existsCmd 打印 true 或 false
var existsCmd = &cobra.Command{
	Use:   "exists <path>",
	Short: "Report whether an image exists",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd, func(ctx context.Context, container *app.Container) error {
			fmt.Fprintln(cmd.OutOrStdout(), container.Service().Exists(ctx, args[0]))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(saveCmd, loadCmd, deleteCmd, existsCmd)

	saveCmd.Flags().StringP("category", "c", "", "Image category, e.g. equipments, employees (default: general)")
	saveCmd.Flags().Bool("no-compress", false, "Store the image without compressing it")
	loadCmd.Flags().StringP("out", "o", "", "Write the image content to this file instead of printing the URL")
}

// withContainer 初始化容器并附带楼宇选择后执行 fn
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, container *app.Container) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	container, err := newContainer(ctx, mirror.NewTerminalPicker())
	if err != nil {
		return err
	}
	defer container.Close()

	return fn(container.Selection().Attach(ctx), container)
}

// readImageFile 读取文件并按内容识别类型
func readImageFile(name string) (imagestore.File, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return imagestore.File{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return imagestore.File{
		Name:        filepath.Base(name),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

// resolveURL 取出 data URI 或 blob URL 中的内容
func resolveURL(ctx context.Context, container *app.Container, url string) ([]byte, error) {
	switch {
	case strings.HasPrefix(url, "data:"):
		blob, err := codec.ParseDataURI(url)
		if err != nil {
			return nil, err
		}
		return blob.Data, nil
	case strings.HasPrefix(url, "blob:"):
		data, _, err := container.Registry().Resolve(ctx, url)
		if err != nil {
			return nil, err
		}
		_ = container.Registry().Revoke(ctx, url)
		return data, nil
	default:
		return nil, errors.New("remote images cannot be written locally: " + url)
	}
}
