package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/anoixa/facility-image-store/config"
	"github.com/anoixa/facility-image-store/internal/app"
	"github.com/anoixa/facility-image-store/storage/mirror"
	"github.com/anoixa/facility-image-store/utils/logger"
	"github.com/spf13/cobra"
)

var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "image-store",
	Short:         "Local image store for facility maintenance clients",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.InitConfig(configFile)
		cfg := config.Get()
		logger.Init(cfg.LogLevel, cfg.LogPretty)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (eg: /etc/image-store/config.yaml)")
}

// newContainer 初始化容器；picker 为 nil 时文件夹镜像必须配置 mirror_folder
func newContainer(ctx context.Context, picker mirror.Picker) (*app.Container, error) {
	container := app.NewContainer(config.Get(), picker)
	if err := container.Init(ctx); err != nil {
		return nil, err
	}
	return container, nil
}
