package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"storysketch/internal/config"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "storysketch",
		Short:         "故事速写：一句话创意 -> 分步插画 -> 朗读播放",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "storysketch.yaml", "配置文件路径，不存在时使用默认配置")
	rootCmd.AddCommand(newServeCmd(), newTellCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

// loadConfig 读取并校验配置，初始化日志
func loadConfig() (*config.Config, io.Closer, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	closer, err := config.InitLogging(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, closer, nil
}
