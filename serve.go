package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"storysketch/internal/agent"
	"storysketch/internal/api"
	"storysketch/internal/service"
	"storysketch/internal/tools"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "监听地址，覆盖配置文件中的 server.addr")
	return cmd
}

func runServe(ctx context.Context, addr string) error {
	cfg, closer, err := loadConfig()
	if err != nil {
		return err
	}
	defer closer.Close()
	if addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	caps, err := buildCapabilities(ctx, cfg)
	if err != nil {
		return err
	}
	storyAgent := agent.NewStoryAgent(func(log *logrus.Entry) *service.Orchestrator {
		return caps.newOrchestrator(newVoice(cfg), log)
	}, cfg.GetSessionTTL())
	defer storyAgent.Close()

	router := api.NewRouter(storyAgent, tools.NewStoryPlanTool(caps.planner), tools.NewImageEditTool(caps.editor))
	srv := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.Infof("服务器启动在 %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("启动服务器失败: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("关闭服务器...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("服务器关闭失败: %w", err)
		}
		return nil
	})

	err = g.Wait()
	logrus.Info("服务器已关闭")
	return err
}
