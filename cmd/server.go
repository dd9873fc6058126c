/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/memorialops/cemetery-gin/internal/api"
	"github.com/memorialops/cemetery-gin/internal/config"
	"github.com/memorialops/cemetery-gin/internal/container"
	"github.com/memorialops/cemetery-gin/internal/metrics"
	"github.com/spf13/cobra"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the Cemetery Gin API server.
The server will listen on the configured host and port,
and provide REST API interfaces for the approval workflow.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载配置
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// 2. 初始化日志
		logger, err := api.NewLoggerFromConfig(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		// 3. 初始化容器
		ctr, err := container.NewContainer(cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer ctr.Close()

		// 4. 后台任务:执行补偿 + 过期清扫 + 指标采集
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ctr.StartWorkers(ctx)

		collector := metrics.NewCollector(ctr.DB(), 30*time.Second)
		collector.Start()
		defer collector.Stop()

		// 5. 配置热更新:审批策略与有效期改动无需重启
		watcher := config.NewConfigWatcher(cfg, configPath)
		watcher.OnConfigChange(func(newCfg *config.Config) {
			ctr.ReloadPolicy(newCfg)
		})
		if err := watcher.Start(); err != nil {
			logger.WithError(err).Warn("Config watcher disabled")
		} else {
			defer watcher.Stop()
		}

		// 6. 设置路由并启动服务器
		router := api.SetupRoutes(ctr, cfg)
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: router,
		}

		go func() {
			logger.WithField("addr", addr).Info("Server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Fatal("Failed to start server")
			}
		}()

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("Shutting down server...")

		// 优雅关闭
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Fatal("Server forced to shutdown")
		}

		logger.Info("Server exited")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// 服务器配置标志
	serverCmd.Flags().String("config", "", "Config file path (default: config.yaml)")
	serverCmd.Flags().String("host", "0.0.0.0", "Server host")
	serverCmd.Flags().Int("port", 8080, "Server port")
}

// LoadConfig 加载配置
func LoadConfig(configPath string) (*config.Config, error) {
	return config.Load(configPath)
}
