package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koopa0/system-design/14-omok-server/internal"
)

func main() {
	// 解析命令行參數
	var (
		configPath = flag.String("config", "config.yaml", "配置檔案路徑")
	)
	flag.Parse()

	// 載入配置（檔案不存在時採用預設值）
	config, err := internal.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 設置日誌
	logger := setupLogger(config.Log.Level, config.Log.Format)

	// 組裝核心元件：房間池、客戶端註冊表、協調器、WebSocket 閘道
	rooms := internal.NewRoomRegistry(config.Game.RoomCount)
	clients := internal.NewClientRegistry()
	coordinator := internal.NewCoordinator(rooms, clients, logger)
	gateway := internal.NewGateway(coordinator, config.Game.MaxFrameSize, logger)

	// 設置路由
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", gateway.ServeWS)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"healthy","online":%d}`, clients.Count())
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Server.Port),
		Handler:      mux,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// 啟動服務器
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("五子棋服務器啟動",
			"port", config.Server.Port,
			"rooms", config.Game.RoomCount,
			"max_frame_size", config.Game.MaxFrameSize)
		serverErrors <- server.ListenAndServe()
	}()

	// 等待中斷信號
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("服務器啟動失敗", "error", err)
			os.Exit(1)
		}

	case sig := <-shutdown:
		logger.Info("收到關閉信號，開始優雅關閉...", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// 停止接受新連線
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("服務器關閉失敗", "error", err)
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("強制關閉服務器失敗", "error", closeErr)
			}
		}

		// 關閉所有仍在線的客戶端連線，讓各自的讀取迴圈走清理路徑
		for _, client := range clients.Snapshot() {
			_ = client.Close()
		}
	}

	logger.Info("服務器已關閉")
}

// setupLogger 設置日誌
func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: level == "debug",
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
