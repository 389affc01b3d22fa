package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"social_network_client/internal/mockserver"
	"social_network_client/pkg/config"
	"social_network_client/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.MockBackend, config.EnvConfig.MockBackendLogPath)
	defer logger.Log.Sync()

	cfg, err := config.LoadConfig[config.MockBackend](config.EnvConfig.MockBackend, config.EnvConfig.MockBackendYAMLPath)
	if err != nil {
		logger.Log.Fatal("load config failed", zap.Error(err))
	}

	// access log 與服務 log 放在同一目錄
	var accessLog io.Writer
	if dir := config.EnvConfig.MockBackendLogPath; dir != "" {
		file, err := os.OpenFile(fmt.Sprintf("%s/access.log", dir), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer file.Close()
		accessLog = file
	}

	srv, err := mockserver.New(cfg, accessLog)
	if err != nil {
		logger.Log.Fatal("create mock backend failed", zap.Error(err))
	}

	// 本地開發用的示範帳號
	if !config.IsProduction() {
		ids, err := srv.Seed([]mockserver.SeedUser{
			{Email: "alice@example.com", Password: "Secr3t!pw", First: "Alice", Last: "Liddell", Nickname: "alice"},
			{Email: "bob@example.com", Password: "Secr3t!pw", First: "Bob", Last: "Builder", Nickname: "bob"},
		}, "Hikers")
		if err != nil {
			logger.Log.Fatal("seed failed", zap.Error(err))
		}
		logger.Log.Info("seeded demo users", zap.Int64s("ids", ids))
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Log.Info("shutting down mock backend")
		_ = srv.Shutdown()
	}()

	port := ":" + cfg.Port
	log.Printf("Mock backend listening on %s", port)
	if err := srv.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
