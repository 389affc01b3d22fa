package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social_network_client/internal/client"
	notifydomain "social_network_client/internal/notification/domain"
	"social_network_client/pkg/config"
	"social_network_client/pkg/logger"
	testtool "social_network_client/pkg/test_tool"

	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.Client, config.EnvConfig.ClientLogPath)
	defer logger.Log.Sync()
	logger.Log.SetDebugMode(config.IsLocal())

	cfg, err := config.LoadConfig[config.Client](config.EnvConfig.Client, config.EnvConfig.ClientYAMLPath)
	if err != nil {
		logger.Log.Fatal("load config failed", zap.Error(err))
	}

	testtool.StartPprof(cfg.PprofAddr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := client.New(cfg)
	if err != nil {
		logger.Log.Fatal("create client failed", zap.Error(err))
	}
	defer c.Close()

	if err := c.Start(ctx); err != nil {
		logger.Log.Fatal("start client failed", zap.Error(err))
	}

	go report(ctx, c)

	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.Error("socket stopped", zap.Error(err))
		os.Exit(1)
	}
}

// report 印出未讀與通知變化
func report(ctx context.Context, c *client.Client) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.ChatList.NewMessages():
			for _, th := range append(c.ChatList.UserThreads(), c.ChatList.GroupThreads()...) {
				if th.UnreadCount > 0 {
					fmt.Printf("%-24s %d unread\n", th.Name, th.UnreadCount)
				}
			}
			c.ChatList.ClearNewMessages()
		case <-ticker.C:
			if n, ok := c.Center.Popup(); ok {
				fmt.Println("notification:", notifydomain.Render(n))
				c.Center.DismissPopup()
			}
			if banner := c.Center.Banner(); banner != "" {
				fmt.Println("error:", banner)
				c.Center.DismissBanner()
			}
		}
	}
}
