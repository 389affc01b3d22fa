package testtool

import (
	"net/http"
	_ "net/http/pprof" // 匯入後會自動註冊 pprof endpoint

	"social_network_client/pkg/config"
	"social_network_client/pkg/logger"

	"go.uber.org/zap"
)

// StartPprof 本地環境才在 addr 啟動 pprof, 例如 127.0.0.1:6060
func StartPprof(addr string) {
	if !config.IsLocal() || addr == "" {
		return
	}

	go func() {
		logger.Log.Info("Starting pprof server", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Log.Error("pprof server failed", zap.Error(err))
		}
	}()
}

// 確認: curl http://127.0.0.1:6060/debug/pprof/
// CPU:  go tool pprof http://127.0.0.1:6060/debug/pprof/profile?seconds=30
// heap: go tool pprof http://127.0.0.1:6060/debug/pprof/heap
