package config

import "time"

// Client definition social_client YAML structure
type Client struct {
	// APIURL REST base url, e.g. http://localhost:8000
	APIURL string `mapstructure:"api_url"`
	// WSURL websocket endpoint, e.g. ws://localhost:8000/ws
	WSURL string `mapstructure:"ws_url"`

	Credentials CredentialsConfig `mapstructure:"credentials"`
	Realtime    RealtimeConfig    `mapstructure:"realtime"`
	Chat        ChatConfig        `mapstructure:"chat"`
	Notify      NotifyConfig      `mapstructure:"notification"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Bridge      BridgeConfig      `mapstructure:"bridge"`

	// PprofAddr local profiling listener, empty disables it
	PprofAddr string `mapstructure:"pprof_addr"`
}

// MockBackend definition mock_backend YAML structure
type MockBackend struct {
	Port      string `mapstructure:"port"`
	JWTSecret string `mapstructure:"jwt_secret"`
	// SessionTTL cookie 有效時間
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// CredentialsConfig login info, empty username skips login
type CredentialsConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// RealtimeConfig websocket setting
type RealtimeConfig struct {
	SubscriberBuffer   int           `mapstructure:"subscriber_buffer"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	PingInterval       time.Duration `mapstructure:"ping_interval"`
	ReconnectMaxWait   time.Duration `mapstructure:"reconnect_max_wait"`
	ReconnectMaxElapse time.Duration `mapstructure:"reconnect_max_elapsed"`
}

// ChatConfig chatbox setting
type ChatConfig struct {
	// PageSize 少於此數量代表沒有更多歷史訊息
	PageSize int `mapstructure:"page_size"`
	// HistoryTimeout 超過此時間沒有回覆的 history request 視為遺失
	HistoryTimeout time.Duration `mapstructure:"history_timeout"`
}

// NotifyConfig notification setting
type NotifyConfig struct {
	PopupTTL time.Duration `mapstructure:"popup_ttl"`
}

// HTTPConfig REST client setting
type HTTPConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	RetryMaxElapsed time.Duration `mapstructure:"retry_max_elapsed"`
}

// BridgeConfig redis bridge setting, empty addr disables it
type BridgeConfig struct {
	RedisAddr string `mapstructure:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db"`
	Prefix    string `mapstructure:"prefix"`
}

// Defaults fill zero values
func (c *Client) Defaults() {
	if c.Realtime.SubscriberBuffer <= 0 {
		c.Realtime.SubscriberBuffer = 64
	}
	if c.Realtime.WriteTimeout <= 0 {
		c.Realtime.WriteTimeout = 10 * time.Second
	}
	if c.Realtime.PingInterval <= 0 {
		c.Realtime.PingInterval = time.Minute
	}
	if c.Realtime.ReconnectMaxWait <= 0 {
		c.Realtime.ReconnectMaxWait = 30 * time.Second
	}
	if c.Chat.PageSize <= 0 {
		c.Chat.PageSize = 10
	}
	if c.Chat.HistoryTimeout <= 0 {
		c.Chat.HistoryTimeout = 30 * time.Second
	}
	if c.Notify.PopupTTL <= 0 {
		c.Notify.PopupTTL = 5 * time.Second
	}
	if c.HTTP.Timeout <= 0 {
		c.HTTP.Timeout = 15 * time.Second
	}
	if c.HTTP.RetryMaxElapsed <= 0 {
		c.HTTP.RetryMaxElapsed = 10 * time.Second
	}
	if c.Bridge.Prefix == "" {
		c.Bridge.Prefix = "social"
	}
}
