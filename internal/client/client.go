// Package client wires the shared socket, the state containers and the REST client.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"social_network_client/internal/api"
	"social_network_client/internal/bridge"
	chatapp "social_network_client/internal/chat/app"
	notifyapp "social_network_client/internal/notification/app"
	rtapp "social_network_client/internal/realtime/app"
	"social_network_client/internal/relations"
	"social_network_client/pkg/config"
	"social_network_client/pkg/database"
	"social_network_client/pkg/logger"

	rtdomain "social_network_client/internal/realtime/domain"

	"go.uber.org/zap"
)

// subscription names on the bus
const (
	chatSubscriber   = "chat"
	notifySubscriber = "notification"
	bridgeSubscriber = "bridge"
)

// Client one logged-in session: socket, bus, containers, REST
type Client struct {
	cfg config.Client

	API       *api.Client
	Bus       *rtapp.Bus
	Socket    *rtapp.Socket
	ChatList  *chatapp.ChatList
	Chatbox   *chatapp.Chatbox
	Center    *notifyapp.Center
	Relations *relations.Relations

	chat   *chatapp.ChatWebsocketHandler
	bridge *bridge.Bridge
	pubsub *bridge.RedisPubSub

	wg sync.WaitGroup
}

// New build every component from cfg, nothing is connected yet
func New(cfg config.Client) (*Client, error) {
	cfg.Defaults()
	if cfg.APIURL == "" || cfg.WSURL == "" {
		return nil, errors.New("api_url and ws_url are required")
	}

	rest, err := api.New(cfg.APIURL, api.Options{
		Timeout:         cfg.HTTP.Timeout,
		RetryMaxElapsed: cfg.HTTP.RetryMaxElapsed,
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}

	bus := rtapp.NewBus(cfg.Realtime.SubscriberBuffer)
	socket := rtapp.NewSocket(bus, rtapp.Options{
		WriteTimeout:        cfg.Realtime.WriteTimeout,
		PingInterval:        cfg.Realtime.PingInterval,
		ReconnectMaxWait:    cfg.Realtime.ReconnectMaxWait,
		ReconnectMaxElapsed: cfg.Realtime.ReconnectMaxElapse,
		Jar:                 rest.Jar(),
	})

	list := chatapp.NewChatList(socket)
	box := chatapp.NewChatbox(socket, list, cfg.Chat.PageSize)
	box.SetHistoryTimeout(cfg.Chat.HistoryTimeout)

	return &Client{
		cfg:       cfg,
		API:       rest,
		Bus:       bus,
		Socket:    socket,
		ChatList:  list,
		Chatbox:   box,
		Center:    notifyapp.NewCenter(socket, rest, cfg.Notify.PopupTTL),
		Relations: relations.New(socket),
		chat:      chatapp.NewChatWebsocketHandler(list, box),
	}, nil
}

// Start login (when credentials are set), connect, start consumers, load snapshots
func (c *Client) Start(ctx context.Context) error {
	if c.cfg.Credentials.Username != "" {
		err := c.API.Login(ctx, api.LoginForm{
			Username: c.cfg.Credentials.Username,
			Password: c.cfg.Credentials.Password,
		})
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	if err := c.Socket.Connect(ctx, c.cfg.WSURL); err != nil {
		return err
	}

	chatSub, err := c.Bus.Subscribe(chatSubscriber, c.chat.Types()...)
	if err != nil {
		return err
	}
	notifySub, err := c.Bus.Subscribe(notifySubscriber, c.Center.Types()...)
	if err != nil {
		return err
	}
	c.goRun(func() { c.chat.Run(ctx, chatSub.C()) })
	c.goRun(func() { c.Center.Run(ctx, notifySub.C()) })

	if err := c.startBridge(ctx); err != nil {
		// bridge 是選配, 失敗只記錄
		logger.Log.Warn("redis bridge disabled", zap.Error(err))
	}

	// 重新連線後 chatlist 可能已過期, 舊連線上的 history request 也不會有回覆
	c.Socket.OnReconnect(func() {
		if err := c.ChatList.LoadThreadList(ctx); err != nil {
			logger.Log.Error("re-request chatlist failed", zap.Error(err))
		}
		if err := c.Chatbox.Resync(ctx); err != nil {
			logger.Log.Error("chatbox resync failed", zap.Error(err))
		}
	})

	if err := c.ChatList.LoadThreadList(ctx); err != nil {
		return err
	}
	// 載入失敗會顯示在 banner, 不中止 session
	if err := c.Center.Load(ctx); err != nil {
		logger.Log.Warn("notification load failed", zap.Error(err))
	}
	return nil
}

func (c *Client) startBridge(ctx context.Context) error {
	if c.cfg.Bridge.RedisAddr == "" {
		return nil
	}
	rdb, err := database.NewRedisClient(ctx, c.cfg.Bridge.RedisAddr, c.cfg.Bridge.RedisDB)
	if err != nil {
		return err
	}
	c.pubsub = bridge.NewRedisPubSub(rdb)
	c.bridge = bridge.New(c.pubsub, database.NewRedisRepository[rtdomain.Envelope](rdb), c.Socket, c.cfg.Bridge.Prefix)

	sub, err := c.Bus.Subscribe(bridgeSubscriber)
	if err != nil {
		rdb.Close()
		return err
	}
	if err := c.bridge.ListenOutbound(ctx, c.pubsub); err != nil {
		c.Bus.Unsubscribe(bridgeSubscriber)
		rdb.Close()
		return err
	}
	c.goRun(func() {
		defer rdb.Close()
		c.bridge.Run(ctx, sub.C())
	})
	logger.Log.Info("redis bridge started", zap.String("addr", c.cfg.Bridge.RedisAddr))
	return nil
}

func (c *Client) goRun(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

// Run block on the socket read loop until ctx is done or Close
func (c *Client) Run(ctx context.Context) error {
	return c.Socket.Run(ctx)
}

// Close close the socket and the bus, wait for consumers
func (c *Client) Close() error {
	err := c.Socket.Close()
	c.Bus.Close()
	c.wg.Wait()
	return err
}
