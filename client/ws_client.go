package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"ticker-board/config"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	Name           = "ticker-board"
	Version        = "0.1.0"
	Keepalive      = true
	ReadLimitBytes = 655350
)

var (
	Timeout = time.Second * 10

	// StableConnection is how long a connection must stay up before the backoff resets
	StableConnection = 30 * time.Second

	// CloseGracePeriod bounds the wait for the server to answer our close frame
	CloseGracePeriod = time.Second

	ErrMaxReconnectAttempts = errors.New("reached max reconnection attempts")
)

// WsConfig webservice configuration
type WsConfig struct {
	endpoint             string
	handshakeTimeout     time.Duration
	readTimeout          time.Duration
	enableCompression    bool
	keepConnectionAlive  bool
	maxReconnectAttempts int
	reconnectDelay       time.Duration
	reconnectMaxDelay    time.Duration
	reconnectMultiplier  float64
}

// WsOptions tune dialing and reconnection. Zero values fall back to defaults,
// MaxReconnectAttempts 0 retries until the context is cancelled.
type WsOptions struct {
	HandshakeTimeout     time.Duration
	ReadTimeout          time.Duration
	ReconnectDelay       time.Duration
	ReconnectMaxDelay    time.Duration
	ReconnectMultiplier  float64
	MaxReconnectAttempts int
}

func WsOptionsFromConfig(cfg config.StreamConfig) WsOptions {
	return WsOptions{
		HandshakeTimeout:     cfg.HandshakeTimeout,
		ReadTimeout:          cfg.ReadTimeout,
		ReconnectDelay:       cfg.ReconnectDelay,
		ReconnectMaxDelay:    cfg.ReconnectMaxDelay,
		ReconnectMultiplier:  cfg.ReconnectMultiplier,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	}
}

type WebsocketStreamClient struct {
	config *WsConfig
	logger *slog.Logger
}

type StreamClient interface {
	Connect(ctx context.Context, messageHandler MessageHandler, errorHandler ErrorHandler) (doneCh <-chan struct{}, err error)
}

func NewWebsocketStreamClient(baseURL string, options WsOptions, logger *slog.Logger) StreamClient {
	wsConfig := &WsConfig{
		endpoint:             baseURL,
		handshakeTimeout:     Timeout,
		readTimeout:          options.ReadTimeout,
		enableCompression:    false,
		keepConnectionAlive:  Keepalive,
		maxReconnectAttempts: options.MaxReconnectAttempts,
		reconnectDelay:       2 * time.Second,
		reconnectMaxDelay:    60 * time.Second,
		reconnectMultiplier:  1.5,
	}
	if options.HandshakeTimeout > 0 {
		wsConfig.handshakeTimeout = options.HandshakeTimeout
	}
	if options.ReconnectDelay > 0 {
		wsConfig.reconnectDelay = options.ReconnectDelay
	}
	if options.ReconnectMaxDelay > 0 {
		wsConfig.reconnectMaxDelay = max(options.ReconnectMaxDelay, wsConfig.reconnectDelay)
	}
	if options.ReconnectMultiplier >= 1 {
		wsConfig.reconnectMultiplier = options.ReconnectMultiplier
	}

	return &WebsocketStreamClient{
		config: wsConfig,
		logger: logger,
	}
}

// Connect starts the connection manager in the background. The returned channel
// is closed once ctx is cancelled and the socket is released, or once the
// reconnect limit is reached.
func (ws *WebsocketStreamClient) Connect(ctx context.Context, messageHandler MessageHandler, errorHandler ErrorHandler) (<-chan struct{}, error) {
	if ws.config.endpoint == "" {
		return nil, errors.New("websocket endpoint is empty")
	}

	doneCh := make(chan struct{})
	go ws.manageConnection(ctx, messageHandler, errorHandler, doneCh)

	return doneCh, nil
}

func (ws *WebsocketStreamClient) manageConnection(ctx context.Context, messageHandler MessageHandler, errorHandler ErrorHandler, doneCh chan struct{}) {
	defer close(doneCh)

	reconnectionAttempts := 0
	reconnectDelay := ws.config.reconnectDelay

	for {
		// check if we stop
		if ctx.Err() != nil {
			return
		}

		logger := ws.logger.With("conn_id", uuid.NewString())

		conn, err := ws.connect(ctx, logger)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			reconnectionAttempts++
			logger.Warn("Websocket connection failed", "error", err, "attempt", reconnectionAttempts, "retry_in", reconnectDelay)

			if ws.config.maxReconnectAttempts > 0 && reconnectionAttempts >= ws.config.maxReconnectAttempts {
				logger.Error("Reached max reconnection attempts", "error", err, "attempt", reconnectionAttempts)
				errorHandler(fmt.Errorf("%w (%d): %v", ErrMaxReconnectAttempts, reconnectionAttempts, err))
				return
			}

			if !sleepContext(ctx, reconnectDelay) {
				return
			}
			reconnectDelay = ws.nextDelay(reconnectDelay)
			continue
		}

		// reached successful connection
		logger.Info("WebSocket connected successfully", "endpoint", ws.config.endpoint)
		connectedAt := time.Now()
		reconnectionAttempts = 0

		processingErr := ws.processIncomingMessages(ctx, conn, logger, messageHandler, errorHandler)
		if ctx.Err() != nil {
			return
		}

		if time.Since(connectedAt) >= StableConnection {
			reconnectDelay = ws.config.reconnectDelay
		}
		logger.Warn("Websocket connection lost, reconnecting", "error", processingErr, "retry_in", reconnectDelay)

		if !sleepContext(ctx, reconnectDelay) {
			return
		}
		reconnectDelay = ws.nextDelay(reconnectDelay)
	}
}

func (ws *WebsocketStreamClient) nextDelay(current time.Duration) time.Duration {
	next := time.Duration(float64(current) * ws.config.reconnectMultiplier)
	if next > ws.config.reconnectMaxDelay {
		return ws.config.reconnectMaxDelay
	}
	return next
}

// sleepContext waits for d and reports false if ctx ended first
func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (ws *WebsocketStreamClient) connect(ctx context.Context, logger *slog.Logger) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		Proxy:             http.ProxyFromEnvironment,
		HandshakeTimeout:  ws.config.handshakeTimeout,
		EnableCompression: ws.config.enableCompression,
	}

	headers := http.Header{}
	headers.Add("User-Agent", fmt.Sprintf("%s/%s", Name, Version))

	dialCtx, cancel := context.WithTimeout(ctx, ws.config.handshakeTimeout)
	defer cancel()

	logger.Debug("Connecting to websocket endpoint", "endpoint", ws.config.endpoint)
	conn, resp, err := dialer.DialContext(dialCtx, ws.config.endpoint, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		return nil, err
	}

	conn.SetReadLimit(ReadLimitBytes)

	if ws.config.keepConnectionAlive {
		ws.keepAlive(conn, logger)
	}

	return conn, nil
}

func (ws *WebsocketStreamClient) keepAlive(c *websocket.Conn, logger *slog.Logger) {
	// ping handler to keep connection alive
	c.SetPingHandler(func(pingData string) error {
		logger.Debug("websocket client ping received", "pingData", pingData)
		ws.extendReadDeadline(c)
		err := c.WriteControl(websocket.PongMessage, []byte(pingData), time.Now().Add(time.Second))
		if err != nil {
			logger.Warn("Failed to send pong response", "error", err)
		}
		return err
	})
}

func (ws *WebsocketStreamClient) extendReadDeadline(c *websocket.Conn) {
	if ws.config.readTimeout > 0 {
		_ = c.SetReadDeadline(time.Now().Add(ws.config.readTimeout))
	}
}

func (ws *WebsocketStreamClient) processIncomingMessages(ctx context.Context, conn *websocket.Conn, logger *slog.Logger, messageHandler MessageHandler, errorHandler ErrorHandler) error {
	defer conn.Close()
	messageDone := make(chan error, 1)

	go func() {
		for {
			ws.extendReadDeadline(conn)
			_, message, err := conn.ReadMessage()
			if err != nil {
				// Only treat unexpected closures as errors
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
					websocket.CloseNormalClosure,
				) {
					errorHandler(err)
				}
				messageDone <- err
				return
			}
			messageHandler(message)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Debug("Received stop signal closing websocket connection")

		err := conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		if err != nil {
			logger.Debug("Failed to send close frame", "error", err)
		}

		// the server may never echo the close frame
		select {
		case <-messageDone:
		case <-time.After(CloseGracePeriod):
			conn.Close()
			<-messageDone
		}
		return nil
	case err := <-messageDone:
		return fmt.Errorf("message processing completed early: %w", err)
	}
}
