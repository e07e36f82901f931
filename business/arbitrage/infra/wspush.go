package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/fd1az/triscan/business/arbitrage/domain"
	"github.com/fd1az/triscan/internal/apperror"
	"github.com/fd1az/triscan/internal/logger"
	"github.com/fd1az/triscan/internal/wshub"
)

// WSPushConfig holds settings for the websocket push consumer.
type WSPushConfig struct {
	// Port to listen on. 0 picks an ephemeral port.
	Port int
}

// WSPushConsumer serves a WebSocket endpoint and pushes every delivered
// opportunity to all connected clients. Slow clients lose messages rather
// than slowing delivery down.
type WSPushConsumer struct {
	hub      *wshub.Hub
	server   *http.Server
	listener net.Listener
	logger   logger.LoggerInterface
}

// NewWSPushConsumer starts listening immediately; clients connect to
// /ws/opportunities.
func NewWSPushConsumer(cfg WSPushConfig, log logger.LoggerInterface) (*WSPushConsumer, error) {
	hub := wshub.New(wshub.DefaultConfig(), log)

	mux := http.NewServeMux()
	mux.Handle("/ws/opportunities", hub)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", cfg.Port, err)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	c := &WSPushConsumer{
		hub:      hub,
		server:   server,
		listener: listener,
		logger:   log,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(context.Background(), "opportunity websocket server failed", "error", err)
		}
	}()

	log.Info(context.Background(), "opportunity websocket listening", "addr", listener.Addr().String())
	return c, nil
}

// Name implements app.Consumer.
func (c *WSPushConsumer) Name() string { return "websocket" }

// Addr returns the bound listen address.
func (c *WSPushConsumer) Addr() string {
	return c.listener.Addr().String()
}

// Deliver broadcasts one opportunity to every connected client.
func (c *WSPushConsumer) Deliver(_ context.Context, opp domain.Opportunity) error {
	payload, err := json.Marshal(newOpportunityMessage(opp))
	if err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithCause(err),
			apperror.WithContext("marshal opportunity"))
	}
	c.hub.Broadcast(payload)
	return nil
}

// Close shuts the server down and disconnects all clients.
func (c *WSPushConsumer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := c.server.Shutdown(ctx)
	c.hub.Close()
	return err
}
