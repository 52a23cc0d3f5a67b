package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/park285/Cheese-TicTacToe-bot/internal/config"
	"github.com/park285/Cheese-TicTacToe-bot/internal/irisfast"
	"github.com/park285/Cheese-TicTacToe-bot/internal/obslog"
)

// irischeck probes the bridge: /config over HTTP, then a short WebSocket listen.
func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := obslog.Init(cfg.Log)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	client := irisfast.NewClient(cfg.IrisBaseURL,
		irisfast.WithHeaderProvider(cfg.Headers),
		irisfast.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bridge, err := client.GetConfig(ctx)
	if err != nil {
		logger.Error("iris_config_error", zap.Error(err))
	} else {
		logger.Info("iris_config_ok",
			zap.String("bot_name", bridge.BotName),
			zap.Int("port", bridge.Port),
			zap.Int("polling", bridge.PollingSpeed),
			zap.Int("rate", bridge.MessageRate),
			zap.String("endpoint", bridge.WebserverEndpoint),
		)
	}

	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 5)
	ws.SetHeaderProvider(cfg.Headers)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", string(state)))
	})
	ws.OnMessage(func(msg *irisfast.Message) {
		customID, values, interaction := msg.Interaction()
		logger.Info("ws_msg",
			zap.String("room", msg.Room),
			zap.String("from", msg.SenderName()),
			zap.Bool("direct", msg.IsDirect()),
			zap.String("text", msg.Msg),
			zap.Bool("interaction", interaction),
			zap.String("custom_id", customID),
			zap.Strings("values", values),
		)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		logger.Error("ws_connect_error", zap.Error(err))
		return
	}

	// observe for a short window
	time.Sleep(10 * time.Second)

	_ = ws.Close(context.Background())
}
