package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/Cheese-TicTacToe-bot/internal/adapter/tttpresenter"
	"github.com/park285/Cheese-TicTacToe-bot/internal/bot"
	appcfg "github.com/park285/Cheese-TicTacToe-bot/internal/config"
	"github.com/park285/Cheese-TicTacToe-bot/internal/irisfast"
	"github.com/park285/Cheese-TicTacToe-bot/internal/msgcat"
	"github.com/park285/Cheese-TicTacToe-bot/internal/obslog"
	"github.com/park285/Cheese-TicTacToe-bot/internal/pvpttt"
)

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

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		logger.Fatal("msgcat_init_error", zap.Error(err))
	}

	client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(cfg.Headers))
	ws := irisfast.NewWebSocket(cfg.IrisWSURL, 5)
	ws.SetHeaderProvider(cfg.Headers)
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", string(state)))
	})
	egress := irisfast.NewEgress(cfg.EgressMode, cfg.DryRun, client, ws, logger)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	store, err := newStore(rootCtx, cfg)
	if err != nil {
		logger.Fatal("ttt_store_init_error", zap.Error(err))
	}
	games := pvpttt.NewManager(store)

	var history bot.HistorySource
	var repo *pvpttt.Repository
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		repo, err = pvpttt.NewRepository(rootCtx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("ttt_repo_init_error", zap.Error(err))
		}
		if err := repo.EnsureSchema(rootCtx); err != nil {
			logger.Fatal("ttt_repo_schema_error", zap.Error(err))
		}
		games.AttachRepository(repo)
		history = repo
	}

	var renderer *tttpresenter.Renderer
	if cfg.BoardImage {
		renderer = tttpresenter.NewRenderer()
	}
	presenter := tttpresenter.NewPresenter(
		tttpresenter.NewFormatter(cfg, catalog),
		renderer,
		egress.SendText,
		egress.SendImage,
		egress.SendDirect,
	)
	handler := bot.NewHandler(games, presenter, bot.Options{
		RoomFilter: cfg.RoomAllowed,
		History:    history,
	})

	ws.OnMessage(func(msg *irisfast.Message) {
		if msg == nil {
			return
		}
		// keep the read loop free
		go handler.Handle(rootCtx, msg)
	})

	cctx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
	if err := ws.Connect(cctx); err != nil {
		cancel()
		logger.Fatal("ws_connect_error", zap.Error(err))
	}
	cancel()
	logger.Info("ttt_bot_ready",
		zap.String("prefix", cfg.BotPrefix),
		zap.String("egress", cfg.EgressMode),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Bool("history", repo != nil),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	stop()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	_ = ws.Close(closeCtx)
	if err := games.Close(); err != nil {
		logger.Warn("ttt_store_close_error", zap.Error(err))
	}
	if repo != nil {
		_ = repo.Close()
	}
}

// newStore shares the registry through Redis when configured, otherwise keeps it in process.
func newStore(ctx context.Context, cfg *appcfg.AppConfig) (pvpttt.Store, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return pvpttt.NewMemoryStore(), nil
	}
	return pvpttt.NewRedisStore(ctx, cfg.RedisURL)
}
