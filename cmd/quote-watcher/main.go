// quote-watcher subscribes to the market websocket feed for a set of
// instruments, keeps the in-memory book cache in sync, and serves the
// read-only HTTP gateway on top of it.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kuestmarket/kuest-go/internal/bookstate"
	"github.com/kuestmarket/kuest-go/internal/errlog"
	"github.com/kuestmarket/kuest-go/internal/gateway"
	"github.com/kuestmarket/kuest-go/internal/stream"
	"github.com/kuestmarket/kuest-go/pkg/config"
	"github.com/kuestmarket/kuest-go/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", os.Getenv("KUEST_CONFIG"), "config file path")
		assets     = flag.String("assets", os.Getenv("KUEST_ASSET_IDS"), "comma-separated instrument token ids to watch")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.OutputFile,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		log.Fatalf("init logger: %v", err)
	}

	assetIDs := splitAssets(*assets)
	if len(assetIDs) == 0 {
		log.Fatalf("no instruments to watch: pass -assets or set KUEST_ASSET_IDS")
	}

	errors, err := errlog.Open(cfg.ErrorLogPath)
	if err != nil {
		log.Fatalf("open error log: %v", err)
	}
	defer errors.Close()

	store := bookstate.NewStore()
	client := stream.New(stream.Config{
		URL:   cfg.StreamURL,
		Codec: stream.MarketCodec{AssetIDs: assetIDs},
		Log:   logger.WithField("component", "quote-watcher"),
	})
	unbind := stream.BindStore(client, store)
	defer unbind()

	stopStatus := client.OnStatus(func(s stream.Status) {
		logger.WithField("status", s).Info("stream status changed")
	})
	defer stopStatus()

	client.Open()
	defer client.Close()

	srv := &http.Server{
		Addr:              cfg.GatewayListen,
		Handler:           gateway.New(store, client, errors).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.WithField("addr", cfg.GatewayListen).Info("gateway listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("gateway: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warnf("gateway shutdown: %v", err)
	}
}

func splitAssets(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}
