package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/qingwen-guan/allied-citadels/internal/agenttransport"
	"github.com/qingwen-guan/allied-citadels/internal/agenttransport/wsbus"
	"github.com/qingwen-guan/allied-citadels/internal/api"
	"github.com/qingwen-guan/allied-citadels/internal/auth"
	"github.com/qingwen-guan/allied-citadels/internal/config"
	"github.com/qingwen-guan/allied-citadels/internal/history"
	"github.com/qingwen-guan/allied-citadels/internal/observability"
	"github.com/qingwen-guan/allied-citadels/internal/room"
	"github.com/qingwen-guan/allied-citadels/internal/store"
)

func main() {
	cfg := config.Load()

	logger, err := observability.SetupLogger()
	if err != nil {
		log.Fatalf("cannot init logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := observability.SetupTracerProvider(ctx, "allied-citadels", cfg.TraceStdout, logger)
	if err != nil {
		logger.Fatal("cannot init tracer", zap.Error(err))
	}
	defer tp.Shutdown(ctx)

	db, err := store.ConnectMySQL(cfg.DBDSN)
	var st *store.Store
	var journal history.Journal
	if err != nil {
		logger.Warn("cannot connect db, falling back to in-memory mode", zap.Error(err))
		st = store.NewMemoryStore()
		journal = history.NewMemory()
	} else {
		defer db.Close()
		st = store.New(db)
		journal = history.NewMySQL(db)
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer.(*prometheus.Registry))
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	roomMgr := room.NewManager(ctx, st, logger, metrics)
	defer roomMgr.Close()

	router := agenttransport.NewRouter()
	hub := wsbus.NewHub(jwtMgr, logger, router.Deliver)

	server := api.NewServer(st, jwtMgr, roomMgr, hub, router, journal, logger, metrics)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: server.Router}
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
}
