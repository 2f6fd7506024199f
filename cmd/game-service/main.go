package main

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/casino-games-platform-poc/internal/game-service/control"
	ghttp "github.com/radieske/casino-games-platform-poc/internal/game-service/http"
	kpub "github.com/radieske/casino-games-platform-poc/internal/game-service/producer"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/repo"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/service"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/wallet"
	"github.com/radieske/casino-games-platform-poc/internal/shared/config"
	"github.com/radieske/casino-games-platform-poc/internal/shared/db"
	"github.com/radieske/casino-games-platform-poc/internal/shared/kafka"
	"github.com/radieske/casino-games-platform-poc/internal/shared/logger"
	"github.com/radieske/casino-games-platform-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("game-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "game-service"), zap.String("env", cfg.Env))

	// Postgres: apostas, nonces e registros de override
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka writer do settlement
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer writer.Close()

	betStore := repo.NewPostgres(pg)
	controlStore := control.NewPostgres(pg)
	controller := control.NewController(controlStore)
	wcli := wallet.New(cfg.WalletURL)
	publ := kpub.NewKafkaPublisher(writer, cfg.TopicBetSettled)

	svc := service.New(log, betStore, wcli, controller, publ, func() string {
		return uuid.New().String()
	})
	api := ghttp.NewServer(log, svc, controlStore)

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort, // ex: 8083
		Handler: api.Router(),
	}
	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
