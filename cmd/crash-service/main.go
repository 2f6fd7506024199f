package main

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	chttp "github.com/radieske/casino-games-platform-poc/internal/crash-service/http"
	kpub "github.com/radieske/casino-games-platform-poc/internal/crash-service/producer"
	"github.com/radieske/casino-games-platform-poc/internal/crash-service/pubsub"
	crepo "github.com/radieske/casino-games-platform-poc/internal/crash-service/repo"
	"github.com/radieske/casino-games-platform-poc/internal/crash-service/round"
	"github.com/radieske/casino-games-platform-poc/internal/crash-service/ws"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/control"
	"github.com/radieske/casino-games-platform-poc/internal/game-service/wallet"
	"github.com/radieske/casino-games-platform-poc/internal/shared/cache"
	"github.com/radieske/casino-games-platform-poc/internal/shared/config"
	"github.com/radieske/casino-games-platform-poc/internal/shared/db"
	"github.com/radieske/casino-games-platform-poc/internal/shared/kafka"
	"github.com/radieske/casino-games-platform-poc/internal/shared/logger"
	"github.com/radieske/casino-games-platform-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("crash-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "crash-service"), zap.String("env", cfg.Env))

	// Postgres: histórico de rodadas e registros de override
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: canal Pub/Sub dos snapshots de rodada
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writers: round_finished da rodada e bet_settled por aposta
	roundWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundFinished)
	defer roundWriter.Close()
	betWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer betWriter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	history := crepo.NewPostgres(pg)
	controller := control.NewController(control.NewPostgres(pg))
	wcli := wallet.New(cfg.WalletURL)
	broadcaster := pubsub.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel)
	publ := kpub.NewKafkaPublisher(roundWriter, betWriter)

	machine := round.NewMachine(log, round.Config{
		Edge:        cfg.HouseEdge,
		GrowthRate:  cfg.GrowthRate,
		Countdown:   cfg.RoundCountdown,
		Tick:        cfg.RoundTick,
		RestartWait: cfg.RoundRestartWait,
	}, wcli, controller, history, broadcaster, publ, func() string {
		return uuid.New().String()
	})
	go machine.Run(ctx)

	// WebSocket: snapshots chegam do Redis e saem pro hub
	hub := ws.NewHub(func(*http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, log, rdb, cfg.RedisPubSubChannel, hub)

	api := chttp.NewServer(log, machine, history, hub)

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort, // ex: 8084
		Handler: api.Router(),
	}
	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
