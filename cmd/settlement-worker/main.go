package main

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/casino-games-platform-poc/internal/settlement"
	"github.com/radieske/casino-games-platform-poc/internal/shared/config"
	"github.com/radieske/casino-games-platform-poc/internal/shared/db"
	"github.com/radieske/casino-games-platform-poc/internal/shared/kafka"
	"github.com/radieske/casino-games-platform-poc/internal/shared/logger"
	"github.com/radieske/casino-games-platform-poc/internal/shared/metrics"
	ev "github.com/radieske/casino-games-platform-poc/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("settlement-worker", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres: trilha de auditoria de settlements
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka consumer: eventos bet_settled dos dois serviços de jogo
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetSettled, "settlement-worker")
	defer reader.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicBetSettledDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettledDLQ)
		defer dlqWriter.Close()
	}

	processor := settlement.NewProcessor(log, settlement.NewPostgresStore(pg))

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("settlement-worker started", zap.String("consume", cfg.TopicBetSettled))

	ctx := context.Background()

	// Loop principal: consome eventos, grava auditoria, manda pra DLQ
	// o que não processa depois dos retries
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		var settled ev.BetSettled
		if jerr := json.Unmarshal(msg.Value, &settled); jerr != nil {
			log.Error("unmarshal bet_settled", zap.Error(jerr))
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, string(msg.Key), msg.Value)
			}
			continue
		}

		if err := processOne(ctx, processor, &settled); err != nil {
			log.Error("process settlement", zap.String("betId", settled.BetID), zap.Error(err))
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, settled.BetID, msg.Value)
			}
		}
	}
}

// processOne tenta gravar a auditoria com retry simples antes de
// desistir e deixar o evento pra DLQ
func processOne(ctx context.Context, p *settlement.Processor, e *ev.BetSettled) error {
	err := p.ProcessBetSettled(ctx, e)
	if err == nil {
		return nil
	}
	const retries = 3
	for i := 0; i < retries; i++ {
		time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
		if err = p.ProcessBetSettled(ctx, e); err == nil {
			return nil
		}
	}
	return err
}
