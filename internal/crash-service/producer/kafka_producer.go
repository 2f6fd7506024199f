package producer

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/casino-games-platform-poc/pkg/contracts/events"
)

// KafkaPublisher escreve os eventos da rodada em dois tópicos: o resumo
// da rodada em round_finished e cada aposta resolvida em bet_settled.
type KafkaPublisher struct {
	Rounds *kafka.Writer
	Bets   *kafka.Writer
}

func NewKafkaPublisher(rounds, bets *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Rounds: rounds, Bets: bets}
}

func (p *KafkaPublisher) PublishRoundFinished(ctx context.Context, e events.RoundFinished) error {
	b, _ := json.Marshal(e)
	return p.Rounds.WriteMessages(ctx, kafka.Message{Key: []byte(e.RoundID), Value: b})
}

func (p *KafkaPublisher) PublishBetSettled(ctx context.Context, e events.BetSettled) error {
	b, _ := json.Marshal(e)
	return p.Bets.WriteMessages(ctx, kafka.Message{Key: []byte(e.BetID), Value: b})
}
