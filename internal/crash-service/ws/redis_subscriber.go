package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StartRedisSubscriber inicia uma goroutine que escuta o canal Redis
// Pub/Sub de snapshots e repassa cada um aos clientes WebSocket
// inscritos no tópico de rodada via Hub.
func StartRedisSubscriber(ctx context.Context, log *zap.Logger, r *redis.Client, channel string, hub *Hub) {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close() // encerra a inscrição ao finalizar o contexto
				return
			case msg := <-ch:
				if msg == nil {
					continue
				}
				if !json.Valid([]byte(msg.Payload)) {
					log.Warn("ws subscriber dropped invalid payload")
					continue
				}
				hub.Broadcast(TopicRoundState, json.RawMessage(msg.Payload))
			}
		}
	}()
}
