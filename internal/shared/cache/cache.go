package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis abre o cliente usado pelo Pub/Sub de snapshots e valida
// a conexão com um ping antes de devolver.
func ConnectRedis(addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}
