package broadcast

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
	"github.com/radieske/wrestlebet-pool-engine/pkg/contracts/events"
)

// RedisPublisher publica snapshots num canal Redis Pub/Sub, para que todas as
// instâncias do serviço repassem aos seus assinantes
type RedisPublisher struct {
	r       *redis.Client
	channel string
}

func NewRedisPublisher(r *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{r: r, channel: channel}
}

func (p *RedisPublisher) PublishSnapshot(ctx context.Context, snap domain.Snapshot) error {
	b, err := json.Marshal(ToEvent(snap))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := p.r.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.channel, err)
	}
	return nil
}

// StartRedisSubscriber escuta o canal Redis e repassa cada snapshot ao Channel local.
// Termina quando ctx é cancelado.
func StartRedisSubscriber(ctx context.Context, r *redis.Client, channel string, local *Channel, log *zap.Logger) {
	sub := r.Subscribe(ctx, channel)
	msgs := sub.Channel()
	go func() {
		defer sub.Close() // encerra a inscrição ao finalizar o contexto
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev events.ContestSnapshot
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn("snapshot subscriber: invalid payload", zap.Error(err))
					continue
				}
				local.Deliver(ev)
			}
		}
	}()
}
