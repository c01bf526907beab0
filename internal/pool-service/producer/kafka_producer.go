package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/radieske/wrestlebet-pool-engine/internal/shared/kafka"
	"github.com/radieske/wrestlebet-pool-engine/pkg/contracts/events"
)

// KafkaPublisher publica WagerPlaced com key = contest id, mantendo a ordem por confronto
type KafkaPublisher struct {
	Writer kafka.MessageWriter
	Topic  string
}

func NewKafkaPublisher(w kafka.MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, Topic: topic}
}

func (p *KafkaPublisher) PublishWagerPlaced(ctx context.Context, e events.WagerPlaced) error {
	if e.TsUnixMs == 0 {
		e.TsUnixMs = time.Now().UnixMilli()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return kafka.WriteJSON(ctx, p.Writer, e.ContestID, b)
}
