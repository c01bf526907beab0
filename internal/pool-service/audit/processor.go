package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/repo"
	"github.com/radieske/wrestlebet-pool-engine/internal/shared/kafka"
	"github.com/radieske/wrestlebet-pool-engine/pkg/contracts/events"
)

// errMalformed marca eventos que nunca vão passar na verificação (vão para a DLQ)
var errMalformed = errors.New("malformed event")

// Processor consome WagerPlaced e confere, contra o store, que a aposta existe
// como publicada e que os pools do confronto batem com a soma das apostas ativas.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log    *zap.Logger
	Reader kafka.MessageReader
	DLQ    kafka.MessageWriter // opcional
	Store  repo.Store

	StoreTimeout time.Duration

	OnConsumed     func()       // métricas (counter++)
	OnChecked      func()       // métricas: evento conferido sem divergência
	OnInconsistent func()       // métricas: divergência encontrada
	OnError        func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e auditoria das mensagens Kafka
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.fail("read")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		_ = p.Handle(ctx, m)
	}
}

// Handle processa uma mensagem. Eventos malformados vão para a DLQ;
// falhas do store só são logadas (a próxima mensagem do confronto confere de novo).
func (p *Processor) Handle(ctx context.Context, m kafka.Message) error {
	var ev events.WagerPlaced
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		p.Log.Warn("invalid message", zap.Error(err))
		p.fail("decode")
		p.deadLetter(ctx, m, "decode: "+err.Error())
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if err := validate(ev); err != nil {
		p.Log.Warn("invalid wager event", zap.String("wagerId", ev.WagerID), zap.Error(err))
		p.fail("validate")
		p.deadLetter(ctx, m, err.Error())
		return err
	}

	err := p.check(ctx, ev)
	switch {
	case err == nil:
		if p.OnChecked != nil {
			p.OnChecked()
		}
		return nil
	case errors.Is(err, domain.ErrInternalInconsistency):
		p.Log.Error("pool inconsistency", zap.String("contestId", ev.ContestID), zap.String("wagerId", ev.WagerID), zap.Error(err))
		if p.OnInconsistent != nil {
			p.OnInconsistent()
		}
		return err
	default:
		p.Log.Warn("audit check failed", zap.String("contestId", ev.ContestID), zap.Error(err))
		p.fail("store")
		return err
	}
}

// validate confere o que dá pra saber só pelo evento
func validate(ev events.WagerPlaced) error {
	if ev.WagerID == "" || ev.ContestID == "" || ev.UserID == "" {
		return fmt.Errorf("%w: missing ids", errMalformed)
	}
	side, ok := domain.ParseSide(ev.Choice)
	if !ok {
		return fmt.Errorf("%w: choice %q", errMalformed, ev.Choice)
	}
	if ev.AmountCents <= 0 {
		return fmt.Errorf("%w: amount %d", errMalformed, ev.AmountCents)
	}
	pool := ev.PoolA
	if side == domain.SideB {
		pool = ev.PoolB
	}
	if pool < ev.AmountCents {
		return fmt.Errorf("%w: pool %d smaller than stake %d", errMalformed, pool, ev.AmountCents)
	}
	return nil
}

func (p *Processor) check(ctx context.Context, ev events.WagerPlaced) error {
	if p.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.StoreTimeout)
		defer cancel()
	}

	return p.Store.InTx(ctx, func(tx repo.Tx) error {
		// lock na linha do confronto: placement e void também começam por ele,
		// então pools e soma das apostas são lidos sem commits intercalados
		c, err := tx.LockContest(ctx, ev.ContestID)
		if err != nil {
			return err
		}

		w, err := tx.GetWager(ctx, ev.WagerID)
		if err != nil {
			if errors.Is(err, domain.ErrWagerNotFound) {
				return domain.Newf(domain.KindInternalInconsistency, "published wager %s not in store", ev.WagerID)
			}
			return err
		}
		if w.ContestID != ev.ContestID || w.AmountCents != ev.AmountCents || string(w.Choice) != ev.Choice {
			return domain.Newf(domain.KindInternalInconsistency, "wager %s differs from published event", ev.WagerID)
		}

		sum, err := tx.SumActiveWagers(ctx, c.ID)
		if err != nil {
			return err
		}
		if sum != c.PoolA+c.PoolB {
			return domain.Newf(domain.KindInternalInconsistency,
				"contest %s pools %d+%d != active wagers %d", c.ID, c.PoolA, c.PoolB, sum)
		}
		return nil
	})
}

func (p *Processor) deadLetter(ctx context.Context, m kafka.Message, reason string) {
	if p.DLQ == nil {
		return
	}
	err := p.DLQ.WriteMessages(ctx, kafka.Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: []kafka.Header{{Key: "reason", Value: []byte(reason)}},
		Time:    time.Now(),
	})
	if err != nil {
		p.Log.Warn("dlq write failed", zap.Error(err))
		p.fail("dlq")
	}
}

func (p *Processor) fail(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
