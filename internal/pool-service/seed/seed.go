package seed

import (
	"context"

	"go.uber.org/zap"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/placement"
)

// DemoContests são os confrontos criados em ambiente de desenvolvimento
var DemoContests = []placement.CreateContestRequest{
	{
		ID: "demo-main-event", ContestantA: "The Iron Duke", ContestantB: "Viper Santos",
		Status: domain.ContestOpen, Metadata: map[string]string{"card": "Friday Night Clash", "slot": "main"},
	},
	{
		ID: "demo-opener", ContestantA: "Kid Lightning", ContestantB: "Big Marco",
		Status: domain.ContestOpen, Metadata: map[string]string{"card": "Friday Night Clash", "slot": "opener"},
	},
}

// DemoUsers recebem saldo inicial (centavos) se ainda não tiverem saldo
var DemoUsers = map[string]int64{
	"demo-user-1": 100_000,
	"demo-user-2": 100_000,
	"demo-user-3": 5_000,
}

// Service é o subconjunto do placement.Service usado pela carga inicial
type Service interface {
	CreateContest(ctx context.Context, req placement.CreateContestRequest) (*domain.Contest, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	Deposit(ctx context.Context, userID string, amount int64) (int64, error)
}

// Run cria os confrontos e carteiras de demonstração. Pode ser chamado a cada boot.
func Run(ctx context.Context, svc Service, log *zap.Logger) error {
	for _, req := range DemoContests {
		c, err := svc.CreateContest(ctx, req)
		if err != nil {
			return err
		}
		log.Info("seed contest", zap.String("contestId", c.ID), zap.String("status", string(c.Status)))
	}

	for user, amount := range DemoUsers {
		bal, err := svc.GetBalance(ctx, user)
		if err != nil {
			return err
		}
		if bal > 0 {
			continue
		}
		if _, err := svc.Deposit(ctx, user, amount); err != nil {
			return err
		}
		log.Info("seed wallet", zap.String("userId", user), zap.Int64("amountCents", amount))
	}
	return nil
}
