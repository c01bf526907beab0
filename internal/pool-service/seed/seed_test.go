package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/odds"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/placement"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/repo"
)

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	svc := placement.New(repo.NewMemory(), odds.Default(), placement.DefaultConfig(), log)

	require.NoError(t, Run(ctx, svc, log))
	require.NoError(t, Run(ctx, svc, log))

	for _, c := range DemoContests {
		snap, err := svc.GetContestSnapshot(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ContestOpen, snap.Status)
		assert.Equal(t, int64(0), snap.Version)
	}
	for user, amount := range DemoUsers {
		bal, err := svc.GetBalance(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, amount, bal, user)
	}
}
