package placement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContestLocks(t *testing.T) {
	l := newContestLocks()

	unlockA, err := l.acquire(context.Background(), "a")
	require.NoError(t, err)

	// outro confronto não espera
	unlockB, err := l.acquire(context.Background(), "b")
	require.NoError(t, err)
	unlockB()

	// mesmo confronto espera até o prazo
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.acquire(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlockA()
	assert.Equal(t, 0, l.size())

	unlockA, err = l.acquire(context.Background(), "a")
	require.NoError(t, err)
	unlockA()
}
