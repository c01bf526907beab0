package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/broadcast"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/odds"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/placement"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/repo"
)

func setup(t *testing.T) (*placement.Service, *Hub, *websocket.Conn) {
	t.Helper()
	log := zaptest.NewLogger(t)
	ch := broadcast.NewChannel()
	cfg := placement.DefaultConfig()
	cfg.MinStakeCents = 1
	svc := placement.New(repo.NewMemory(), odds.Default(), cfg, log, placement.WithSnapshotPublisher(ch))

	_, err := svc.CreateContest(context.Background(), placement.CreateContestRequest{
		ID: "c1", ContestantA: "A", ContestantB: "B", Status: domain.ContestOpen,
	})
	require.NoError(t, err)
	_, err = svc.Deposit(context.Background(), "u1", 1000)
	require.NoError(t, err)

	hub := NewHub(ch, svc, log, AllowOrigins([]string{"*"}))
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return svc, hub, conn
}

func read(t *testing.T, conn *websocket.Conn) ServerMsg {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ServerMsg
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_SubscribeReceivesCurrentThenLiveSnapshots(t *testing.T) {
	svc, _, conn := setup(t)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", ContestID: "c1"}))
	msg := read(t, conn)
	require.Equal(t, "snapshot", msg.Type)
	assert.Equal(t, int64(0), msg.Snapshot.Version)
	assert.Equal(t, "2.00", msg.Snapshot.OddsA)

	_, err := svc.PlaceWager(context.Background(), placement.PlaceWagerRequest{
		UserID: "u1", ContestID: "c1", Choice: "A", AmountCents: 50,
	})
	require.NoError(t, err)

	msg = read(t, conn)
	require.Equal(t, "snapshot", msg.Type)
	assert.Equal(t, int64(1), msg.Snapshot.Version)
	assert.Equal(t, int64(50), msg.Snapshot.PoolA)
	assert.Equal(t, 100, msg.Snapshot.SentimentA)
}

func TestHub_PingAndErrors(t *testing.T) {
	_, _, conn := setup(t)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "ping"}))
	assert.Equal(t, "pong", read(t, conn).Type)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", ContestID: "missing"}))
	msg := read(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "CONTEST_NOT_FOUND", msg.Error)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "dance"}))
	assert.Equal(t, "error", read(t, conn).Type)
}

func TestHub_DisconnectRemovesSubscriptions(t *testing.T) {
	_, hub, conn := setup(t)

	require.NoError(t, conn.WriteJSON(ClientMsg{Type: "subscribe", ContestID: "c1"}))
	read(t, conn)
	assert.Equal(t, 1, hub.channel.Subscribers("c1"))

	conn.Close()
	assert.Eventually(t, func() bool {
		return hub.channel.Subscribers("c1") == 0 && hub.Clients() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAllowOrigins(t *testing.T) {
	check := AllowOrigins([]string{"https://app.example"})

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://app.example")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(r))
}
