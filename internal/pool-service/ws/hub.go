package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/broadcast"
	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
	"github.com/radieske/wrestlebet-pool-engine/pkg/contracts/events"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

// SnapshotSource lê o estado atual de um confronto direto do store
type SnapshotSource interface {
	GetContestSnapshot(ctx context.Context, contestID string) (domain.Snapshot, error)
}

// Hub gerencia conexões WebSocket e as assinaturas de cada uma no Channel
type Hub struct {
	upgrader websocket.Upgrader
	channel  *broadcast.Channel
	source   SnapshotSource
	log      *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(ch *broadcast.Channel, src SnapshotSource, log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		channel:  ch,
		source:   src,
		log:      log,
		clients:  make(map[*client]struct{}),
	}
}

// AllowOrigins monta o CheckOrigin a partir de uma lista ("*" libera tudo)
func AllowOrigins(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// client é uma conexão; só a goroutine writePump escreve no socket
type client struct {
	conn *websocket.Conn
	send chan []byte
	subs map[string]*broadcast.Subscription // só acessado pela goroutine de leitura

	closeOnce sync.Once
	done      chan struct{}
}

// enqueue não bloqueia: cliente lento perde atualizações e pode reconsultar o snapshot
func (c *client) enqueue(msg ServerMsg) {
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case <-c.done:
	case c.send <- b:
	default:
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Clients conta as conexões abertas
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Permite subscribe/unsubscribe em confrontos e responde a pings
// Cada cliente pode se inscrever em vários confrontos
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		subs: make(map[string]*broadcast.Subscription),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	h.readPump(r.Context(), c)

	// Remove a conexão de todas as assinaturas ao desconectar
	for _, s := range c.subs {
		s.Unsubscribe()
	}
	c.close()
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *Hub) readPump(ctx context.Context, c *client) {
	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMsg
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "subscribe":
			h.subscribe(ctx, c, msg.ContestID)
		case "unsubscribe":
			if s, ok := c.subs[msg.ContestID]; ok {
				s.Unsubscribe()
				delete(c.subs, msg.ContestID)
			}
		case "ping":
			c.enqueue(ServerMsg{Type: "pong"})
		default:
			c.enqueue(ServerMsg{Type: "error", Error: "unknown message type"})
		}
	}
}

// subscribe registra o cliente e envia o snapshot atual do store, passando pelo
// mesmo filtro de versão das atualizações ao vivo
func (h *Hub) subscribe(ctx context.Context, c *client, contestID string) {
	if contestID == "" {
		c.enqueue(ServerMsg{Type: "error", Error: "contestId required"})
		return
	}
	if _, ok := c.subs[contestID]; ok {
		return
	}

	sub := h.channel.Subscribe(contestID, func(ev events.ContestSnapshot) {
		c.enqueue(ServerMsg{Type: "snapshot", ContestID: ev.ContestID, Snapshot: &ev})
	})
	c.subs[contestID] = sub

	snap, err := h.source.GetContestSnapshot(ctx, contestID)
	if err != nil {
		h.log.Debug("ws initial snapshot", zap.String("contestId", contestID), zap.Error(err))
		sub.Unsubscribe()
		delete(c.subs, contestID)
		c.enqueue(ServerMsg{Type: "error", ContestID: contestID, Error: string(domain.KindOf(err))})
		return
	}
	sub.Offer(broadcast.ToEvent(snap))
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
