package broadcast

import (
	"context"
	"sync"

	"github.com/radieske/wrestlebet-pool-engine/internal/pool-service/domain"
	"github.com/radieske/wrestlebet-pool-engine/pkg/contracts/events"
)

// Channel distribui snapshots para assinantes do processo, por confronto.
// Entrega é best-effort: quem perder uma atualização consulta o store.
type Channel struct {
	mu   sync.RWMutex
	subs map[string]map[uint64]*Subscription
	next uint64
}

func NewChannel() *Channel {
	return &Channel{subs: make(map[string]map[uint64]*Subscription)}
}

// Subscription é o registro de um callback em um confronto.
// Cada assinatura guarda a última versão aplicada e descarta versões iguais ou menores.
type Subscription struct {
	id        uint64
	contestID string
	ch        *Channel
	onUpdate  func(events.ContestSnapshot)

	mu      sync.Mutex
	applied bool
	last    int64
}

// Subscribe registra onUpdate para as atualizações de contestID
func (c *Channel) Subscribe(contestID string, onUpdate func(events.ContestSnapshot)) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	s := &Subscription{id: c.next, contestID: contestID, ch: c, onUpdate: onUpdate}
	if c.subs[contestID] == nil {
		c.subs[contestID] = make(map[uint64]*Subscription)
	}
	c.subs[contestID][s.id] = s
	return s
}

// Unsubscribe remove esta assinatura; chamadas repetidas são ignoradas
func (s *Subscription) Unsubscribe() {
	c := s.ch
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.subs[s.contestID]; ok {
		delete(m, s.id)
		if len(m) == 0 {
			delete(c.subs, s.contestID)
		}
	}
}

// UnsubscribeAll remove todas as assinaturas de contestID
func (c *Channel) UnsubscribeAll(contestID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, contestID)
}

// ContestID é o confronto assinado
func (s *Subscription) ContestID() string { return s.contestID }

// LastVersion retorna a última versão aplicada (ok=false se nenhuma)
func (s *Subscription) LastVersion() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.applied
}

// Offer entrega ev ao callback se a versão for maior que a última aplicada.
// Retorna false quando o snapshot foi descartado.
func (s *Subscription) Offer(ev events.ContestSnapshot) bool {
	if ev.ContestID != s.contestID {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applied && ev.Version <= s.last {
		return false
	}
	s.applied, s.last = true, ev.Version
	// callback sob o lock: uma versão antiga nunca ultrapassa uma nova
	s.onUpdate(ev)
	return true
}

// Deliver repassa ev a todos os assinantes do confronto
func (c *Channel) Deliver(ev events.ContestSnapshot) {
	c.mu.RLock()
	subs := make([]*Subscription, 0, len(c.subs[ev.ContestID]))
	for _, s := range c.subs[ev.ContestID] {
		subs = append(subs, s)
	}
	c.mu.RUnlock()

	for _, s := range subs {
		s.Offer(ev)
	}
}

// Subscribers conta as assinaturas ativas de contestID
func (c *Channel) Subscribers(contestID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs[contestID])
}

// PublishSnapshot entrega direto no processo, sem Redis
func (c *Channel) PublishSnapshot(_ context.Context, snap domain.Snapshot) error {
	c.Deliver(ToEvent(snap))
	return nil
}
