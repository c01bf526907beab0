package ws

import "github.com/radieske/wrestlebet-pool-engine/pkg/contracts/events"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// ContestID: obrigatório para subscribe/unsubscribe
type ClientMsg struct {
	Type      string `json:"type"`
	ContestID string `json:"contestId"`
}

// ServerMsg é o que o hub envia ao cliente
// Type: snapshot | pong | error
type ServerMsg struct {
	Type      string                  `json:"type"`
	ContestID string                  `json:"contestId,omitempty"`
	Snapshot  *events.ContestSnapshot `json:"snapshot,omitempty"`
	Error     string                  `json:"error,omitempty"`
}
