package ws

import "encoding/json"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: subscribe | unsubscribe | ping
// Topic: obrigatório para subscribe/unsubscribe (ex: "round_state")
type ClientMsg struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

// Update é o frame enviado aos clientes inscritos num tópico.
type Update struct {
	Topic    string          `json:"topic"`
	TsUnixMs int64           `json:"ts_unix_ms"`
	Payload  json.RawMessage `json:"payload"`
}
