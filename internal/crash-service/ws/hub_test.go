package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestInscritoRecebeBroadcast(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	conn := dialHub(t, hub)

	if err := conn.WriteJSON(ClientMsg{Type: "subscribe", Topic: TopicRoundState}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	// a inscrição é processada pela goroutine da conexão; ping/pong
	// serve de barreira antes do broadcast
	_ = conn.WriteJSON(ClientMsg{Type: "ping"})
	var pong map[string]string
	if err := conn.ReadJSON(&pong); err != nil || pong["type"] != "pong" {
		t.Fatalf("pong: %v %v", pong, err)
	}

	payload := json.RawMessage(`{"state":"RUNNING","multiplier":1.42}`)
	hub.Broadcast(TopicRoundState, payload)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var upd Update
	if err := conn.ReadJSON(&upd); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if upd.Topic != TopicRoundState {
		t.Fatalf("topic = %q, quer %q", upd.Topic, TopicRoundState)
	}
	if string(upd.Payload) != string(payload) {
		t.Fatalf("payload = %s", upd.Payload)
	}
	if upd.TsUnixMs == 0 {
		t.Fatal("frame sem timestamp")
	}
}

func TestNaoInscritoNaoRecebe(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	conn := dialHub(t, hub)

	// inscrito em outro topico qualquer
	_ = conn.WriteJSON(ClientMsg{Type: "subscribe", Topic: "outro"})
	_ = conn.WriteJSON(ClientMsg{Type: "ping"})
	var pong map[string]string
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("pong: %v", err)
	}

	hub.Broadcast(TopicRoundState, json.RawMessage(`{"state":"WAITING"}`))

	_ = conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	var upd Update
	if err := conn.ReadJSON(&upd); err == nil {
		t.Fatalf("cliente de outro topico recebeu frame: %+v", upd)
	}
}

func TestUnsubscribeParaDeReceber(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	conn := dialHub(t, hub)

	_ = conn.WriteJSON(ClientMsg{Type: "subscribe", Topic: TopicRoundState})
	_ = conn.WriteJSON(ClientMsg{Type: "unsubscribe", Topic: TopicRoundState})
	_ = conn.WriteJSON(ClientMsg{Type: "ping"})
	var pong map[string]string
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("pong: %v", err)
	}

	hub.Broadcast(TopicRoundState, json.RawMessage(`{"state":"CRASHED"}`))

	_ = conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	var upd Update
	if err := conn.ReadJSON(&upd); err == nil {
		t.Fatalf("cliente desinscrito recebeu frame: %+v", upd)
	}
}
