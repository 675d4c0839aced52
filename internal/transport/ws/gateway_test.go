package ws

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"quizstorm/internal/model"
	"quizstorm/internal/service"
)

type fixedSource struct{}

func (fixedSource) Generate(ctx context.Context, subject string, history []string) (*model.Question, error) {
	return &model.Question{
		Raw:          "<question>Pick x</question>\n<option>w</option>\n<option>x</option>\n<answer>1</answer>",
		Text:         "Pick x",
		Options:      []string{"w", "x"},
		CorrectIndex: 1,
	}, nil
}

func newGatewayFixture() (*Gateway, *service.Registry) {
	hub := NewHub()
	registry := service.NewRegistry(service.Deps{
		Source:      fixedSource{},
		Broadcaster: hub,
		Round:       30 * time.Second,
		Grace:       time.Second,
	})
	return NewGateway(registry, hub), registry
}

func inbound(t *testing.T, eventType string, payload interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	data, err := json.Marshal(Envelope{Type: eventType, Payload: body})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return data
}

// recvType reads events until one of the wanted type arrives.
func recvType(t *testing.T, c *Connection, want string) Envelope {
	t.Helper()
	for i := 0; i < 10; i++ {
		env := recvEnvelope(t, c)
		if env.Type == want {
			return env
		}
	}
	t.Fatalf("event %q never arrived", want)
	return Envelope{}
}

func createRoom(t *testing.T, g *Gateway, name, mode string) (*Connection, string) {
	t.Helper()
	c := NewConnection()
	g.HandleMessage(c, inbound(t, EvtCreateRoom, CreateRoomPayload{Name: name, Mode: mode}))

	env := recvType(t, c, service.EvtRoomCreated)
	var p service.RoomCreatedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("unmarshal room-created: %v", err)
	}
	return c, p.Code
}

func TestCreateRoomBindsAndAcknowledges(t *testing.T) {
	g, registry := newGatewayFixture()

	c, code := createRoom(t, g, "ada", "collab")
	if len(code) != 6 {
		t.Errorf("room code = %q", code)
	}
	if c.RoomCode != code || c.ID == "" || !c.registered {
		t.Errorf("connection not bound: %+v", c)
	}
	if _, ok := registry.Get(code); !ok {
		t.Error("room not in registry")
	}
}

func TestCreateRoomRequiresName(t *testing.T) {
	g, _ := newGatewayFixture()
	c := NewConnection()

	g.HandleMessage(c, inbound(t, EvtCreateRoom, CreateRoomPayload{Mode: "collab"}))

	if env := recvEnvelope(t, c); env.Type != service.EvtError {
		t.Errorf("type = %q, want error", env.Type)
	}
	if c.RoomCode != "" {
		t.Error("failed create left the connection bound")
	}
}

func TestCreateRoomRejectsInvalidMode(t *testing.T) {
	g, registry := newGatewayFixture()
	c := NewConnection()

	g.HandleMessage(c, inbound(t, EvtCreateRoom, CreateRoomPayload{Name: "ada", Mode: "speedrun"}))

	if env := recvEnvelope(t, c); env.Type != service.EvtError {
		t.Errorf("type = %q, want error", env.Type)
	}
	if registry.Count() != 0 {
		t.Error("invalid mode still created a room")
	}
}

func TestJoinRoomCaseInsensitive(t *testing.T) {
	g, _ := newGatewayFixture()
	host, code := createRoom(t, g, "ada", "compete")

	joiner := NewConnection()
	g.HandleMessage(joiner, inbound(t, EvtJoinRoom, JoinRoomPayload{Code: strings.ToLower(code), Name: "grace"}))

	env := recvType(t, joiner, service.EvtPlayerJoined)
	var p service.PlayerJoinedPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(p.Players) != 2 {
		t.Errorf("roster = %+v", p.Players)
	}

	// The host hears about the join too.
	recvType(t, host, service.EvtPlayerJoined)
}

func TestJoinUnknownRoom(t *testing.T) {
	g, _ := newGatewayFixture()
	c := NewConnection()

	g.HandleMessage(c, inbound(t, EvtJoinRoom, JoinRoomPayload{Code: "NOSUCH", Name: "grace"}))

	if env := recvEnvelope(t, c); env.Type != service.EvtError {
		t.Errorf("type = %q, want error", env.Type)
	}
}

func TestEventBeforeJoiningRejected(t *testing.T) {
	g, _ := newGatewayFixture()
	c := NewConnection()

	g.HandleMessage(c, inbound(t, EvtSetSubject, SetSubjectPayload{Subject: "math"}))

	env := recvEnvelope(t, c)
	if env.Type != service.EvtError {
		t.Fatalf("type = %q, want error", env.Type)
	}
	var p service.ErrorPayload
	json.Unmarshal(env.Payload, &p)
	if p.Message != "join a room first" {
		t.Errorf("message = %q", p.Message)
	}
}

func TestEventForForeignRoomRejected(t *testing.T) {
	g, _ := newGatewayFixture()
	c, _ := createRoom(t, g, "ada", "collab")

	g.HandleMessage(c, inbound(t, EvtSetSubject, SetSubjectPayload{Code: "OTHER1", Subject: "math"}))

	if env := recvEnvelope(t, c); env.Type != service.EvtError {
		t.Errorf("type = %q, want error", env.Type)
	}
}

func TestUnknownEventTypeRejected(t *testing.T) {
	g, _ := newGatewayFixture()
	c := NewConnection()

	g.HandleMessage(c, inbound(t, "warp-speed", struct{}{}))

	if env := recvEnvelope(t, c); env.Type != service.EvtError {
		t.Errorf("type = %q, want error", env.Type)
	}
}

func TestMalformedJSONRejected(t *testing.T) {
	g, _ := newGatewayFixture()
	c := NewConnection()

	g.HandleMessage(c, []byte("{not json"))

	if env := recvEnvelope(t, c); env.Type != service.EvtError {
		t.Errorf("type = %q, want error", env.Type)
	}
}

func TestGameFlowOverGateway(t *testing.T) {
	g, _ := newGatewayFixture()
	c, code := createRoom(t, g, "ada", "collab")

	g.HandleMessage(c, inbound(t, EvtSetSubject, SetSubjectPayload{Code: code, Subject: "astronomy"}))
	g.HandleMessage(c, inbound(t, EvtStartGame, StartGamePayload{Code: code}))

	recvType(t, c, service.EvtGameStarted)
	env := recvType(t, c, service.EvtNewQuestion)
	var q service.NewQuestionPayload
	if err := json.Unmarshal(env.Payload, &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if q.Level != 0 || q.Question == "" {
		t.Errorf("question payload = %+v", q)
	}

	g.HandleMessage(c, inbound(t, EvtSubmitAnswer, SubmitAnswerPayload{Code: code, Selection: 1}))
	env = recvType(t, c, service.EvtRevealAnswers)
	var reveal service.RevealPayload
	if err := json.Unmarshal(env.Payload, &reveal); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if reveal.CorrectIndex != 1 || len(reveal.Answers) != 1 || !reveal.Answers[0].Correct {
		t.Errorf("reveal = %+v", reveal)
	}
}

func TestDisconnectActsAsLeave(t *testing.T) {
	g, registry := newGatewayFixture()
	host, code := createRoom(t, g, "ada", "compete")

	joiner := NewConnection()
	g.HandleMessage(joiner, inbound(t, EvtJoinRoom, JoinRoomPayload{Code: code, Name: "grace"}))
	recvType(t, joiner, service.EvtPlayerJoined)

	g.HandleDisconnect(host)
	env := recvType(t, joiner, service.EvtPlayerLeft)
	var p service.PlayerLeftPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(p.Players) != 1 || !p.Players[0].Host {
		t.Errorf("roster after disconnect = %+v, want grace promoted", p.Players)
	}

	g.HandleDisconnect(joiner)
	if _, ok := registry.Get(code); ok {
		t.Error("empty room still registered after last disconnect")
	}
}

func TestDisconnectOfUnboundConnectionIsNoop(t *testing.T) {
	g, _ := newGatewayFixture()
	g.HandleDisconnect(NewConnection())
}
