package ws

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"quizstorm/internal/model"
	"quizstorm/internal/service"
)

// Gateway routes inbound client events to the owning room session and rolls
// a disconnect into an implicit leave. It holds the registry by injection;
// there is no global room table.
type Gateway struct {
	registry *service.Registry
	hub      *Hub
}

// NewGateway creates a gateway over the given registry and hub.
func NewGateway(registry *service.Registry, hub *Hub) *Gateway {
	return &Gateway{registry: registry, hub: hub}
}

// HandleMessage dispatches one inbound event from a connection.
func (g *Gateway) HandleMessage(c *Connection, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		g.sendError(c, "malformed event")
		return
	}

	switch env.Type {
	case EvtCreateRoom:
		g.handleCreateRoom(c, env.Payload)
	case EvtJoinRoom:
		g.handleJoinRoom(c, env.Payload)
	case EvtSetSubject:
		var p SetSubjectPayload
		g.withSession(c, env.Payload, &p, func(sess *service.RoomSession) error {
			return sess.SetSubject(c.ID, p.Subject)
		})
	case EvtStartGame:
		var p StartGamePayload
		g.withSession(c, env.Payload, &p, func(sess *service.RoomSession) error {
			return sess.Start(c.ID)
		})
	case EvtRequestQuestion:
		var p RequestQuestionPayload
		g.withSession(c, env.Payload, &p, func(sess *service.RoomSession) error {
			sess.RequestQuestion(c.ID, p.History)
			return nil
		})
	case EvtSubmitAnswer:
		var p SubmitAnswerPayload
		g.withSession(c, env.Payload, &p, func(sess *service.RoomSession) error {
			// Protocol misuse here is ignored, not errored: duplicate and
			// late submissions are expected from retrying clients.
			sess.SubmitAnswer(c.ID, p.Selection)
			return nil
		})
	case EvtPlayerContinue:
		var p PlayerContinuePayload
		g.withSession(c, env.Payload, &p, func(sess *service.RoomSession) error {
			return sess.Continue(c.ID)
		})
	default:
		g.sendError(c, "unknown event type")
	}
}

// HandleDisconnect treats a dropped connection as an implicit leave. The
// handler invokes it exactly once per connection, before the hub forgets the
// room mapping.
func (g *Gateway) HandleDisconnect(c *Connection) {
	if c.RoomCode == "" || c.ID == "" {
		return
	}
	if sess, ok := g.registry.Get(c.RoomCode); ok {
		if empty := sess.Leave(c.ID); empty {
			g.registry.Remove(c.RoomCode)
		}
	}
}

func (g *Gateway) handleCreateRoom(c *Connection, payload json.RawMessage) {
	var p CreateRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Name == "" {
		g.sendError(c, "create-room needs a player name")
		return
	}
	if c.RoomCode != "" {
		g.sendError(c, "already in a room")
		return
	}

	sess, err := g.registry.CreateRoom(model.Mode(p.Mode))
	if err != nil {
		g.sendError(c, err.Error())
		return
	}

	g.bind(c, sess.Code(), p.Name)
	if err := sess.Join(c.ID, p.Name); err != nil {
		g.unbind(c)
		g.registry.Remove(sess.Code())
		g.sendError(c, err.Error())
		return
	}
	g.hub.ToPlayer(sess.Code(), c.ID, service.EvtRoomCreated, service.RoomCreatedPayload{
		Code: sess.Code(),
		Name: p.Name,
		Mode: sess.Mode(),
	})
}

func (g *Gateway) handleJoinRoom(c *Connection, payload json.RawMessage) {
	var p JoinRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.Name == "" || p.Code == "" {
		g.sendError(c, "join-room needs a room code and a player name")
		return
	}
	if c.RoomCode != "" {
		g.sendError(c, "already in a room")
		return
	}

	sess, ok := g.registry.Get(p.Code)
	if !ok {
		g.sendError(c, service.ErrRoomNotFound.Error())
		return
	}

	g.bind(c, sess.Code(), p.Name)
	if err := sess.Join(c.ID, p.Name); err != nil {
		g.unbind(c)
		g.sendError(c, err.Error())
		return
	}
}

// withSession resolves the room an event addresses and runs the action
// against it, reporting failures back to the sender only.
func (g *Gateway) withSession(c *Connection, payload json.RawMessage, p interface{}, action func(*service.RoomSession) error) {
	if payload != nil {
		if err := json.Unmarshal(payload, p); err != nil {
			g.sendError(c, "malformed event payload")
			return
		}
	}
	if c.RoomCode == "" {
		g.sendError(c, "join a room first")
		return
	}
	if code := payloadCode(p); code != "" && !strings.EqualFold(code, c.RoomCode) {
		g.sendError(c, service.ErrRoomNotFound.Error())
		return
	}

	sess, ok := g.registry.Get(c.RoomCode)
	if !ok {
		g.sendError(c, service.ErrRoomNotFound.Error())
		return
	}
	if err := action(sess); err != nil {
		g.sendError(c, err.Error())
	}
}

// bind attaches the connection to a room under a fresh identity and makes it
// visible to broadcasts. Registration is synchronous so the join broadcast
// that follows cannot outrun it.
func (g *Gateway) bind(c *Connection, code, name string) {
	c.ID = "p_" + uuid.New().String()[:8]
	c.Name = name
	c.RoomCode = code
	g.hub.Register(c)
	c.registered = true
}

func (g *Gateway) unbind(c *Connection) {
	g.hub.Detach(c)
	c.ID = ""
	c.Name = ""
	c.RoomCode = ""
	c.registered = false
}

func (g *Gateway) sendError(c *Connection, message string) {
	data, err := marshalEnvelope(service.EvtError, service.ErrorPayload{Message: message})
	if err != nil {
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Warn().Msg("dropping error event, send buffer full")
	}
}

// payloadCode extracts the room code an inbound payload addresses, if any.
func payloadCode(p interface{}) string {
	switch v := p.(type) {
	case *SetSubjectPayload:
		return v.Code
	case *StartGamePayload:
		return v.Code
	case *RequestQuestionPayload:
		return v.Code
	case *SubmitAnswerPayload:
		return v.Code
	case *PlayerContinuePayload:
		return v.Code
	}
	return ""
}
