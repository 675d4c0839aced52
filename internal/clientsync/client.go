package clientsync

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"quizstorm/internal/transport/ws"
)

// Client is a gateway websocket client. It feeds every inbound event to a
// Synchronizer and exposes typed senders for the gateway's message set.
type Client struct {
	conn *websocket.Conn
	sync *Synchronizer

	writeMu sync.Mutex
}

// Dial connects to a gateway websocket endpoint.
func Dial(ctx context.Context, url string, synchronizer *Synchronizer) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, sync: synchronizer}, nil
}

// Run reads events until the connection closes or ctx is cancelled, applying
// each one to the synchronizer. It returns the read error that ended the loop.
func (c *Client) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close()
		case <-done:
		}
	}()

	for {
		var env ws.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return err
		}
		if err := c.sync.Apply(env); err != nil {
			log.Warn().Err(err).Str("type", env.Type).Msg("dropping event")
		}
	}
}

// Close tears down the connection and stops the countdown.
func (c *Client) Close() error {
	c.sync.Countdown().Stop()
	return c.conn.Close()
}

func (c *Client) send(eventType string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(ws.Envelope{Type: eventType, Payload: raw})
}

// CreateRoom asks the gateway to create a room and join it as host.
func (c *Client) CreateRoom(name, mode string) error {
	return c.send(ws.EvtCreateRoom, ws.CreateRoomPayload{Name: name, Mode: mode})
}

// JoinRoom joins an existing room by code.
func (c *Client) JoinRoom(code, name string) error {
	return c.send(ws.EvtJoinRoom, ws.JoinRoomPayload{Code: code, Name: name})
}

// SetSubject proposes the quiz subject for the room.
func (c *Client) SetSubject(code, subject string) error {
	return c.send(ws.EvtSetSubject, ws.SetSubjectPayload{Code: code, Subject: subject})
}

// StartGame starts the game. The gateway rejects it for non-hosts.
func (c *Client) StartGame(code string) error {
	return c.send(ws.EvtStartGame, ws.StartGamePayload{Code: code})
}

// RequestQuestion asks for the pending round's question.
func (c *Client) RequestQuestion(code string, history []string) error {
	return c.send(ws.EvtRequestQuestion, ws.RequestQuestionPayload{Code: code, History: history})
}

// SubmitAnswer submits the player's option choice for the active round.
func (c *Client) SubmitAnswer(code string, selection int) error {
	return c.send(ws.EvtSubmitAnswer, ws.SubmitAnswerPayload{Code: code, Selection: selection})
}

// Continue advances past the reveal. The gateway rejects it for non-hosts.
func (c *Client) Continue(code, action string) error {
	return c.send(ws.EvtPlayerContinue, ws.PlayerContinuePayload{Code: code, Action: action})
}
