package ws

import (
	"context"
	"encoding/json"
	"expvar"
	"net/http"
	"strings"
	"time"

	"burn-casino/internal/game"
	"burn-casino/internal/session"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const requestTimeout = 10 * time.Second

var (
	metricWSConnectionsActive = expvar.NewInt("ws_connections_active")
	metricWSMessagesDropped   = expvar.NewInt("ws_messages_dropped_total")
)

type Client struct {
	conn *websocket.Conn
	send chan []byte

	table    *session.Table
	playerID string
	stop     chan struct{}
	stopped  chan struct{}
}

type Server struct {
	mgr      *session.Manager
	upgrader websocket.Upgrader
}

func NewServer(mgr *session.Manager) *Server {
	return &Server{
		mgr:      mgr,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	metricWSConnectionsActive.Add(1)
	client := &Client{conn: conn, send: make(chan []byte, 32)}
	go s.writeLoop(client)
	s.readLoop(client)
}

// readLoop owns c.send: it is the only goroutine that closes it, after the
// forwarder has stopped.
func (s *Server) readLoop(c *Client) {
	defer func() {
		c.detach()
		close(c.send)
		_ = c.conn.Close()
		metricWSConnectionsActive.Add(-1)
	}()
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &base); err != nil {
			continue
		}
		switch base.Type {
		case "join":
			var join JoinMessage
			if err := json.Unmarshal(msg, &join); err != nil {
				continue
			}
			s.handleJoin(c, join)
		case "subscribe":
			var sub SubscribeMessage
			if err := json.Unmarshal(msg, &sub); err != nil {
				continue
			}
			s.handleSubscribe(c, sub)
		case "start":
			s.handleStart(c)
		case "action":
			s.handleAction(c, msg)
		}
	}
}

func (s *Server) writeLoop(c *Client) {
	for msg := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

func (s *Server) handleJoin(c *Client, join JoinMessage) {
	t, err := s.mgr.Get(strings.TrimSpace(join.SessionID))
	if err != nil {
		s.sendJoinResult(c, false, errCode(err), join.SessionID, "")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	p, err := t.Join(ctx, session.JoinRequest{PlayerID: join.PlayerID, Name: join.Name})
	if err != nil {
		s.sendJoinResult(c, false, errCode(err), t.ID(), join.PlayerID)
		return
	}
	log.Info().Str("session_id", t.ID()).Str("player_id", p.ID).Msg("ws player joined")
	s.sendJoinResult(c, true, "", t.ID(), p.ID)
	c.attach(t, p.ID)
}

func (s *Server) handleSubscribe(c *Client, sub SubscribeMessage) {
	t, err := s.mgr.Get(strings.TrimSpace(sub.SessionID))
	if err != nil {
		s.sendJoinResult(c, false, errCode(err), sub.SessionID, "")
		return
	}
	if sub.PlayerID != "" {
		if _, err := t.PlayerView(sub.PlayerID); err != nil {
			s.sendJoinResult(c, false, errCode(err), t.ID(), sub.PlayerID)
			return
		}
	}
	s.sendJoinResult(c, true, "", t.ID(), sub.PlayerID)
	c.attach(t, sub.PlayerID)
}

func (s *Server) handleStart(c *Client) {
	if c.table == nil {
		s.sendActionResult(c, "", false, "session_not_found", nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := c.table.Start(ctx); err != nil {
		s.sendActionResult(c, "", false, errCode(err), nil)
		return
	}
	s.sendActionResult(c, "", true, "", nil)
}

func (s *Server) handleAction(c *Client, msg []byte) {
	var action ActionMessage
	if err := json.Unmarshal(msg, &action); err != nil {
		s.sendActionResult(c, "", false, "invalid_json", nil)
		return
	}
	if c.table == nil || c.playerID == "" {
		s.sendActionResult(c, action.RequestID, false, "player_not_found", nil)
		return
	}
	cards, err := session.ParseCards(action.Cards)
	if err != nil {
		s.sendActionResult(c, action.RequestID, false, errCode(err), nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	res, err := c.table.Submit(ctx, session.ActionRequest{
		RequestID: action.RequestID,
		PlayerID:  c.playerID,
		Kind:      session.ActionKind(action.Kind),
		Action:    game.ActionType(action.Action),
		Cards:     cards,
	})
	if err != nil {
		var result *session.ActionResult
		if res.Reason != "" {
			result = &res
		}
		s.sendActionResult(c, action.RequestID, false, errCode(err), result)
		return
	}
	s.sendActionResult(c, action.RequestID, true, "", &res)
}

func errCode(err error) string {
	_, code := session.MapError(err)
	return code
}

func (s *Server) sendJoinResult(c *Client, ok bool, code, sessionID, playerID string) {
	msg, _ := json.Marshal(JoinResult{
		Type:            "join_result",
		ProtocolVersion: ProtocolVersion,
		Ok:              ok,
		Error:           code,
		SessionID:       sessionID,
		PlayerID:        playerID,
	})
	c.send <- msg
}

func (s *Server) sendActionResult(c *Client, requestID string, ok bool, code string, res *session.ActionResult) {
	msg, _ := json.Marshal(ActionResult{
		Type:            "action_result",
		ProtocolVersion: ProtocolVersion,
		RequestID:       requestID,
		Ok:              ok,
		Error:           code,
		Result:          res,
	})
	c.send <- msg
}

// attach points the client's state stream at t, replacing any previous one.
func (c *Client) attach(t *session.Table, playerID string) {
	c.detach()
	c.table = t
	c.playerID = playerID
	c.stop = make(chan struct{})
	c.stopped = make(chan struct{})
	go c.forward(t, playerID, c.stop, c.stopped)
}

func (c *Client) detach() {
	if c.stop == nil {
		return
	}
	close(c.stop)
	<-c.stopped
	c.stop, c.stopped = nil, nil
}

func (c *Client) forward(t *session.Table, playerID string, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	buf := t.Buffer()
	ch, cancel := buf.Watch()
	defer cancel()

	if !c.push(stop, c.stateUpdate(t, playerID, "snapshot", "")) {
		return
	}
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-ch:
			if !ok {
				msg, _ := json.Marshal(SessionClosed{Type: "session_closed", ProtocolVersion: ProtocolVersion, SessionID: t.ID()})
				c.push(stop, msg)
				return
			}
			if !c.push(stop, c.stateUpdate(t, playerID, ev.Event, ev.EventID)) {
				return
			}
		}
	}
}

func (c *Client) push(stop <-chan struct{}, msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	case <-stop:
		metricWSMessagesDropped.Add(1)
		return false
	}
}

func (c *Client) stateUpdate(t *session.Table, playerID, event, eventID string) []byte {
	var state any = t.PublicView()
	if playerID != "" {
		if view, err := t.PlayerView(playerID); err == nil {
			state = view
		}
	}
	msg, _ := json.Marshal(StateUpdate{
		Type:            "state_update",
		ProtocolVersion: ProtocolVersion,
		Event:           event,
		EventID:         eventID,
		State:           state,
	})
	return msg
}
