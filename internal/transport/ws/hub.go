// Package ws implements the outbox transport adapter (spec.md §6):
// pushing PresenceUpdate/OutputEvent/ContextSnapshot events to the UI
// shell over a websocket and forwarding UiCommand frames back into the
// core's inbox. Grounded on itsneelabh-gomind's
// ui/transports/websocket/websocket.go — the per-client send channel,
// writePump/readPump goroutine pair, and ping/pong keepalive are kept;
// the session/agent-streaming half of that file has no equivalent here
// since this kernel has exactly one outbox, not a per-session chat
// stream.
package ws

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arth-22/nexuscortex/core/intake"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wireEvent is the JSON frame shape pushed to every connected client.
type wireEvent struct {
	Type         string            `json:"type"`
	Presence     string            `json:"presence,omitempty"`
	OutputID     string            `json:"output_id,omitempty"`
	Content      string            `json:"content,omitempty"`
	Status       string            `json:"status,omitempty"`
	ContextItems []wireContextItem `json:"context_items,omitempty"`
	ConsentKey   string            `json:"consent_key,omitempty"`
}

type wireContextItem struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

// wireCommand is the JSON frame shape read back from a client.
type wireCommand struct {
	Kind       string `json:"kind"`
	MicOn      bool   `json:"mic_on,omitempty"`
	ConsentKey string `json:"consent_key,omitempty"`
	Decision   string `json:"decision,omitempty"`
}

// Hub fans OutboundEvent values out to every connected client and
// forwards inbound command frames onto a shared inbox.
type Hub struct {
	logger *slog.Logger
	inbox  intake.Inbox

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub constructs a Hub. inbox is the core's shared inbound channel;
// every client's decoded UiCommand is wrapped as an InboundEvent and
// sent there.
func NewHub(logger *slog.Logger, inbox intake.Inbox) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger, inbox: inbox, clients: make(map[*client]struct{})}
}

// Broadcast pushes ev to every currently connected client, dropping it
// for any client whose send buffer is full rather than blocking the
// core's side-effect runner.
func (h *Hub) Broadcast(ev intake.OutboundEvent) {
	frame := toWireEvent(ev)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("dropping outbound event, client send buffer full")
		}
	}
}

// ServeHTTP upgrades the request to a websocket and registers the new
// client with the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan wireEvent, 64)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

type client struct {
	conn   *websocket.Conn
	send   chan wireEvent
	closed bool
	mu     sync.Mutex
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
		c.conn.Close()
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.removeClient(c)
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.removeClient(c)
		c.close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var cmd wireCommand
		if err := c.conn.ReadJSON(&cmd); err != nil {
			return
		}
		ev, ok := toInboundEvent(cmd)
		if !ok {
			h.logger.Warn("dropping unrecognized ui command", "kind", cmd.Kind)
			continue
		}
		h.inbox <- ev
	}
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func toWireEvent(ev intake.OutboundEvent) wireEvent {
	frame := wireEvent{}
	switch ev.Kind {
	case intake.OutboundPresenceUpdate:
		frame.Type = "presence_update"
		frame.Presence = ev.Presence.String()
	case intake.OutboundOutputEvent:
		frame.Type = "output_event"
		frame.Content = ev.OutputContent
		frame.Status = ev.OutputStatus.String()
	case intake.OutboundContextSnapshot:
		frame.Type = "context_snapshot"
		for _, item := range ev.ContextItems {
			frame.ContextItems = append(frame.ContextItems, wireContextItem{Content: item.Content, Role: item.Role})
		}
	case intake.OutboundAskMemoryConsent:
		frame.Type = "ask_memory_consent"
		frame.ConsentKey = ev.ConsentKey
	case intake.OutboundAccessDenied:
		frame.Type = "access_denied"
	}
	return frame
}

func toInboundEvent(cmd wireCommand) (intake.InboundEvent, bool) {
	switch cmd.Kind {
	case "attach":
		return intake.InboundEvent{Kind: intake.InboundUiCommand, UiCommand: intake.UiCommand{Kind: intake.Attach}}, true
	case "suspend":
		return intake.InboundEvent{Kind: intake.InboundUiCommand, UiCommand: intake.UiCommand{Kind: intake.Suspend}}, true
	case "resume":
		return intake.InboundEvent{Kind: intake.InboundUiCommand, UiCommand: intake.UiCommand{Kind: intake.Resume}}, true
	case "toggle_mic":
		return intake.InboundEvent{Kind: intake.InboundUiCommand, UiCommand: intake.UiCommand{Kind: intake.ToggleMic, MicOn: cmd.MicOn}}, true
	case "consent_resolved":
		decision := intake.ConsentIgnored
		switch cmd.Decision {
		case "granted":
			decision = intake.ConsentGranted
		case "declined":
			decision = intake.ConsentDeclined
		}
		return intake.InboundEvent{Kind: intake.InboundUiCommand, UiCommand: intake.UiCommand{
			Kind: intake.ConsentResolved, ConsentKey: cmd.ConsentKey, Decision: decision,
		}}, true
	default:
		return intake.InboundEvent{}, false
	}
}

