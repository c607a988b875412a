package rpc

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/curvemkt/curved/internal/core/assetid"
)

// Stream names clients subscribe to.
const (
	StreamTrades      = "trades"
	StreamLaunches    = "launches"
	StreamGraduations = "graduations"
	StreamClaims      = "claims"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512 * 1024
	sendBuffer     = 256
)

// Hub fans engine events out to websocket subscribers and answers
// subscribe/unsubscribe/ping commands. Slow clients never block a
// broadcast; their messages are dropped instead.
type Hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu    sync.RWMutex
	conns map[*wsConn]struct{}
}

type wsConn struct {
	sock *websocket.Conn
	send chan []byte
	done chan struct{}

	mu      sync.RWMutex
	streams map[string]struct{}
	assets  map[assetid.AssetID]struct{}

	closeOnce sync.Once
}

// NewHub returns an empty stream hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log:   log.Named("ws"),
		conns: make(map[*wsConn]struct{}),
	}
}

// ServeHTTP upgrades the request and pumps the connection until it
// drops.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &wsConn{
		sock:    sock,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		streams: make(map[string]struct{}),
		assets:  make(map[assetid.AssetID]struct{}),
	}
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("websocket connected", zap.String("remote", sock.RemoteAddr().String()))

	go h.writePump(c)
	h.readPump(c)
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// CloseAll drops every connection. Used at shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	conns := make([]*wsConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[*wsConn]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}

// streamMessage is the envelope for every pushed event.
type streamMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Broadcast sends event to every subscriber of stream. An asset filter
// on the connection only applies when the event carries a non-zero
// asset id.
func (h *Hub) Broadcast(stream, msgType string, asset assetid.AssetID, event interface{}) {
	data, err := json.Marshal(streamMessage{Type: msgType, Data: event})
	if err != nil {
		h.log.Error("stream message marshal failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns {
		if !c.wants(stream, asset) {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.log.Debug("dropping message for slow websocket client",
				zap.String("stream", stream))
		}
	}
}

func (h *Hub) drop(c *wsConn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	c.close()
}

func (c *wsConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.sock.Close()
	})
}

func (c *wsConn) wants(stream string, asset assetid.AssetID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.streams[stream]; !ok {
		return false
	}
	if len(c.assets) == 0 || asset == (assetid.AssetID{}) {
		return true
	}
	_, ok := c.assets[asset]
	return ok
}

func (h *Hub) readPump(c *wsConn) {
	defer h.drop(c)

	c.sock.SetReadLimit(maxMessageSize)
	c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				h.log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		h.handleCommand(c, data)
	}
}

func (h *Hub) writePump(c *wsConn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.drop(c)
	}()
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// wsCommand is one client request: subscribe, unsubscribe or ping.
type wsCommand struct {
	Command string      `json:"command"`
	ID      interface{} `json:"id,omitempty"`
	Streams []string    `json:"streams,omitempty"`
	Assets  []string    `json:"assets,omitempty"`
}

type wsResponse struct {
	Type   string      `json:"type"`
	ID     interface{} `json:"id,omitempty"`
	Status string      `json:"status"`
	Result interface{} `json:"result,omitempty"`
}

func (h *Hub) handleCommand(c *wsConn, data []byte) {
	var cmd wsCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		h.replyError(c, nil, errParse(err.Error()))
		return
	}
	switch cmd.Command {
	case "subscribe":
		h.subscribe(c, cmd)
	case "unsubscribe":
		h.unsubscribe(c, cmd)
	case "ping":
		h.reply(c, wsResponse{Type: "response", ID: cmd.ID, Status: "success",
			Result: map[string]interface{}{}})
	case "":
		h.replyError(c, cmd.ID, errMissingCommand())
	default:
		h.replyError(c, cmd.ID, errMethodNotFound(cmd.Command))
	}
}

func validStream(s string) bool {
	switch s {
	case StreamTrades, StreamLaunches, StreamGraduations, StreamClaims:
		return true
	}
	return false
}

func parseAssetFilters(hexIDs []string) ([]assetid.AssetID, *Error) {
	ids := make([]assetid.AssetID, 0, len(hexIDs))
	for _, s := range hexIDs {
		id, err := assetid.FromHex(s)
		if err != nil {
			return nil, errInvalidParams("invalid asset id: " + err.Error())
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *Hub) subscribe(c *wsConn, cmd wsCommand) {
	if len(cmd.Streams) == 0 {
		h.replyError(c, cmd.ID, errInvalidParams("streams is required"))
		return
	}
	for _, s := range cmd.Streams {
		if !validStream(s) {
			h.replyError(c, cmd.ID, errInvalidParams("unknown stream: "+s))
			return
		}
	}
	ids, errp := parseAssetFilters(cmd.Assets)
	if errp != nil {
		h.replyError(c, cmd.ID, errp)
		return
	}

	c.mu.Lock()
	for _, s := range cmd.Streams {
		c.streams[s] = struct{}{}
	}
	for _, id := range ids {
		c.assets[id] = struct{}{}
	}
	subscribed := streamNames(c.streams)
	c.mu.Unlock()

	h.reply(c, wsResponse{Type: "response", ID: cmd.ID, Status: "success",
		Result: map[string]interface{}{"streams": subscribed}})
}

// unsubscribe removes the named streams and asset filters. With no
// streams given, it clears the whole subscription.
func (h *Hub) unsubscribe(c *wsConn, cmd wsCommand) {
	ids, errp := parseAssetFilters(cmd.Assets)
	if errp != nil {
		h.replyError(c, cmd.ID, errp)
		return
	}

	c.mu.Lock()
	if len(cmd.Streams) == 0 && len(ids) == 0 {
		c.streams = make(map[string]struct{})
		c.assets = make(map[assetid.AssetID]struct{})
	} else {
		for _, s := range cmd.Streams {
			delete(c.streams, s)
		}
		for _, id := range ids {
			delete(c.assets, id)
		}
	}
	subscribed := streamNames(c.streams)
	c.mu.Unlock()

	h.reply(c, wsResponse{Type: "response", ID: cmd.ID, Status: "success",
		Result: map[string]interface{}{"streams": subscribed}})
}

func streamNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for s := range set {
		names = append(names, s)
	}
	sort.Strings(names)
	return names
}

func (h *Hub) reply(c *wsConn, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.log.Error("websocket response marshal failed", zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
		h.drop(c)
	}
}

func (h *Hub) replyError(c *wsConn, id interface{}, rpcErr *Error) {
	msg := map[string]interface{}{
		"type":          "response",
		"status":        "error",
		"error":         rpcErr.Name,
		"error_code":    rpcErr.Code,
		"error_message": rpcErr.Message,
	}
	if id != nil {
		msg["id"] = id
	}
	h.reply(c, msg)
}
