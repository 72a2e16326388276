package livefeed

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/yatra-gate/backend/internal/scan"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60

	// EventScan carries one scan.Event.
	EventScan = "scan"
)

// Publisher publishes feed events for other API instances.
type Publisher interface {
	PublishGateEvent(gate, event string, payload []byte) error
}

// Subscriber delivers feed events published by any instance.
type Subscriber interface {
	SubscribeGate(gate string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains gate -> set of dashboard connections. With Redis configured,
// scans are published there and every instance (this one included) fans them
// out from its subscription.
type Hub struct {
	gates    map[string]map[string]*Client
	subs     map[string]func()
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    Publisher
	redisSub Subscriber
}

// NewHub creates a live feed hub. Both Redis sides may be nil for a single
// instance.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		gates:    make(map[string]map[string]*Client),
		subs:     make(map[string]func()),
		logger:   logger,
		redis:    pub,
		redisSub: sub,
	}
}

// Register adds a client to its gate. The first watcher of a gate starts the
// Redis subscription.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.gates[c.Gate] == nil {
		h.gates[c.Gate] = make(map[string]*Client)
		if h.redisSub != nil {
			gate := c.Gate
			cancel, err := h.redisSub.SubscribeGate(gate, func(event string, payload []byte) {
				h.Broadcast(gate, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Warn("feed subscribe failed", zap.String("gate", gate), zap.Error(err))
			} else {
				h.subs[gate] = cancel
			}
		}
	}
	h.gates[c.Gate][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("dashboard joined feed", zap.String("client_id", c.ID), zap.String("gate", c.Gate))
}

// Unregister removes a client. The last watcher of a gate cancels the
// subscription.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.gates[c.Gate]; ok {
		if _, present := m[c.ID]; present {
			delete(m, c.ID)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.gates, c.Gate)
			if cancel, ok := h.subs[c.Gate]; ok {
				cancel()
				delete(h.subs, c.Gate)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("dashboard left feed", zap.String("client_id", c.ID), zap.String("gate", c.Gate))
}

// Broadcast sends a message to local watchers of a gate.
func (h *Hub) Broadcast(gate, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return
		}
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.gates[gate] {
		select {
		case c.send <- msg:
		default:
			// slow dashboard, drop
		}
	}
}

// PublishScan fans a scan out to the gate's dashboards.
func (h *Hub) PublishScan(ev scan.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if h.redis != nil {
		if err := h.redis.PublishGateEvent(ev.Station.Gate, EventScan, data); err == nil {
			return
		}
		h.logger.Warn("feed publish failed, delivering locally", zap.String("gate", ev.Station.Gate))
	}
	h.Broadcast(ev.Station.Gate, EventScan, json.RawMessage(data))
}

// Watchers returns the number of local dashboards on a gate.
func (h *Hub) Watchers(gate string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.gates[gate])
}
