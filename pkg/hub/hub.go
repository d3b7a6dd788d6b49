package hub

import (
	"context"
	"sync"
	"time"

	"github.com/deckhand-io/deckhand/pkg/log"
	"github.com/deckhand-io/deckhand/pkg/metrics"
	"github.com/deckhand-io/deckhand/pkg/monitor"
	"github.com/deckhand-io/deckhand/pkg/tracker"
	"github.com/deckhand-io/deckhand/pkg/types"
	"github.com/rs/zerolog"
)

// connection is one live viewer session. Events are delivered over a
// buffered channel; a full buffer drops the event rather than blocking
// the broadcaster. Sends and close are serialized so the initial-state
// push cannot race a disconnect.
type connection struct {
	id string

	mu     sync.Mutex
	ch     chan *types.Event
	closed bool
}

func (c *connection) send(event *types.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.ch <- event:
	default:
		// Connection buffer full, skip
	}
}

func (c *connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.ch)
	}
}

// Hub fans live state out to an unbounded set of connected viewers. It
// owns the connection registry and per-job rooms, runs the periodic
// publishing loops and streams job logs into rooms as the tracker
// appends them.
type Hub struct {
	source  monitor.Source
	tracker *tracker.Tracker
	logger  zerolog.Logger

	mu    sync.RWMutex
	conns map[string]*connection
	rooms map[string]map[string]*connection

	pubMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	cfg Config
}

// Config holds the publishing loop intervals. After an error tick a loop
// waits for the longer retry interval before returning to its normal
// schedule.
type Config struct {
	SystemInterval     time.Duration
	SystemRetry        time.Duration
	DeploymentInterval time.Duration
	DeploymentRetry    time.Duration
	ContainerInterval  time.Duration
	ContainerRetry     time.Duration
}

// DefaultConfig returns the reference publishing schedule
func DefaultConfig() Config {
	return Config{
		SystemInterval:     5 * time.Second,
		SystemRetry:        10 * time.Second,
		DeploymentInterval: 10 * time.Second,
		DeploymentRetry:    15 * time.Second,
		ContainerInterval:  15 * time.Second,
		ContainerRetry:     20 * time.Second,
	}
}

// New creates a broadcast hub reading snapshots from the given source.
// The hub registers itself as the tracker's status listener so every job
// transition is broadcast to all viewers.
func New(source monitor.Source, trk *tracker.Tracker, cfg Config) *Hub {
	h := &Hub{
		source:  source,
		tracker: trk,
		logger:  log.WithComponent("hub"),
		conns:   make(map[string]*connection),
		rooms:   make(map[string]map[string]*connection),
		cfg:     cfg,
	}
	trk.OnStatusChange(h.onStatusUpdate)
	return h
}

// Attach registers a connection and returns its event channel. The
// current system status and deployment metrics are pushed to this
// connection only, without waiting for the next scheduled tick.
func (h *Hub) Attach(connID string) <-chan *types.Event {
	conn := &connection{
		id: connID,
		ch: make(chan *types.Event, 64),
	}

	h.mu.Lock()
	h.conns[connID] = conn
	count := len(h.conns)
	h.mu.Unlock()

	metrics.ConnectionsActive.Set(float64(count))
	h.logger.Info().Str("connection_id", connID).Int("connections", count).Msg("viewer connected")

	// Initial snapshots must not delay registration
	go h.pushInitialState(conn)

	return conn.ch
}

// Detach removes the connection and all its room memberships
func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if ok {
		delete(h.conns, connID)
		for jobID, room := range h.rooms {
			delete(room, connID)
			if len(room) == 0 {
				delete(h.rooms, jobID)
			}
		}
	}
	count := len(h.conns)
	h.mu.Unlock()

	if !ok {
		return
	}
	conn.close()

	metrics.ConnectionsActive.Set(float64(count))
	h.logger.Info().Str("connection_id", connID).Int("connections", count).Msg("viewer disconnected")
}

// Subscribe adds the connection to the job's room. Rooms are created
// lazily; subscribing twice is a no-op.
func (h *Hub) Subscribe(connID, jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return
	}

	room, ok := h.rooms[jobID]
	if !ok {
		room = make(map[string]*connection)
		h.rooms[jobID] = room
	}
	room[connID] = conn
}

// Unsubscribe removes the connection from the job's room. Leaving a room
// the connection is not in is a no-op, not an error.
func (h *Hub) Unsubscribe(connID, jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[jobID]
	if !ok {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(h.rooms, jobID)
	}
}

// ConnectionCount returns the number of active connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// RoomMembers returns the connection IDs subscribed to the job's room
func (h *Hub) RoomMembers(jobID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := make([]string, 0, len(h.rooms[jobID]))
	for connID := range h.rooms[jobID] {
		members = append(members, connID)
	}
	return members
}

// Notify broadcasts an out-of-band notification to all connections,
// independent of the periodic loops
func (h *Hub) Notify(kind, title, message, severity string) {
	h.broadcast(newEvent(types.EventNotification, types.Notification{
		Kind:      kind,
		Title:     title,
		Message:   message,
		Severity:  severity,
		Timestamp: time.Now(),
	}))
	h.logger.Info().Str("title", title).Str("severity", severity).Msg("notification sent")
}

// StreamJobLogs pushes the job's recorded log entries once to its room,
// then keeps forwarding new lines as the tracker appends them, until the
// job reaches a terminal state. Stopping the periodic publishers does not
// end in-flight log streams.
func (h *Hub) StreamJobLogs(jobID string) {
	go h.streamLogs(jobID)
}

func (h *Hub) streamLogs(jobID string) {
	logger := log.WithJobID(jobID)

	// The tracker hands over the snapshot and the listener as one step,
	// so a line appended while the stream starts is either in entries or
	// arrives on the channel, never dropped between the two.
	entries, ch, cancel := h.tracker.Subscribe(jobID)
	defer cancel()

	logger.Debug().Int("recorded_lines", len(entries)).Msg("streaming job logs")

	if len(entries) > 0 {
		h.sendToRoom(jobID, newEvent(types.EventDeploymentLogs, map[string]interface{}{
			"job_id": jobID,
			"logs":   entries,
		}))
	}

	for entry := range ch {
		h.sendToRoom(jobID, newEvent(types.EventNewLog, types.LogEvent{
			JobID:     jobID,
			Level:     "INFO",
			Message:   entry.Message,
			Timestamp: entry.Timestamp,
		}))
	}
}

// pushInitialState sends current snapshots to a single freshly attached
// connection. Fetch failures are absorbed; the viewer catches up on the
// next scheduled tick.
func (h *Hub) pushInitialState(conn *connection) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if stats, err := h.source.SystemSnapshot(ctx); err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch initial system status")
	} else {
		conn.send(newEvent(types.EventSystemStatus, stats))
	}

	if m, err := h.source.DeploymentSnapshot(ctx); err != nil {
		h.logger.Error().Err(err).Msg("failed to fetch initial deployment metrics")
	} else {
		conn.send(newEvent(types.EventDeploymentMetric, m))
	}
}

func (h *Hub) onStatusUpdate(update types.StatusUpdate) {
	h.broadcast(newEvent(types.EventStatusUpdate, update))
}

// broadcast delivers the event to every connected viewer
func (h *Hub) broadcast(event *types.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.conns {
		conn.send(event)
	}
	metrics.BroadcastsTotal.WithLabelValues(string(event.Type)).Inc()
}

// sendToRoom delivers the event only to connections in the job's room
func (h *Hub) sendToRoom(jobID string, event *types.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.rooms[jobID] {
		conn.send(event)
	}
	metrics.BroadcastsTotal.WithLabelValues(string(event.Type)).Inc()
}

func newEvent(t types.EventType, data interface{}) *types.Event {
	return &types.Event{
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
	}
}
