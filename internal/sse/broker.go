// Package sse implements a Server-Sent Events broker that tells front-ends
// when the live dataset changed.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Event types emitted for dataset changes.
const (
	TypePublished       = "dataset.published"
	TypeRemoved         = "dataset.removed"
	TypeCorrupt         = "dataset.corrupt"
	TypeCalendarUpdated = "calendar.updated"
	TypePublishRun      = "publish.run"
)

// DefaultHeartbeat is the interval of keep-alive comments on idle streams.
const DefaultHeartbeat = 15 * time.Second

// replaySize bounds the backlog sent to clients reconnecting with Last-Event-ID.
const replaySize = 32

// DatasetEvent is the payload of dataset.* events.
type DatasetEvent struct {
	File     string `json:"file"`
	Checksum string `json:"checksum,omitempty"`
	Entries  int    `json:"entries"`
}

type datasetEventReq struct {
	kind string
	ev   DatasetEvent
}

type subscribeReq struct {
	ch     chan []byte
	after  uint64
	replay bool
}

type frame struct {
	id  uint64
	raw []byte
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients + calendar throttle timestamp). Public methods communicate with this
// loop through channels, so no mutexes are required.
type Broker struct {
	calendarMin time.Duration
	heartbeat   atomic.Int64 // time.Duration

	subscribeCh   chan subscribeReq
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	datasetCh     chan datasetEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker with the given calendar throttle interval.
func NewBroker(calendarThrottle time.Duration) *Broker {
	if calendarThrottle <= 0 {
		calendarThrottle = 2 * time.Second
	}

	b := &Broker{
		calendarMin:   calendarThrottle,
		subscribeCh:   make(chan subscribeReq),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		datasetCh:     make(chan datasetEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	b.heartbeat.Store(int64(DefaultHeartbeat))

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	backlog := make([]frame, 0, replaySize)
	var lastCalendar time.Time
	var seq uint64

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, event.Type, payload))
		if len(backlog) == replaySize {
			backlog = append(backlog[:0], backlog[1:]...)
		}
		backlog = append(backlog, frame{id: seq, raw: raw})

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case req := <-b.subscribeCh:
			if req.replay {
				for _, f := range backlog {
					if f.id > req.after {
						req.ch <- f.raw
					}
				}
			}
			clients[req.ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.datasetCh:
			switch req.kind {
			case "published":
				broadcast(Event{Type: TypePublished, Data: req.ev})
			case "removed":
				broadcast(Event{Type: TypeRemoved, Data: req.ev})
			case "corrupt":
				broadcast(Event{Type: TypeCorrupt, Data: req.ev})
			default:
				continue
			}

			now := time.Now()
			if now.Sub(lastCalendar) >= b.calendarMin {
				lastCalendar = now
				broadcast(Event{Type: TypeCalendarUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	return b.subscribe(subscribeReq{})
}

// SubscribeAfter is Subscribe for a reconnecting client: buffered events
// with an id greater than lastID are delivered first.
func (b *Broker) SubscribeAfter(lastID uint64) chan []byte {
	return b.subscribe(subscribeReq{after: lastID, replay: true})
}

func (b *Broker) subscribe(req subscribeReq) chan []byte {
	// Room for the whole backlog plus live traffic.
	ch := make(chan []byte, replaySize+64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	req.ch = ch
	select {
	case b.subscribeCh <- req:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishDatasetEvent publishes a dataset change and a throttled
// calendar.updated event. kind is "published", "removed" or "corrupt";
// other kinds are dropped.
func (b *Broker) PublishDatasetEvent(kind string, ev DatasetEvent) {
	if b.closed.Load() {
		return
	}
	select {
	case b.datasetCh <- datasetEventReq{kind: kind, ev: ev}:
	case <-b.stopped:
	}
}

// SetHeartbeat changes the keep-alive interval for new streams.
func (b *Broker) SetHeartbeat(d time.Duration) {
	if d > 0 {
		b.heartbeat.Store(int64(d))
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var ch chan []byte
	if last, err := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64); err == nil {
		ch = b.SubscribeAfter(last)
	} else {
		ch = b.Subscribe()
	}
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(time.Duration(b.heartbeat.Load()))
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
