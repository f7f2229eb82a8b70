package session

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

type StreamEvent struct {
	EventID   string `json:"event_id"`
	Event     string `json:"event"`
	SessionID string `json:"session_id"`
	Version   int64  `json:"version"`
	ServerTS  int64  `json:"server_ts"`
	Data      any    `json:"data"`

	seq int64
}

const watcherQueue = 32

// Buffer is the ordered event log of one table: a bounded window kept for
// replay plus live fan-out. Appends never block; a watcher that falls
// watcherQueue events behind misses the overflow and is counted in
// session_events_dropped_total.
type Buffer struct {
	mu       sync.Mutex
	seq      int64
	window   int
	events   []StreamEvent
	watchers map[chan StreamEvent]struct{}
	closed   bool
}

func NewBuffer(window int) *Buffer {
	if window <= 0 {
		window = 500
	}
	return &Buffer{window: window, watchers: map[chan StreamEvent]struct{}{}}
}

// Append stamps the next event id and returns the event, or the zero event
// once the buffer is closed.
func (b *Buffer) Append(event, sessionID string, version int64, data any) StreamEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return StreamEvent{}
	}
	b.seq++
	ev := StreamEvent{
		EventID:   strconv.FormatInt(b.seq, 10),
		Event:     event,
		SessionID: sessionID,
		Version:   version,
		ServerTS:  time.Now().UnixMilli(),
		Data:      data,
		seq:       b.seq,
	}
	if len(b.events) == b.window {
		copy(b.events, b.events[1:])
		b.events = b.events[:len(b.events)-1]
	}
	b.events = append(b.events, ev)
	for ch := range b.watchers {
		select {
		case ch <- ev:
		default:
			metricEventsDropped.Add(1)
		}
	}
	return ev
}

// Since returns the retained events after lastEventID. complete is false
// when events the caller never saw have already left the window, or when
// lastEventID is not an id this buffer issued; the caller should then
// resync from a fresh snapshot. An empty id replays the whole window.
func (b *Buffer) Since(lastEventID string) (events []StreamEvent, complete bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var last int64
	if lastEventID != "" {
		n, err := strconv.ParseInt(lastEventID, 10, 64)
		if err != nil || n < 0 || n > b.seq {
			return b.copyFrom(0), false
		}
		last = n
	}
	i := sort.Search(len(b.events), func(i int) bool { return b.events[i].seq > last })
	complete = lastEventID == "" || len(b.events) == 0 || b.events[0].seq <= last+1
	return b.copyFrom(i), complete
}

func (b *Buffer) copyFrom(i int) []StreamEvent {
	if i >= len(b.events) {
		return nil
	}
	out := make([]StreamEvent, len(b.events)-i)
	copy(out, b.events[i:])
	return out
}

// Watch registers a live watcher. The channel closes when cancel is called
// or the buffer closes; cancel is safe to call more than once.
func (b *Buffer) Watch() (<-chan StreamEvent, func()) {
	ch := make(chan StreamEvent, watcherQueue)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.watchers[ch] = struct{}{}
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.watchers[ch]; ok {
			delete(b.watchers, ch)
			close(ch)
		}
	}
}

// Close ends every watcher and turns later appends into no-ops.
func (b *Buffer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.watchers {
		delete(b.watchers, ch)
		close(ch)
	}
}
