// Package eventbus is the append-only, single-writer-per-task event log.
// One JSONL file lives under each task's directory; Publish appends under
// a per-task mutex and fans out synchronously to in-process subscribers.
package eventbus

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/ptreezh/orc/internal/taskstore"
	"github.com/ptreezh/orc/internal/types"
)

// Bus owns one task's event log plus its in-process subscribers. Event ids
// within a task are strictly increasing.
type Bus struct {
	configRoot string
	taskID     string

	mu      sync.Mutex
	nextSeq int64
	file    *os.File

	subMu sync.Mutex
	subs  []*subscription
}

// Open creates (or appends to) the event log for taskID under configRoot,
// resuming the sequence counter from the highest id already on disk.
func Open(configRoot, taskID string) (*Bus, error) {
	if err := taskstore.EnsureTaskDir(configRoot, taskID); err != nil {
		return nil, err
	}

	path := taskstore.EventsPath(configRoot, taskID)
	nextSeq, err := lastSeq(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	return &Bus{configRoot: configRoot, taskID: taskID, nextSeq: nextSeq + 1, file: f}, nil
}

// Close releases the underlying file handle and ends every subscription.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subMu.Lock()
	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
	b.subMu.Unlock()

	return b.file.Close()
}

// Publish assigns the next monotonic sequence number, timestamps the
// event, appends one JSON line, and invokes matching in-process
// subscribers synchronously. When durable is true, the write is fsynced
// before Publish returns.
func (b *Bus) Publish(kind types.EventKind, subtaskID string, payload any, durable bool) (types.Event, error) {
	b.mu.Lock()

	event := types.Event{
		Seq:       b.nextSeq,
		Timestamp: time.Now(),
		Kind:      kind,
		TaskID:    b.taskID,
		SubtaskID: subtaskID,
		Payload:   payload,
	}

	encoded, err := json.Marshal(event)
	if err != nil {
		b.mu.Unlock()
		return types.Event{}, err
	}
	encoded = append(encoded, '\n')

	if _, err := b.file.Write(encoded); err != nil {
		b.mu.Unlock()
		return types.Event{}, err
	}
	if durable {
		if err := b.file.Sync(); err != nil {
			b.mu.Unlock()
			return types.Event{}, err
		}
	}

	b.nextSeq++
	b.mu.Unlock()

	b.notify(event)
	return event, nil
}

// subscription is an in-process, channel-backed iterator over events
// matching an optional kind filter.
type subscription struct {
	kinds map[types.EventKind]bool
	ch    chan types.Event
}

// Subscribe returns a pull function yielding events published after the
// call (and honoring any kindFilter) until Close is called on the bus, at
// which point the second return value becomes false. Subscribe is
// in-process only; there are no cross-process subscribers.
func (b *Bus) Subscribe(kindFilter ...types.EventKind) func() (types.Event, bool) {
	sub := &subscription{ch: make(chan types.Event, 64)}
	if len(kindFilter) > 0 {
		sub.kinds = make(map[types.EventKind]bool, len(kindFilter))
		for _, k := range kindFilter {
			sub.kinds[k] = true
		}
	}

	b.subMu.Lock()
	b.subs = append(b.subs, sub)
	b.subMu.Unlock()

	return func() (types.Event, bool) {
		ev, ok := <-sub.ch
		return ev, ok
	}
}

func (b *Bus) notify(event types.Event) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	for _, sub := range b.subs {
		if sub.kinds != nil && !sub.kinds[event.Kind] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// A slow subscriber never blocks Publish; it simply misses
			// events once its buffer is full.
		}
	}
}

// Filter narrows Query's results.
type Filter struct {
	Kind      types.EventKind
	SubtaskID string
	Since     time.Time
	Until     time.Time
}

// Query re-reads taskID's log from disk and returns every event matching
// filter, in append order.
func Query(configRoot, taskID string, filter Filter) ([]types.Event, error) {
	path := taskstore.EventsPath(configRoot, taskID)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []types.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)

	for scanner.Scan() {
		var ev types.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		if !matches(ev, filter) {
			continue
		}
		events = append(events, ev)
	}
	return events, scanner.Err()
}

func matches(ev types.Event, filter Filter) bool {
	if filter.Kind != "" && ev.Kind != filter.Kind {
		return false
	}
	if filter.SubtaskID != "" && ev.SubtaskID != filter.SubtaskID {
		return false
	}
	if !filter.Since.IsZero() && ev.Timestamp.Before(filter.Since) {
		return false
	}
	if !filter.Until.IsZero() && ev.Timestamp.After(filter.Until) {
		return false
	}
	return true
}

// lastSeq scans an existing log (if any) for the highest sequence number
// so a reopened bus continues the count instead of restarting at zero.
func lastSeq(path string) (int64, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var max int64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for scanner.Scan() {
		var ev types.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		if ev.Seq > max {
			max = ev.Seq
		}
	}
	return max, scanner.Err()
}
