// Package events allows for the registering and receiving of the mining
// events produced by the pipeline.
package events

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// messageBuffer is how many messages a subscriber can fall behind before
// messages to it are dropped.
const messageBuffer = 100

// historySize is how many of the most recent messages are replayed to a
// new subscriber so it can see what already happened in the run.
const historySize = 50

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events.
type Events struct {
	mu      sync.RWMutex
	m       map[string]chan string
	history []string
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]chan string),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire registers a new subscriber and returns its id with a channel
// that receives the recent history followed by every new event.
func (evt *Events) Acquire() (string, <-chan string) {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan string, messageBuffer+historySize)
	for _, msg := range evt.history {
		ch <- msg
	}

	evt.m[id] = ch
	return id, ch
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Send signals a message to every registered channel. Send will not block
// waiting for a receiver on any given channel.
func (evt *Events) Send(s string) {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	evt.history = append(evt.history, s)
	if len(evt.history) > historySize {
		evt.history = evt.history[len(evt.history)-historySize:]
	}

	for _, ch := range evt.m {
		select {
		case ch <- s:
		default:
		}
	}
}
