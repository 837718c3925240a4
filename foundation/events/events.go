// Package events fans out chain events to any number of listeners, such as
// websocket clients watching blocks being mined.
package events

import (
	"fmt"
	"strings"
	"sync"
)

// Prefix marks the events that are published to listeners. Every other event
// is only logged.
const Prefix = "viewer:"

// messageBuffer is the number of events a slow listener can fall behind by
// before events are dropped for it.
const messageBuffer = 100

// Events maintains a mapping of listener id to channel.
type Events struct {
	mu sync.RWMutex
	m  map[string]chan string
}

// New constructs an events value for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]chan string),
	}
}

// Shutdown closes and removes every listener channel.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
}

// Acquire registers a listener and returns the channel events arrive on.
func (evt *Events) Acquire(id string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if exists {
		return ch
	}

	evt.m[id] = make(chan string, messageBuffer)
	return evt.m[id]
}

// Release closes and removes the channel that was provided by Acquire.
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

// Count returns the number of listeners.
func (evt *Events) Count() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send publishes the event to every listener when it carries the Prefix. The
// prefix is removed. Send never blocks on a slow listener.
func (evt *Events) Send(s string) bool {
	msg, ok := strings.CutPrefix(s, Prefix)
	if !ok {
		return false
	}
	msg = strings.TrimSpace(msg)

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- msg:
		default:
		}
	}

	return true
}
