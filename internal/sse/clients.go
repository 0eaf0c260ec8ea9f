// Package sse fans out server-sent events to the browser tabs of one author
// session.
package sse

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
)

type Event struct {
	Name string
	Data string
}

type Client struct {
	Msg     chan Event
	Session string
}

func NewClient(session string) *Client {
	return &Client{
		Msg:     make(chan Event, 4),
		Session: session,
	}
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	close(client.Msg)
}

func (s *SSEClients) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends ev to every client of session. Slow clients miss the
// event rather than block the sender.
func (s *SSEClients) Broadcast(session string, ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.Session == session {
			select {
			case client.Msg <- ev:
			default:
			}
		}
	}
}

// Write encodes ev in the text/event-stream format.
func Write(w http.ResponseWriter, ev Event) {
	if ev.Name != "" {
		fmt.Fprintf(w, "event: %s\n", ev.Name)
	}
	for _, line := range strings.Split(ev.Data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

// Stream registers client and copies its events to w until the request
// ends. It returns false if w cannot stream.
func (s *SSEClients) Stream(w http.ResponseWriter, r *http.Request, client *Client) bool {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Del("X-Content-Type-Options")

	Write(w, Event{Name: "connected", Data: "SSE connection established"})
	flusher.Flush()

	s.Add(client)
	defer s.Delete(client)

	done := r.Context().Done()
	for {
		select {
		case ev, ok := <-client.Msg:
			if !ok {
				return true
			}
			Write(w, ev)
			flusher.Flush()
		case <-done:
			return true
		}
	}
}
