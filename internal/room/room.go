package room

import (
	"sync"

	"github.com/coedit/coedit/pkg/metrics"
)

// Event is the wire envelope for the room protocol, both directions.
type Event struct {
	Name        string `json:"event"`
	DocumentID  string `json:"documentId,omitempty"`
	Content     string `json:"content,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Event names of the room protocol.
const (
	EventJoinDocument   = "join-document"
	EventDocumentChange = "document-change"
	EventLeaveDocument  = "leave-document"
	EventUserJoined     = "user-joined"
	EventDocumentUpdate = "document-update"
	EventUserLeft       = "user-left"
)

// Conn is one connected participant. Send must be safe for concurrent use;
// the websocket client satisfies this with a buffered send channel.
type Conn interface {
	Send(evt Event) error
}

// room is the ephemeral membership set for one document. Its mutex serializes
// joins, leaves and broadcasts for that document, which gives every member
// the same event order; rooms for different documents are independent.
// closed is set, under both locks, when the room is removed from the
// registry; a joiner that raced the removal must not land in it.
type room struct {
	mu      sync.Mutex
	closed  bool
	members map[Conn]string // conn -> display name
}

// Registry maps document ids to live rooms. A room exists exactly while it
// has at least one member.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*room)}
}

// Join adds the connection to the document's room, creating the room if it
// does not exist yet. Access checks happen before Join at the transport
// boundary; the registry only tracks membership.
func (g *Registry) Join(docID string, c Conn, displayName string) {
	for {
		g.mu.Lock()
		r, ok := g.rooms[docID]
		if !ok {
			r = &room{members: make(map[Conn]string)}
			g.rooms[docID] = r
			metrics.RoomsActive.Inc()
		}
		g.mu.Unlock()

		r.mu.Lock()
		if r.closed {
			// the last member left between the lookup and here; the room is
			// already out of the registry, so retry against a fresh one
			r.mu.Unlock()
			continue
		}
		r.members[c] = displayName
		r.mu.Unlock()
		return
	}
}

// Leave removes the connection from the document's room. The last member out
// deletes the room.
func (g *Registry) Leave(docID string, c Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.rooms[docID]
	if !ok {
		return
	}
	r.mu.Lock()
	delete(r.members, c)
	empty := len(r.members) == 0
	if empty {
		r.closed = true
	}
	r.mu.Unlock()
	if empty {
		delete(g.rooms, docID)
		metrics.RoomsActive.Dec()
	}
}

// MembersExcept returns the connections currently in the room, excluding the
// given one. An unknown document id yields an empty slice.
func (g *Registry) MembersExcept(docID string, except Conn) []Conn {
	g.mu.Lock()
	r, ok := g.rooms[docID]
	g.mu.Unlock()
	if !ok {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Conn, 0, len(r.members))
	for c := range r.members {
		if c != except {
			out = append(out, c)
		}
	}
	return out
}

// LeaveAll removes the connection from every room it belongs to and returns
// the display name it used per document, so callers can announce the leaves.
// Used for transport-level disconnects.
func (g *Registry) LeaveAll(c Conn) map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	left := map[string]string{}
	for docID, r := range g.rooms {
		r.mu.Lock()
		name, ok := r.members[c]
		if ok {
			delete(r.members, c)
			left[docID] = name
		}
		empty := len(r.members) == 0
		if ok && empty {
			r.closed = true
		}
		r.mu.Unlock()
		if ok && empty {
			delete(g.rooms, docID)
			metrics.RoomsActive.Dec()
		}
	}
	return left
}

// broadcast delivers the event to every room member except `except` (nil
// means deliver to everyone). Delivery runs under the room lock, so all
// members observe events for one document in the same order.
func (g *Registry) broadcast(docID string, evt Event, except Conn) {
	g.mu.Lock()
	r, ok := g.rooms[docID]
	g.mu.Unlock()
	if !ok {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.members {
		if c == except {
			continue
		}
		if err := c.Send(evt); err != nil {
			// slow or gone; transport cleanup will remove it
			continue
		}
	}
	metrics.EventsBroadcast.WithLabelValues(evt.Name).Inc()
}
