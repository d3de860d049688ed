package room

// Persister applies an accepted content change to the durable store.
// Implementations must be safe for concurrent use; failures stay inside the
// implementation (logged, counted, dropped).
type Persister interface {
	Persist(documentID, content string)
}

// Router fans room events out to members and hands accepted changes to the
// persister. Broadcast never waits on storage.
type Router struct {
	reg       *Registry
	persister Persister
}

func NewRouter(reg *Registry, p Persister) *Router {
	return &Router{reg: reg, persister: p}
}

// AnnounceJoin tells the whole room, the new member included, that someone
// joined.
func (r *Router) AnnounceJoin(docID, displayName string) {
	r.reg.broadcast(docID, Event{Name: EventUserJoined, DisplayName: displayName}, nil)
}

// AnnounceLeave mirrors AnnounceJoin for departures.
func (r *Router) AnnounceLeave(docID, displayName string) {
	r.reg.broadcast(docID, Event{Name: EventUserLeft, DisplayName: displayName}, nil)
}

// RouteChange delivers a document-update to every member except the sender,
// then hands the content to the persister on a detached goroutine. The sender
// never sees its own edit echoed back, and a slow store never delays the
// broadcast.
func (r *Router) RouteChange(docID, content, displayName string, sender Conn) {
	r.reg.broadcast(docID, Event{
		Name:        EventDocumentUpdate,
		Content:     content,
		DisplayName: displayName,
	}, sender)
	go r.persister.Persist(docID, content)
}
