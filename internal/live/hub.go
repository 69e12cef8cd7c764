package live

// Subscriber abstracts a streaming dashboard client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// subscription carries a joining client together with its snapshot replay.
type subscription struct {
	sub    Subscriber
	replay func() ([][]byte, error)
	result chan error
}

// Hub fans occupancy frames out to every connected dashboard. There is one
// stream; every subscriber sees every committed registration.
type Hub struct {
	clients   map[Subscriber]struct{}
	subscribe chan subscription
	register  chan Subscriber
	unreg     chan Subscriber
	broadcast chan []byte
}

func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[Subscriber]struct{}),
		subscribe: make(chan subscription),
		register:  make(chan Subscriber),
		unreg:     make(chan Subscriber),
		broadcast: make(chan []byte),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case req := <-h.subscribe:
			req.result <- h.admit(req)
		case sub := <-h.register:
			h.clients[sub] = struct{}{}
		case sub := <-h.unreg:
			delete(h.clients, sub)
		case payload := <-h.broadcast:
			for c := range h.clients {
				if err := c.Send(payload); err != nil {
					c.Close()
					delete(h.clients, c)
				}
			}
		}
	}
}

// admit replays the snapshot to a joining client and registers it. It runs
// on the hub loop, so no broadcast is processed between the snapshot read
// and registration: an update published mid-replay is queued and delivered
// to the client right after it joins.
func (h *Hub) admit(req subscription) error {
	frames, err := req.replay()
	if err != nil {
		return err
	}
	for _, frame := range frames {
		if err := req.sub.Send(frame); err != nil {
			req.sub.Close()
			return err
		}
	}
	h.clients[req.sub] = struct{}{}
	return nil
}

// Subscribe replays the frames produced by replay to client and adds it to
// the stream without losing broadcasts in between.
func (h *Hub) Subscribe(client Subscriber, replay func() ([][]byte, error)) error {
	req := subscription{sub: client, replay: replay, result: make(chan error, 1)}
	h.subscribe <- req
	return <-req.result
}

// Register adds a client to the stream without a snapshot replay.
func (h *Hub) Register(client Subscriber) {
	h.register <- client
}

// Unregister removes a client.
func (h *Hub) Unregister(client Subscriber) {
	h.unreg <- client
}

// Broadcast sends payload to all clients.
func (h *Hub) Broadcast(payload []byte) {
	h.broadcast <- payload
}
