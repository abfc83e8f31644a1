package sim

import "sync"

// inbound is a queued (message, sender) pair.
type inbound struct {
	msg    Message
	sender int
}

// Node is a graph vertex: an entity plus its owned directed edges, a frozen
// edge iteration order, and a FIFO mailbox of inbound messages.
//
// Node identifiers are sequential indices assigned at graph-construction
// time (the node's position in the network's node slice), so uniqueness is
// structural rather than probabilistic.
type Node struct {
	Entity

	id    int
	edges map[int]*Edge
	order []int // neighbor ids in construction order, frozen at build time

	mu      sync.Mutex
	mailbox []inbound

	onMessage func(msg Message, sender int)
}

func newNode(e Entity, id int) *Node {
	return &Node{
		Entity: e,
		id:     id,
		edges:  make(map[int]*Edge),
	}
}

// ID returns the node's process-unique identifier, stable for the run.
func (n *Node) ID() int { return n.id }

// Degree returns the number of owned edges.
func (n *Node) Degree() int { return len(n.edges) }

// Edge returns the owned edge to the given neighbor, or nil when the nodes
// are not connected.
func (n *Node) Edge(neighbor int) *Edge { return n.edges[neighbor] }

// EdgesInOrder returns the owned edges in the fixed construction order.
// Several solvers index optimization-vector slots by edge position, so this
// order never changes after the graph is built (MST reduction rebuilds the
// edge set and re-freezes a new order).
func (n *Node) EdgesInOrder() []*Edge {
	out := make([]*Edge, len(n.order))
	for i, id := range n.order {
		out[i] = n.edges[id]
	}
	return out
}

// SetOnMessage installs the protocol's node-local message callback. It is
// the single extension point a concrete solver must implement; the driver
// never branches on message content itself.
func (n *Node) SetOnMessage(fn func(msg Message, sender int)) {
	n.onMessage = fn
}

// receive appends to the mailbox. Safe for concurrent senders; the parallel
// driver may deliver from many goroutines during a compute phase.
func (n *Node) receive(msg Message, sender int) {
	n.mu.Lock()
	n.mailbox = append(n.mailbox, inbound{msg: msg, sender: sender})
	n.mu.Unlock()
}

// DrainMailbox pops queued (message, sender) pairs in FIFO order and hands
// each to the OnMessage callback until the mailbox is empty. FIFO order
// keeps runs reproducible for protocols that send multiple message kinds
// per round and rely on receipt order.
func (n *Node) DrainMailbox() {
	for {
		n.mu.Lock()
		if len(n.mailbox) == 0 {
			n.mailbox = nil
			n.mu.Unlock()
			return
		}
		in := n.mailbox[0]
		n.mailbox = n.mailbox[1:]
		n.mu.Unlock()

		if n.onMessage == nil {
			panic("sim: message delivered to a node with no OnMessage callback")
		}
		n.onMessage(in.msg, in.sender)
	}
}

// Broadcast sends msg on every owned edge.
func (n *Node) Broadcast(msg Message) {
	for _, id := range n.order {
		n.edges[id].Send(msg)
	}
}

// addEdge wires a new owned edge and appends its neighbor to the (not yet
// frozen) order.
func (n *Node) addEdge(e *Edge) {
	n.edges[e.dst.id] = e
	n.order = append(n.order, e.dst.id)
}

// resetEdges discards all edges and the frozen order. Only the topology
// builder calls this, during MST reduction.
func (n *Node) resetEdges() {
	n.edges = make(map[int]*Edge)
	n.order = nil
}
