package sim

import "fmt"

// Property names set by the topology builder. Protocol-defined properties
// (dual variables, consensus midpoints, messages) use solver-local names.
const (
	// PropDist is the measured pairwise distance. Synchronized: both
	// directed edges of a pair carry the identical value.
	PropDist = "dist"
	// PropAngle is the measured bearing from the edge's owner to its far
	// endpoint. Unlike PropDist, each direction carries its own noise.
	PropAngle = "angle"
)

// MissingPropertyError reports a read of an edge property that no code path
// has set. This is a programming error in the running protocol, usually a
// forgotten transmission step, so Edge.Get panics with it rather than
// returning a silent default.
type MissingPropertyError struct {
	Name string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("sim: %q is not an edge property; did you forget to transmit it?", e.Name)
}

// Message is the unit of cross-node communication. Protocols multiplex
// message types on Kind; the engine never inspects it. Payloads are a vector
// and/or a scalar, which covers every protocol in sim/solver.
type Message struct {
	Kind int
	Vec  []float64
	Val  float64
}

// clone deep-copies the message so a mailbox never aliases sender state.
func (m Message) clone() Message {
	if m.Vec == nil {
		return m
	}
	v := make([]float64, len(m.Vec))
	copy(v, m.Vec)
	return Message{Kind: m.Kind, Vec: v, Val: m.Val}
}

// Edge is a one-directional, owner-private view of a connection to a
// neighboring node. The reverse direction is an independent Edge owned by
// the far node; the two never share mutable state.
//
// Beyond the far endpoint's role (and, for anchors, its entity), an edge is
// an open property bag populated incrementally as a protocol runs.
type Edge struct {
	src *Node
	dst *Node

	farRole   Role
	farEntity Entity // meaningful only when farRole == Anchor

	props map[string]any
}

func newEdge(src, dst *Node) *Edge {
	e := &Edge{
		src:     src,
		dst:     dst,
		farRole: dst.Role(),
		props:   make(map[string]any),
	}
	if e.farRole == Anchor {
		e.farEntity = dst.Entity
	}
	return e
}

// Neighbor returns the identifier of the far endpoint.
func (e *Edge) Neighbor() int { return e.dst.ID() }

// FarRole returns the role of the far endpoint, copied at construction.
func (e *Edge) FarRole() Role { return e.farRole }

// Anchor returns the far endpoint's entity. It panics unless the far
// endpoint is an anchor; agents are only ever observed through measurements.
func (e *Edge) Anchor() Entity {
	if e.farRole != Anchor {
		panic("sim: Edge.Anchor called on an edge whose far endpoint is an agent")
	}
	return e.farEntity
}

// Set stores a property value on the edge.
func (e *Edge) Set(name string, value any) {
	e.props[name] = value
}

// Get returns a property value. Reading a property before it has been set
// panics with a MissingPropertyError; see the type's doc for why this is
// deliberately loud.
func (e *Edge) Get(name string) any {
	v, ok := e.props[name]
	if !ok {
		panic(&MissingPropertyError{Name: name})
	}
	return v
}

// Has reports whether a property has been set.
func (e *Edge) Has(name string) bool {
	_, ok := e.props[name]
	return ok
}

// Float returns a scalar property.
func (e *Edge) Float(name string) float64 {
	return e.Get(name).(float64)
}

// Vec returns a vector property. The returned slice is the stored value;
// it is owner-private like the edge itself.
func (e *Edge) Vec(name string) []float64 {
	return e.Get(name).([]float64)
}

// Dist returns the measured distance to the far endpoint.
func (e *Edge) Dist() float64 { return e.Float(PropDist) }

// Angle returns the measured bearing to the far endpoint.
func (e *Edge) Angle() float64 { return e.Float(PropAngle) }

// Send delivers a deep copy of msg to the far endpoint's mailbox, tagged
// with the owner's identifier. This is the only channel by which one node's
// computation can affect another's.
func (e *Edge) Send(msg Message) {
	e.dst.receive(msg.clone(), e.src.ID())
}

func (e *Edge) String() string {
	return fmt.Sprintf("Edge(%d -> %d)", e.src.ID(), e.dst.ID())
}

// clearProps discards all accumulated protocol state. Used when the edge set
// is structurally rebuilt (MST reduction).
func (e *Edge) clearProps() {
	e.props = make(map[string]any)
}
