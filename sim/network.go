package sim

import (
	"container/heap"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// DisconnectedGraphError reports that the visibility graph has more than one
// connected component. Multi-round cooperative protocols assume a connected
// graph, so topology construction aborts rather than degrade.
type DisconnectedGraphError struct {
	// Unreached is the number of nodes not reachable from node 0.
	Unreached int
}

func (e *DisconnectedGraphError) Error() string {
	return fmt.Sprintf("sim: graph is disconnected (%d unreached nodes)", e.Unreached)
}

// Network is the visibility graph over a list of entities. It owns topology
// construction: edge creation within the visibility radius, the one-shot
// synchronized noisy measurement, connectivity validation, and the optional
// minimum-spanning-tree reduction.
type Network struct {
	nodes []*Node
	cfg   Config
	rng   *rand.Rand // measurement noise stream
}

// NewNetwork builds the visibility graph from the given entities.
//
// For every pair closer than cfg.Visibility it creates two independent
// directed edges, freezes each node's edge iteration order, then performs
// one synchronized noisy distance measurement per unordered pair: the noise
// is drawn once and the identical value written to both directed edges,
// modeling a physical ranging measurement rather than two independent
// estimates.
//
// Returns a DisconnectedGraphError when the resulting graph is not
// connected.
func NewNetwork(entities []Entity, cfg Config) (*Network, error) {
	if len(entities) == 0 {
		return nil, errors.New("sim: no entities")
	}
	dim := entities[0].Dim()
	for i, e := range entities {
		if e.Dim() != dim {
			return nil, fmt.Errorf("sim: entity %d has dimension %d, want %d", i, e.Dim(), dim)
		}
	}

	n := &Network{
		cfg: cfg,
		rng: NewRNG(cfg.Seed).Subsystem(SubsystemMeasurement),
	}
	n.nodes = make([]*Node, len(entities))
	for i, e := range entities {
		n.nodes[i] = newNode(e, i)
	}

	n.addNeighbors(cfg.Visibility)
	n.measureDistances(cfg.Sigma)

	if unreached := n.countUnreached(); unreached > 0 {
		return nil, &DisconnectedGraphError{Unreached: unreached}
	}

	edges := 0
	for _, node := range n.nodes {
		edges += node.Degree()
	}
	logrus.Debugf("network: %d nodes, %d directed edges, visibility=%v", len(n.nodes), edges, cfg.Visibility)

	return n, nil
}

// Nodes returns the network's nodes in input order. Node i corresponds to
// entity i of the input list.
func (n *Network) Nodes() []*Node { return n.nodes }

// Dim returns the problem dimension.
func (n *Network) Dim() int { return n.nodes[0].Dim() }

func (n *Network) addNeighbors(visibility float64) {
	v2 := visibility * visibility
	for _, src := range n.nodes {
		for _, dst := range n.nodes {
			if src == dst {
				continue
			}
			// Visibility is symmetric in existence: the same inequality
			// holds for the reverse pair, producing the reverse edge when
			// the outer loop reaches dst.
			if src.squaredDist(dst.Entity) < v2 {
				src.addEdge(newEdge(src, dst))
			}
		}
	}
}

// measureDistances performs the one-shot synchronized measurement: one noise
// draw per unordered pair, written to both directed edges.
func (n *Network) measureDistances(sigma float64) {
	for _, src := range n.nodes {
		for _, e := range src.EdgesInOrder() {
			if e.dst.id < src.id {
				continue // already measured from the lower-id side
			}
			d := src.noisyDist(e.dst.Entity, sigma, n.rng)
			e.Set(PropDist, d)
			e.dst.Edge(src.id).Set(PropDist, d)
		}
	}
}

// MeasureAngles measures pairwise bearings. Only defined for 2-D problems,
// and called by the solvers that need it rather than at construction.
//
// The reverse edge's bearing is the forward bearing plus pi (mod 2pi) with
// its own noise draw: bearing is direction-dependent, so angle noise, unlike
// distance noise, differs per direction.
func (n *Network) MeasureAngles(sigma float64) error {
	if n.Dim() != 2 {
		return fmt.Errorf("sim: angle measurement requires dimension 2, have %d", n.Dim())
	}
	for _, src := range n.nodes {
		for _, e := range src.EdgesInOrder() {
			if e.dst.id < src.id {
				continue
			}
			actual := math.Atan2(e.dst.coords[1]-src.coords[1], e.dst.coords[0]-src.coords[0])
			forward := actual + math.Pi*n.rng.NormFloat64()*sigma
			e.Set(PropAngle, forward)
			reverse := mod2pi(forward+math.Pi) + math.Pi*n.rng.NormFloat64()*sigma
			e.dst.Edge(src.id).Set(PropAngle, reverse)
		}
	}
	return nil
}

func mod2pi(x float64) float64 {
	m := math.Mod(x, 2*math.Pi)
	if m < 0 {
		m += 2 * math.Pi
	}
	return m
}

// countUnreached runs a breadth-first traversal from node 0 and returns the
// number of nodes it never reaches.
func (n *Network) countUnreached() int {
	seen := make([]bool, len(n.nodes))
	seen[0] = true
	queue := []int{0}
	reached := 1
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, neighbor := range n.nodes[id].order {
			if !seen[neighbor] {
				seen[neighbor] = true
				reached++
				queue = append(queue, neighbor)
			}
		}
	}
	return len(n.nodes) - reached
}

// mstItem is a candidate edge in Prim's frontier.
type mstItem struct {
	weight float64
	edge   *Edge
}

// mstHeap orders frontier edges by weight, breaking ties by endpoint ids so
// the tree is deterministic.
type mstHeap []mstItem

func (h mstHeap) Len() int { return len(h) }
func (h mstHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	if h[i].edge.src.id != h[j].edge.src.id {
		return h[i].edge.src.id < h[j].edge.src.id
	}
	return h[i].edge.dst.id < h[j].edge.dst.id
}
func (h mstHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *mstHeap) Push(x any) {
	*h = append(*h, x.(mstItem))
}

func (h *mstHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// MST reduces the network to a minimum spanning tree under the given edge
// weight (nil means the measured distance). All non-tree edges are
// discarded; the retained pairs get fresh Edge objects, which clears any
// accumulated protocol state, a new frozen iteration order, and re-measured
// distances. Used by analysis tooling, never by the solvers.
func (n *Network) MST(weight func(*Edge) float64) error {
	if weight == nil {
		weight = (*Edge).Dist
	}

	frontier := &mstHeap{}
	taken := make([]bool, len(n.nodes))
	taken[0] = true
	var tree []*Edge

	for _, e := range n.nodes[0].EdgesInOrder() {
		heap.Push(frontier, mstItem{weight: weight(e), edge: e})
	}

	for count := 1; count < len(n.nodes); count++ {
		var next *Edge
		for frontier.Len() > 0 {
			item := heap.Pop(frontier).(mstItem)
			if !taken[item.edge.dst.id] {
				next = item.edge
				break
			}
		}
		if next == nil {
			return &DisconnectedGraphError{Unreached: len(n.nodes) - count}
		}

		tree = append(tree, next)
		taken[next.dst.id] = true
		for _, e := range next.dst.EdgesInOrder() {
			if !taken[e.dst.id] {
				heap.Push(frontier, mstItem{weight: weight(e), edge: e})
			}
		}
	}

	for _, node := range n.nodes {
		node.resetEdges()
	}
	for _, e := range tree {
		e.src.addEdge(newEdge(e.src, e.dst))
		e.dst.addEdge(newEdge(e.dst, e.src))
	}
	n.measureDistances(n.cfg.Sigma)

	logrus.Debugf("network: reduced to spanning tree with %d edges", len(tree))
	return nil
}
