package sim

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/sirupsen/logrus"
)

// NodeProgram is the per-node protocol surface driven by the synchronous
// Driver. BeginRound hooks must be side-effect-independent across nodes
// except through the mailbox: no node may read another node's in-progress
// state during a compute phase.
type NodeProgram interface {
	// BeginRound runs the node's local compute-and-send phase.
	BeginRound(round int)
	// EndRound runs the node's finalize phase (dual updates, convergence
	// bookkeeping, parameter adaptation).
	EndRound(round int)
}

// Bootstrap marks programs whose round 0 differs from steady-state rounds.
// ADMM-style protocols use it to initialize dual variables before the first
// real dual update.
type Bootstrap interface {
	BeginBootstrap()
	EndBootstrap()
}

// Driver is the generic synchronous round loop. Each round is three global
// phases separated by barriers:
//
//	Phase A: every node's BeginRound (local compute & send)
//	Phase B: every node's DrainMailbox (cross-node information becomes visible)
//	Phase C: every node's EndRound (finalize)
//
// Phase B for any node must not begin until Phase A has completed for every
// node, and likewise between B and C. The driver knows nothing about message
// content.
type Driver struct {
	nodes    []*Node
	programs []NodeProgram
	parallel bool
}

// NewDriver pairs the network's nodes with their programs, index for index.
func NewDriver(net *Network, programs []NodeProgram, parallel bool) *Driver {
	if len(programs) != len(net.nodes) {
		panic(fmt.Sprintf("sim: %d programs for %d nodes", len(programs), len(net.nodes)))
	}
	return &Driver{nodes: net.nodes, programs: programs, parallel: parallel}
}

// Run executes the configured number of rounds. When every program
// implements Bootstrap, a distinguished round 0 runs first with the
// bootstrap hooks in place of BeginRound/EndRound. Steady-state rounds are
// numbered from 1.
func (d *Driver) Run(rounds int) {
	if _, ok := d.programs[0].(Bootstrap); ok {
		d.phase(func(i int) { d.programs[i].(Bootstrap).BeginBootstrap() })
		d.phase(func(i int) { d.nodes[i].DrainMailbox() })
		d.phase(func(i int) { d.programs[i].(Bootstrap).EndBootstrap() })
	}

	for r := 1; r <= rounds; r++ {
		logrus.Debugf("driver: round %d", r)
		d.phase(func(i int) { d.programs[i].BeginRound(r) })
		d.phase(func(i int) { d.nodes[i].DrainMailbox() })
		d.phase(func(i int) { d.programs[i].EndRound(r) })
	}
}

// phase applies fn to every node index and returns only when all are done,
// which is exactly the barrier between phases. The parallel scheduler forks
// one goroutine per node and joins them; node mailboxes are the only shared
// state and are mutex-guarded.
func (d *Driver) phase(fn func(i int)) {
	if !d.parallel {
		for i := range d.nodes {
			fn(i)
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(len(d.nodes))
	for i := range d.nodes {
		go func(i int) {
			defer wg.Done()
			fn(i)
		}(i)
	}
	wg.Wait()
}

// AsyncProgram is the per-node surface for the asynchronous scheduling
// discipline: a single node updates per step.
type AsyncProgram interface {
	// Update recomputes the node's estimate and broadcasts it.
	Update()
}

// RunAsync executes the asynchronous discipline: each step, one randomly
// chosen eligible node updates, and only its immediate neighbors drain their
// mailboxes. One active task at a time; this is a different scheduler from
// the barrier model, not a variant of it.
func RunAsync(net *Network, programs []AsyncProgram, steps int, eligible func(i int) bool, rng *rand.Rand) {
	if len(programs) != len(net.nodes) {
		panic(fmt.Sprintf("sim: %d programs for %d nodes", len(programs), len(net.nodes)))
	}
	for s := 0; s < steps; s++ {
		i := rng.Intn(len(net.nodes))
		for !eligible(i) {
			i = rng.Intn(len(net.nodes))
		}
		programs[i].Update()
		for _, e := range net.nodes[i].EdgesInOrder() {
			e.dst.DrainMailbox()
		}
	}
}
