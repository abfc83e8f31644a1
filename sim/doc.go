// Package sim provides the core engine for cooperative localization
// simulations in sensor networks.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - entity.go: positional records (anchors and agents) and distance measurement
//   - edge.go: the owner-private directed edge and its property bag
//   - node.go: graph vertices, the frozen edge order, and the mailbox
//   - network.go: the topology builder, synchronized measurement, and MST reduction
//   - driver.go: the synchronous three-phase round loop and the async scheduler
//
// # Architecture
//
// The sim package owns everything a distributed protocol may legitimately
// observe. Ground-truth agent coordinates are package-private: only the
// measurement routines in network.go and the scoring code in eval.go can read
// them, so an algorithm cannot peek at the answer it is supposed to estimate.
//
// Protocols live in sub-packages:
//   - sim/solver/: the localization algorithms (ADMM family, convex
//     relaxation, closed-form least squares), registered by name
//   - sim/minimize/: the injected nonlinear local-minimizer service
//
// Cross-node influence flows exclusively through mailbox messages, which are
// deep copies of the sender's data at send time. The Driver enforces the
// compute/deliver/finalize barriers; see driver.go.
package sim
