// Package streetnet implements the street-network data structure: a
// weighted undirected graph with dense integer-indexed edges carrying
// length, speed limit, and a dynamic driving-time weight. It owns
// shortest-path computation and canonical edge iteration; see dijkstra.go.
package streetnet

import (
	"fmt"

	"github.com/streets4mpi/streets4mpi/internal/simerrors"
)

// NodeID is the 64-bit identifier drawn from the source map.
type NodeID = int64

// Node is an immutable (after insertion) point in the network.
type Node struct {
	ID  NodeID
	Lon float64
	Lat float64
}

// street holds one edge's attributes, indexed densely by street index.
type street struct {
	u, v        NodeID // canonical: u < v
	length      float64
	maxSpeed    int // km/h, clamped to [1, 140]
	drivingTime float64
}

// StreetView is a read-only snapshot of one street, yielded by Streets().
type StreetView struct {
	U, V        NodeID
	Index       int
	Length      float64
	MaxSpeed    int
	DrivingTime float64
}

type neighbor struct {
	nodeIdx   int
	streetIdx int
}

// Network is the CSR-style street network: a dense node array plus an
// adjacency list of (neighbor, street index) pairs, with a per-street
// attribute slice. Every dynamic quantity the simulation tracks is indexed
// by the stable street index assigned on insertion.
type Network struct {
	nodes     []Node
	nodeIndex map[NodeID]int
	streets   []street
	edgeIndex map[[2]NodeID]int
	adj       [][]neighbor
}

// New returns an empty street network.
func New() *Network {
	return &Network{
		nodeIndex: make(map[NodeID]int),
		edgeIndex: make(map[[2]NodeID]int),
	}
}

func canonical(u, v NodeID) (NodeID, NodeID) {
	if u > v {
		return v, u
	}
	return u, v
}

// kmhToMS converts a km/h speed limit to meters per second.
func kmhToMS(kmh int) float64 {
	return float64(kmh) * 1000.0 / 3600.0
}

// clampSpeed clamps a speed limit into [1, 140] km/h.
func clampSpeed(v int) int {
	if v < 1 {
		return 1
	}
	if v > 140 {
		return 140
	}
	return v
}

// AddNode inserts a node. Returns ErrDuplicateNode if id already exists.
func (n *Network) AddNode(id NodeID, lon, lat float64) error {
	if _, exists := n.nodeIndex[id]; exists {
		return fmt.Errorf("node %d: %w", id, simerrors.ErrDuplicateNode)
	}
	idx := len(n.nodes)
	n.nodes = append(n.nodes, Node{ID: id, Lon: lon, Lat: lat})
	n.nodeIndex[id] = idx
	n.adj = append(n.adj, nil)
	return nil
}

// HasNode reports whether id has been inserted.
func (n *Network) HasNode(id NodeID) bool {
	_, ok := n.nodeIndex[id]
	return ok
}

// NodeCoords returns the immutable coordinates of id.
func (n *Network) NodeCoords(id NodeID) (lon, lat float64, ok bool) {
	idx, exists := n.nodeIndex[id]
	if !exists {
		return 0, 0, false
	}
	node := n.nodes[idx]
	return node.Lon, node.Lat, true
}

// HasStreet reports whether the canonicalized edge {u,v} already exists.
func (n *Network) HasStreet(u, v NodeID) bool {
	lo, hi := canonical(u, v)
	_, ok := n.edgeIndex[[2]NodeID{lo, hi}]
	return ok
}

// AddStreet inserts the undirected edge {u,v}, assigning it the next dense
// street index. Both endpoints must already exist and the edge must be
// absent, else ErrPreconditionFailed. The initial driving_time is
// length / speed_ms(max_speed), matching the reference's initial weight.
func (n *Network) AddStreet(u, v NodeID, length float64, maxSpeed int) (int, error) {
	if !n.HasNode(u) || !n.HasNode(v) {
		return 0, fmt.Errorf("street {%d,%d}: missing endpoint: %w", u, v, simerrors.ErrPreconditionFailed)
	}
	if n.HasStreet(u, v) {
		return 0, fmt.Errorf("street {%d,%d}: already exists: %w", u, v, simerrors.ErrPreconditionFailed)
	}
	lo, hi := canonical(u, v)
	ms := clampSpeed(maxSpeed)
	idx := len(n.streets)
	n.streets = append(n.streets, street{
		u: lo, v: hi,
		length:      length,
		maxSpeed:    ms,
		drivingTime: length / kmhToMS(ms),
	})
	n.edgeIndex[[2]NodeID{lo, hi}] = idx

	loIdx := n.nodeIndex[lo]
	hiIdx := n.nodeIndex[hi]
	n.adj[loIdx] = append(n.adj[loIdx], neighbor{nodeIdx: hiIdx, streetIdx: idx})
	n.adj[hiIdx] = append(n.adj[hiIdx], neighbor{nodeIdx: loIdx, streetIdx: idx})

	return idx, nil
}

// GetStreetIndex returns the dense index of edge {u,v}, if present.
func (n *Network) GetStreetIndex(u, v NodeID) (int, bool) {
	lo, hi := canonical(u, v)
	idx, ok := n.edgeIndex[[2]NodeID{lo, hi}]
	return idx, ok
}

// GetStreetByIndex returns the canonical endpoints of street index idx.
func (n *Network) GetStreetByIndex(idx int) (u, v NodeID, ok bool) {
	if idx < 0 || idx >= len(n.streets) {
		return 0, 0, false
	}
	s := n.streets[idx]
	return s.u, s.v, true
}

// StreetCount returns the number of streets, i.e. the length every per-edge
// dynamic array must have.
func (n *Network) StreetCount() int {
	return len(n.streets)
}

// SetDrivingTime overwrites street index idx's current weight. t must be
// positive, else ErrInvalidWeight. idx must be a valid street index, else
// ErrPreconditionFailed.
func (n *Network) SetDrivingTime(idx int, t float64) error {
	if idx < 0 || idx >= len(n.streets) {
		return fmt.Errorf("street index %d: %w", idx, simerrors.ErrPreconditionFailed)
	}
	if t <= 0 {
		return fmt.Errorf("driving_time %v: %w", t, simerrors.ErrInvalidWeight)
	}
	n.streets[idx].drivingTime = t
	return nil
}

// ChangeMaxSpeed adds delta to street idx's max speed, then clamps to
// [1, 140]. It reports true iff the effective value changed; a false return
// means clamping produced a no-op and the caller (road construction) should
// move on to the next candidate.
func (n *Network) ChangeMaxSpeed(idx int, delta int) (bool, error) {
	if idx < 0 || idx >= len(n.streets) {
		return false, fmt.Errorf("street index %d: %w", idx, simerrors.ErrPreconditionFailed)
	}
	old := n.streets[idx].maxSpeed
	next := clampSpeed(old + delta)
	n.streets[idx].maxSpeed = next
	return next != old, nil
}

// Streets returns every street in ascending street-index order.
func (n *Network) Streets() []StreetView {
	out := make([]StreetView, len(n.streets))
	for i, s := range n.streets {
		out[i] = StreetView{U: s.u, V: s.v, Index: i, Length: s.length, MaxSpeed: s.maxSpeed, DrivingTime: s.drivingTime}
	}
	return out
}

// NodeIDs returns every node id, in insertion order.
func (n *Network) NodeIDs() []NodeID {
	out := make([]NodeID, len(n.nodes))
	for i, node := range n.nodes {
		out[i] = node.ID
	}
	return out
}

// Clone deep-copies the network so a worker can mutate its own copy without
// affecting others sharing the same initial graph.
func (n *Network) Clone() *Network {
	clone := &Network{
		nodes:     append([]Node(nil), n.nodes...),
		streets:   append([]street(nil), n.streets...),
		nodeIndex: make(map[NodeID]int, len(n.nodeIndex)),
		edgeIndex: make(map[[2]NodeID]int, len(n.edgeIndex)),
		adj:       make([][]neighbor, len(n.adj)),
	}
	for k, v := range n.nodeIndex {
		clone.nodeIndex[k] = v
	}
	for k, v := range n.edgeIndex {
		clone.edgeIndex[k] = v
	}
	for i, neighbors := range n.adj {
		clone.adj[i] = append([]neighbor(nil), neighbors...)
	}
	return clone
}
