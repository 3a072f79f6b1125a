package core

// NodeHandle identifies a circuit node with a generation counter so that
// handles embedded elsewhere (Grid cell payloads) stay valid across
// unrelated node removals: removing node 3 must never invalidate a handle
// to node 7, and a handle to a removed node must never silently resolve to
// whatever reused its slot. An arena with generation indices gives both,
// where raw indices into a compacting container give neither.
type NodeHandle struct {
	index uint32
	gen   uint32
}

// nodePayload is the data carried by a circuit terminal node.
type nodePayload struct {
	ID      InstanceID
	Voxel   VoxelID
	At      Coord
	Powered bool // mirrored edge power cache is not stored here; see edges
}

type circuitNode struct {
	gen     uint32
	alive   bool
	payload nodePayload
	edges   map[NodeHandle]bool // neighbor handle -> this edge's power flag, as seen from this node
}

// CircuitGraph is an undirected multigraph-shaped-as-simple-graph over
// circuit terminal nodes. Edges are idempotent: adding the same pair twice
// upserts rather than duplicating.
type CircuitGraph struct {
	nodes []circuitNode
	free  []uint32
}

// NewCircuitGraph constructs an empty graph.
func NewCircuitGraph() *CircuitGraph {
	return &CircuitGraph{}
}

// AddNode creates a new terminal node and returns its stable handle.
func (g *CircuitGraph) AddNode(id InstanceID, voxel VoxelID, at Coord) NodeHandle {
	p := nodePayload{ID: id, Voxel: voxel, At: at}
	if n := len(g.free); n > 0 {
		idx := g.free[n-1]
		g.free = g.free[:n-1]
		slot := &g.nodes[idx]
		slot.gen++
		slot.alive = true
		slot.payload = p
		slot.edges = make(map[NodeHandle]bool)
		return NodeHandle{index: idx, gen: slot.gen}
	}
	idx := uint32(len(g.nodes))
	g.nodes = append(g.nodes, circuitNode{gen: 1, alive: true, payload: p, edges: make(map[NodeHandle]bool)})
	return NodeHandle{index: idx, gen: 1}
}

func (g *CircuitGraph) slot(h NodeHandle) *circuitNode {
	if int(h.index) >= len(g.nodes) {
		return nil
	}
	n := &g.nodes[h.index]
	if !n.alive || n.gen != h.gen {
		return nil
	}
	return n
}

// Node returns the payload for a live handle.
func (g *CircuitGraph) Node(h NodeHandle) (nodePayload, bool) {
	n := g.slot(h)
	if n == nil {
		return nodePayload{}, false
	}
	return n.payload, true
}

// RemoveNode deletes a node and every edge incident to it.
func (g *CircuitGraph) RemoveNode(h NodeHandle) {
	n := g.slot(h)
	if n == nil {
		return
	}
	for neighbor := range n.edges {
		if nb := g.slot(neighbor); nb != nil {
			delete(nb.edges, h)
		}
	}
	n.alive = false
	n.edges = nil
	g.free = append(g.free, h.index)
}

// UpsertEdge adds an edge between a and b with the given power flag, or
// updates the flag if the edge already exists.
func (g *CircuitGraph) UpsertEdge(a, b NodeHandle, power bool) {
	na, nb := g.slot(a), g.slot(b)
	if na == nil || nb == nil {
		return
	}
	na.edges[b] = power
	nb.edges[a] = power
}

// SetEdgePower updates the power flag of an existing edge; a no-op if the
// edge does not exist.
func (g *CircuitGraph) SetEdgePower(a, b NodeHandle, power bool) {
	na, nb := g.slot(a), g.slot(b)
	if na == nil || nb == nil {
		return
	}
	if _, ok := na.edges[b]; !ok {
		return
	}
	na.edges[b] = power
	nb.edges[a] = power
}

// Neighbors returns the handles of every node adjacent to h.
func (g *CircuitGraph) Neighbors(h NodeHandle) []NodeHandle {
	n := g.slot(h)
	if n == nil {
		return nil
	}
	out := make([]NodeHandle, 0, len(n.edges))
	for nb := range n.edges {
		out = append(out, nb)
	}
	return out
}

// Edges enumerates every edge exactly once, as unordered (a, b) handle
// pairs.
func (g *CircuitGraph) Edges() [][2]NodeHandle {
	seen := make(map[[2]uint32]bool)
	var out [][2]NodeHandle
	for idx := range g.nodes {
		n := &g.nodes[idx]
		if !n.alive {
			continue
		}
		a := NodeHandle{index: uint32(idx), gen: n.gen}
		for b := range n.edges {
			key := [2]uint32{a.index, b.index}
			rkey := [2]uint32{b.index, a.index}
			if seen[key] || seen[rkey] {
				continue
			}
			seen[key] = true
			out = append(out, [2]NodeHandle{a, b})
		}
	}
	return out
}
