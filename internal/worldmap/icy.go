package worldmap

import "crossyarena/server/internal/rng"

// icyHeights lists the valid heights for an icy cluster. 7 and 9 appear
// twice, matching the source's weighting toward mid-sized clusters.
var icyHeights = []int32{5, 7, 7, 9, 9, 13}

const (
	maxOuterSeeds     = 256
	maxRefinementIter = 8
	icyFillProb       = 0.6
	icyClearProb      = 0.15
	icyAddBlockProb   = 0.15
)

// icyVerifyResult classifies the outcome of verifying a candidate layout.
type icyVerifyResult uint8

const (
	icySuccess icyVerifyResult = iota
	icyBadTrivial
	icyBadDoesntReachEnd
	icyBadZork
)

// blockGrid is a height x ScreenSize grid of blocked cells, row-major, each
// row packed into a BitMap64.
type blockGrid struct {
	height int32
	rows   []BitMap64
}

func newBlockGrid(height int32) blockGrid {
	return blockGrid{height: height, rows: make([]BitMap64, height)}
}

func (g blockGrid) inBounds(x, y int32) bool {
	return x >= 0 && x < ScreenSize && y >= 0 && y < g.height
}

func (g blockGrid) get(x, y int32) bool {
	if !g.inBounds(x, y) {
		return true // out of bounds behaves as blocked, matching a walled cluster
	}
	return g.rows[y].Get(int(x))
}

func (g *blockGrid) set(x, y int32, v bool) {
	if !g.inBounds(x, y) {
		return
	}
	g.rows[y] = g.rows[y].Set(int(x), v)
}

// icyNode identifies a node in the ice reachability graph: the virtual
// Start/End rails, or a specific resting position. A piece resting at a
// cell can slide off in any of the four directions, however it got there.
type icyNode struct {
	kind icyNodeKind
	x, y int32
}

type icyNodeKind uint8

const (
	nodeStart icyNodeKind = iota
	nodeEnd
	nodePos
)

type coordsDelta struct{ dx, dy int32 }

var icyDirections = []coordsDelta{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}

// icyGraph is an adjacency list over icyNode built from a candidate block
// layout.
type icyGraph struct {
	nodes []icyNode
	index map[icyNode]int
	edges [][]int
}

func newIcyGraph() *icyGraph {
	return &icyGraph{index: map[icyNode]int{}}
}

func (g *icyGraph) nodeIdx(n icyNode) int {
	if i, ok := g.index[n]; ok {
		return i
	}
	i := len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.edges = append(g.edges, nil)
	g.index[n] = i
	return i
}

func (g *icyGraph) addEdge(from, to icyNode) {
	fi := g.nodeIdx(from)
	ti := g.nodeIdx(to)
	g.edges[fi] = append(g.edges[fi], ti)
}

// buildIcyGraph constructs the full reachability graph for a candidate
// block layout: for every empty interior cell and every direction, slide
// until hitting a block or leaving the grid; the landing spot (or Start/End
// if it exits top/bottom) is the destination of an edge from that cell's
// node. Top-row empty columns also get a direct Start
// edge, and bottom-row empty columns a direct End edge, matching entering
// the cluster from outside.
func buildIcyGraph(g blockGrid) *icyGraph {
	graph := newIcyGraph()

	slide := func(x, y int32, d coordsDelta) icyNode {
		cx, cy := x, y
		for {
			nx, ny := cx+d.dx, cy+d.dy
			if ny < 0 {
				return icyNode{kind: nodeStart}
			}
			if ny >= g.height {
				return icyNode{kind: nodeEnd}
			}
			if nx < 0 || nx >= ScreenSize || g.get(nx, ny) {
				return icyNode{kind: nodePos, x: cx, y: cy}
			}
			cx, cy = nx, ny
		}
	}

	for y := int32(0); y < g.height; y++ {
		for x := int32(0); x < ScreenSize; x++ {
			if g.get(x, y) {
				continue
			}
			for _, d := range icyDirections {
				dest := slide(x, y, d)
				graph.addEdge(icyNode{kind: nodePos, x: x, y: y}, dest)
			}
		}
	}

	for x := int32(0); x < ScreenSize; x++ {
		if !g.get(x, 0) {
			dest := slide(x, -1, coordsDelta{0, 1})
			graph.addEdge(icyNode{kind: nodeStart}, dest)
		}
		bottom := g.height - 1
		if !g.get(x, bottom) {
			dest := slide(x, g.height, coordsDelta{0, -1})
			graph.addEdge(icyNode{kind: nodeEnd}, dest)
		}
	}

	return graph
}

// verifyIcyGraph classifies the candidate layout per the contract: success
// only if End is forward-reachable from Start, Start has no direct edge to
// End, and no node reachable forward from Start is unreachable backward
// from Start (a "Zork" one-way trap).
func verifyIcyGraph(graph *icyGraph) icyVerifyResult {
	startNode := icyNode{kind: nodeStart}
	endNode := icyNode{kind: nodeEnd}
	startIdx, hasStart := graph.index[startNode]
	endIdx, hasEnd := graph.index[endNode]
	if !hasStart || !hasEnd {
		return icyBadDoesntReachEnd
	}

	forward := bfsReachable(graph, startIdx)
	if !forward[endIdx] {
		return icyBadDoesntReachEnd
	}

	for _, to := range graph.edges[startIdx] {
		if to == endIdx {
			return icyBadTrivial
		}
	}

	reverse := reverseGraph(graph)
	backward := bfsReachable(reverse, startIdx)

	for i, reachableForward := range forward {
		if reachableForward && !backward[i] {
			return icyBadZork
		}
	}

	return icySuccess
}

func bfsReachable(graph *icyGraph, start int) []bool {
	visited := make([]bool, len(graph.nodes))
	visited[start] = true
	queue := []int{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, to := range graph.edges[n] {
			if !visited[to] {
				visited[to] = true
				queue = append(queue, to)
			}
		}
	}
	return visited
}

func reverseGraph(graph *icyGraph) *icyGraph {
	rev := newIcyGraph()
	rev.nodes = append([]icyNode{}, graph.nodes...)
	rev.edges = make([][]int, len(graph.nodes))
	for n, idx := range graph.index {
		rev.index[n] = idx
	}
	for from, tos := range graph.edges {
		for _, to := range tos {
			rev.edges[to] = append(rev.edges[to], from)
		}
	}
	return rev
}

// genIcySection produces a solvable, non-trivial, trap-free block layout
// for a cluster of the given height, retrying up to maxOuterSeeds distinct
// outer seeds, each refined up to maxRefinementIter times. Returns false if
// every attempt failed, in which case the caller should fall back to a
// plain Path cluster rather than block the tick.
func genIcySection(r rng.FroggyRand, height int32) (blockGrid, bool) {
	for outer := 0; outer < maxOuterSeeds; outer++ {
		seedR := r.Sub("icy_outer", outer)
		grid := newBlockGrid(height)
		for y := int32(0); y < height; y++ {
			for x := int32(0); x < ScreenSize; x++ {
				if seedR.GenUnit("fill", x, y) < icyFillProb {
					grid.set(x, y, true)
				}
			}
		}

		for refine := 0; refine < maxRefinementIter; refine++ {
			graph := buildIcyGraph(grid)
			switch verifyIcyGraph(graph) {
			case icySuccess:
				return grid, true
			case icyBadDoesntReachEnd:
				for y := int32(0); y < height; y++ {
					for x := int32(0); x < ScreenSize; x++ {
						if grid.get(x, y) && seedR.GenUnit("clear", refine, x, y) < icyClearProb {
							grid.set(x, y, false)
						}
					}
				}
			case icyBadTrivial:
				for y := int32(0); y < height; y++ {
					for x := int32(0); x < ScreenSize; x++ {
						if !grid.get(x, y) && seedR.GenUnit("add", refine, x, y) < icyAddBlockProb {
							grid.set(x, y, true)
						}
					}
				}
			case icyBadZork:
				// No cheap local repair for a Zork trap; move to the next
				// outer seed entirely.
				refine = maxRefinementIter
			}
		}
	}
	return blockGrid{}, false
}

// pickIcyHeight deterministically selects a cluster height from
// icyHeights for the given row generator state.
func pickIcyHeight(r rng.FroggyRand) int32 {
	return rng.Choose(r, icyHeights, "icy_height")
}
