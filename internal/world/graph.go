// Travel graph: fiefs are nodes, shared hex edges are routes.
package world

import (
	"container/heap"
	"math"
	"slices"

	"github.com/SebaZ9/sz42-Jomini-sub006/internal/ids"
)

// Node is one fief on the travel graph.
type Node struct {
	Fief    ids.FiefID `json:"fief"`
	Coord   HexCoord   `json:"coord"`
	Terrain Terrain    `json:"terrain"`
}

// Graph answers adjacency, movement cost and route questions between fiefs.
type Graph struct {
	nodes   map[ids.FiefID]Node
	byCoord map[HexCoord]ids.FiefID
	adj     map[ids.FiefID][]ids.FiefID
}

// NewGraph builds a graph where fiefs on neighbouring hexes are connected.
func NewGraph(nodes []Node) *Graph {
	g := &Graph{
		nodes:   make(map[ids.FiefID]Node, len(nodes)),
		byCoord: make(map[HexCoord]ids.FiefID, len(nodes)),
		adj:     make(map[ids.FiefID][]ids.FiefID, len(nodes)),
	}
	for _, n := range nodes {
		g.nodes[n.Fief] = n
		g.byCoord[n.Coord] = n.Fief
	}
	for _, n := range nodes {
		for _, nc := range n.Coord.Neighbors() {
			if other, ok := g.byCoord[nc]; ok {
				g.adj[n.Fief] = append(g.adj[n.Fief], other)
			}
		}
		slices.Sort(g.adj[n.Fief])
	}
	return g
}

// Has reports whether the fief is on the graph.
func (g *Graph) Has(id ids.FiefID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node for a fief.
func (g *Graph) Node(id ids.FiefID) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every node, sorted by fief ID.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b Node) int {
		switch {
		case a.Fief < b.Fief:
			return -1
		case a.Fief > b.Fief:
			return 1
		}
		return 0
	})
	return out
}

// Neighbors returns the fiefs adjacent to id.
func (g *Graph) Neighbors(id ids.FiefID) []ids.FiefID {
	return g.adj[id]
}

// Adjacent reports whether a and b share an edge.
func (g *Graph) Adjacent(a, b ids.FiefID) bool {
	return slices.Contains(g.adj[a], b)
}

// TravelCost returns the days needed to move from one fief to an adjacent one.
// seasonMod scales the terrain cost of the destination.
func (g *Graph) TravelCost(from, to ids.FiefID, seasonMod float64) (float64, bool) {
	if !g.Adjacent(from, to) {
		return 0, false
	}
	return g.entryCost(to) * seasonMod, true
}

func (g *Graph) entryCost(id ids.FiefID) float64 {
	return TravelCost(g.nodes[id].Terrain)
}

// ValidRoute reports whether each consecutive pair in route (starting from
// start) is adjacent.
func (g *Graph) ValidRoute(start ids.FiefID, route []ids.FiefID) bool {
	prev := start
	for _, next := range route {
		if !g.Adjacent(prev, next) {
			return false
		}
		prev = next
	}
	return true
}

// ShortestPath returns the cheapest route from one fief to another, excluding
// the start. ok is false when no route exists.
func (g *Graph) ShortestPath(from, to ids.FiefID) ([]ids.FiefID, bool) {
	if !g.Has(from) || !g.Has(to) {
		return nil, false
	}
	if from == to {
		return []ids.FiefID{}, true
	}

	dist := map[ids.FiefID]float64{from: 0}
	prev := make(map[ids.FiefID]ids.FiefID)
	pq := &pathQueue{{fief: from, cost: 0}}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pathItem)
		if cur.fief == to {
			break
		}
		if cur.cost > dist[cur.fief] {
			continue
		}
		for _, next := range g.adj[cur.fief] {
			nd := cur.cost + g.entryCost(next)
			if d, seen := dist[next]; !seen || nd < d {
				dist[next] = nd
				prev[next] = cur.fief
				heap.Push(pq, pathItem{fief: next, cost: nd})
			}
		}
	}

	if _, ok := dist[to]; !ok {
		return nil, false
	}
	var path []ids.FiefID
	for at := to; at != from; at = prev[at] {
		path = append(path, at)
	}
	slices.Reverse(path)
	return path, true
}

// RouteCost sums the seasonal travel cost of a route starting at start.
func (g *Graph) RouteCost(start ids.FiefID, route []ids.FiefID, seasonMod float64) float64 {
	total := 0.0
	prev := start
	for _, next := range route {
		c, ok := g.TravelCost(prev, next, seasonMod)
		if !ok {
			return math.Inf(1)
		}
		total += c
		prev = next
	}
	return total
}

type pathItem struct {
	fief ids.FiefID
	cost float64
}

type pathQueue []pathItem

func (q pathQueue) Len() int { return len(q) }
func (q pathQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].fief < q[j].fief
}
func (q pathQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *pathQueue) Push(x any)   { *q = append(*q, x.(pathItem)) }
func (q *pathQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
