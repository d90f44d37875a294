package callback

import (
	"container/heap"
	"sort"
)

// Resolve returns the members in execution order.
//
// The order satisfies every requires and insert_before constraint whose
// names are both present, and otherwise keeps insertion order. It is
// recomputed on every call, so it always reflects the current members.
//
// Returns a CYCLIC_CONSTRAINT error (a *CycleError) if no such order exists.
func (g *Group[T]) Resolve() ([]Callback[T], error) {
	ordered, err := resolve(g.snapshot())
	if err != nil {
		var cycles [][]string
		if ce, ok := err.(cycleFound); ok {
			cycles = ce.cycles
		}
		cerr := cyclicConstraint(g.identity, cycles)
		g.logger.Warn("callback resolution failed",
			"group", g.identity,
			"error", cerr.Error(),
		)
		g.hooks.resolved(ResolveEvent{Group: g.identity, Err: cerr})
		return nil, cerr
	}

	names := make([]string, len(ordered))
	for i, cb := range ordered {
		names[i] = cb.name
	}
	g.logger.Debug("callbacks resolved",
		"group", g.identity,
		"order", names,
	)
	g.hooks.resolved(ResolveEvent{Group: g.identity, Order: names})
	return ordered, nil
}

// cycleFound carries the cycles out of resolve before they are attached
// to a group identity.
type cycleFound struct {
	cycles [][]string
}

func (c cycleFound) Error() string { return "cycle" }

// nameGraph is the constraint graph over distinct callback names.
//
// Nodes are indexed by rank: the insertion index of the first member with
// that name. Adjacency lists are sorted and free of duplicates.
type nameGraph struct {
	names []string
	rank  map[string]int
	out   [][]int
	indeg []int
}

// buildGraph constructs the graph for members.
//
// For each callback c:
//   - r in c.requires adds r → c
//   - t in c.insert_before adds c → t
//
// Edges with an endpoint outside the group are dropped.
func buildGraph[T any](members []Callback[T]) *nameGraph {
	g := &nameGraph{rank: make(map[string]int, len(members))}
	for _, cb := range members {
		if _, ok := g.rank[cb.name]; !ok {
			g.rank[cb.name] = len(g.names)
			g.names = append(g.names, cb.name)
		}
	}

	g.out = make([][]int, len(g.names))
	g.indeg = make([]int, len(g.names))
	seen := make(map[[2]int]bool)

	addEdge := func(from, to string) {
		f, okFrom := g.rank[from]
		t, okTo := g.rank[to]
		if !okFrom || !okTo {
			return
		}
		key := [2]int{f, t}
		if seen[key] {
			return
		}
		seen[key] = true
		g.out[f] = append(g.out[f], t)
		g.indeg[t]++
	}

	for _, cb := range members {
		for _, r := range cb.requires {
			addEdge(r, cb.name)
		}
		for _, t := range cb.insertBefore {
			addEdge(cb.name, t)
		}
	}

	for i := range g.out {
		sort.Ints(g.out[i])
	}
	return g
}

// resolve performs a stable topological sort of members.
//
// Kahn's algorithm with a min-heap on rank: whenever several names are
// ready, the one inserted first goes next. Members sharing a name are
// emitted together, in insertion order.
func resolve[T any](members []Callback[T]) ([]Callback[T], error) {
	g := buildGraph(members)

	byRank := make([][]Callback[T], len(g.names))
	for _, cb := range members {
		r := g.rank[cb.name]
		byRank[r] = append(byRank[r], cb)
	}

	indeg := append([]int(nil), g.indeg...)
	ready := &rankHeap{}
	for r, d := range indeg {
		if d == 0 {
			heap.Push(ready, r)
		}
	}

	ordered := make([]Callback[T], 0, len(members))
	visited := 0
	for ready.Len() > 0 {
		r := heap.Pop(ready).(int)
		visited++
		ordered = append(ordered, byRank[r]...)
		for _, next := range g.out[r] {
			indeg[next]--
			if indeg[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}

	if visited < len(g.names) {
		return nil, cycleFound{cycles: g.cycles()}
	}
	return ordered, nil
}

// cycles finds every strongly connected component that contains a cycle
// and returns one closed path through each, ordered by the rank of its
// first name.
func (g *nameGraph) cycles() [][]string {
	var out [][]string
	for _, scc := range g.tarjanSCC() {
		if len(scc) == 1 && !g.hasSelfLoop(scc[0]) {
			continue
		}
		out = append(out, g.cyclePath(scc))
	}
	sort.Slice(out, func(i, j int) bool {
		return g.rank[out[i][0]] < g.rank[out[j][0]]
	})
	return out
}

func (g *nameGraph) hasSelfLoop(node int) bool {
	for _, n := range g.out[node] {
		if n == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in rank order so the result is deterministic.
func (g *nameGraph) tarjanSCC() [][]int {
	var (
		index   = 0
		stack   []int
		indices = make([]int, len(g.names))
		lowlink = make([]int, len(g.names))
		onStack = make([]bool, len(g.names))
		sccs    [][]int
	)
	for i := range indices {
		indices[i] = -1
	}

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.out[v] {
			if indices[w] < 0 {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is the root of an SCC: pop it
		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Ints(scc)
			sccs = append(sccs, scc)
		}
	}

	for v := range g.names {
		if indices[v] < 0 {
			strongConnect(v)
		}
	}
	return sccs
}

// cyclePath returns the shortest closed path through the lowest-ranked
// member of scc, staying inside scc. scc must be sorted.
func (g *nameGraph) cyclePath(scc []int) []string {
	start := scc[0]
	if len(scc) == 1 {
		return []string{g.names[start], g.names[start]}
	}

	inSCC := make(map[int]bool, len(scc))
	for _, n := range scc {
		inSCC[n] = true
	}

	// BFS from start until an edge leads back to it.
	prev := map[int]int{start: -1}
	queue := []int{start}
	last := -1
	for len(queue) > 0 && last < 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.out[cur] {
			if !inSCC[next] {
				continue
			}
			if next == start {
				last = cur
				break
			}
			if _, seen := prev[next]; !seen {
				prev[next] = cur
				queue = append(queue, next)
			}
		}
	}

	var rev []int
	for n := last; n >= 0; n = prev[n] {
		rev = append(rev, n)
	}
	path := make([]string, 0, len(rev)+1)
	for i := len(rev) - 1; i >= 0; i-- {
		path = append(path, g.names[rev[i]])
	}
	return append(path, g.names[start])
}

// rankHeap is a min-heap of node ranks.
type rankHeap []int

func (h rankHeap) Len() int           { return len(h) }
func (h rankHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h rankHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *rankHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *rankHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
