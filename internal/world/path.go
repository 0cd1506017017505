// Best-first grid search over a caller-supplied walkability predicate.
// Stateless per query; ties broken by insertion order so identical inputs
// always yield identical paths.
package world

import "container/heap"

// Point is a grid coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type pathNode struct {
	idx   int // cell index
	g     int // steps from start
	f     int // g + heuristic
	order int // insertion counter for stable tie-breaking
}

type pathHeap []pathNode

func (h pathHeap) Len() int { return len(h) }

func (h pathHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].order < h[j].order
}

func (h pathHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *pathHeap) Push(x any) { *h = append(*h, x.(pathNode)) }

func (h *pathHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// FindPath searches for a shortest path from from to to under 8-neighborhood
// movement, using the given walkability predicate. The destination itself
// must be walkable. Returns the ordered cells to step through, excluding the
// start and including the destination, or nil when unreachable.
func FindPath(size int, from, to Point, walkable func(x, y int) bool) []Point {
	if from == to {
		return []Point{}
	}
	if to.X < 0 || to.Y < 0 || to.X >= size || to.Y >= size || !walkable(to.X, to.Y) {
		return nil
	}

	n := size * size
	startIdx := from.Y*size + from.X
	goalIdx := to.Y*size + to.X

	gScore := make([]int, n)
	cameFrom := make([]int, n)
	closed := make([]bool, n)
	for i := range gScore {
		gScore[i] = -1
		cameFrom[i] = -1
	}
	gScore[startIdx] = 0

	open := &pathHeap{}
	counter := 0
	heap.Push(open, pathNode{
		idx: startIdx, g: 0,
		f: ChebyshevDist(from.X, from.Y, to.X, to.Y),
	})

	for open.Len() > 0 {
		cur := heap.Pop(open).(pathNode)
		if closed[cur.idx] {
			continue
		}
		closed[cur.idx] = true

		if cur.idx == goalIdx {
			return reconstruct(cameFrom, size, startIdx, goalIdx)
		}

		cx, cy := cur.idx%size, cur.idx/size
		for _, off := range neighborOffsets {
			nx, ny := cx+off[0], cy+off[1]
			if nx < 0 || ny < 0 || nx >= size || ny >= size {
				continue
			}
			ni := ny*size + nx
			if closed[ni] || !walkable(nx, ny) {
				continue
			}
			ng := cur.g + 1
			if gScore[ni] != -1 && gScore[ni] <= ng {
				continue
			}
			gScore[ni] = ng
			cameFrom[ni] = cur.idx
			counter++
			heap.Push(open, pathNode{
				idx:   ni,
				g:     ng,
				f:     ng + ChebyshevDist(nx, ny, to.X, to.Y),
				order: counter,
			})
		}
	}
	return nil
}

func reconstruct(cameFrom []int, size, start, goal int) []Point {
	var rev []int
	for cur := goal; cur != start; cur = cameFrom[cur] {
		rev = append(rev, cur)
	}
	path := make([]Point, len(rev))
	for i, idx := range rev {
		path[len(rev)-1-i] = Point{X: idx % size, Y: idx / size}
	}
	return path
}

// FindPathAdjacent searches for a path to any walkable cell adjacent to the
// target (or the target itself when walkable). Useful for reaching resource
// nodes and sites on otherwise blocking terrain. Returns the shortest
// candidate path; ties go to the lowest (x, y) lexical target.
func FindPathAdjacent(size int, from, to Point, walkable func(x, y int) bool) []Point {
	if walkable(to.X, to.Y) {
		if p := FindPath(size, from, to, walkable); p != nil {
			return p
		}
	}
	if Adjacent(from.X, from.Y, to.X, to.Y) {
		return []Point{}
	}

	var best []Point
	bestX, bestY := -1, -1
	for _, off := range lexicalOffsets {
		nx, ny := to.X+off[0], to.Y+off[1]
		if nx < 0 || ny < 0 || nx >= size || ny >= size || !walkable(nx, ny) {
			continue
		}
		p := FindPath(size, from, Point{X: nx, Y: ny}, walkable)
		if p == nil {
			continue
		}
		if best == nil || len(p) < len(best) ||
			(len(p) == len(best) && (nx < bestX || (nx == bestX && ny < bestY))) {
			best = p
			bestX, bestY = nx, ny
		}
	}
	return best
}

// lexicalOffsets orders the 8 neighbors by (x, y) lexical order of the
// resulting coordinate offset, for deterministic adjacent-target selection.
var lexicalOffsets = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}
