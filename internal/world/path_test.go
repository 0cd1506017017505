package world

import "testing"

// gridWalkable builds a predicate from an ASCII map: '.' walkable, '#' not.
func gridWalkable(rows []string) (int, func(x, y int) bool) {
	size := len(rows)
	return size, func(x, y int) bool {
		if x < 0 || y < 0 || x >= size || y >= size {
			return false
		}
		return rows[y][x] == '.'
	}
}

func TestFindPathStraight(t *testing.T) {
	size, walkable := gridWalkable([]string{
		"....",
		"....",
		"....",
		"....",
	})
	p := FindPath(size, Point{0, 0}, Point{3, 3}, walkable)
	if p == nil {
		t.Fatal("no path found on open grid")
	}
	if len(p) != 3 {
		t.Errorf("path length %d, want 3 (diagonal)", len(p))
	}
	if p[len(p)-1] != (Point{3, 3}) {
		t.Errorf("path ends at %+v, want destination", p[len(p)-1])
	}
}

func TestFindPathAroundWall(t *testing.T) {
	size, walkable := gridWalkable([]string{
		".....",
		".###.",
		".#.#.",
		".###.",
		".....",
	})
	p := FindPath(size, Point{0, 2}, Point{4, 2}, walkable)
	if p == nil {
		t.Fatal("no path around wall")
	}
	for _, pt := range p {
		if !walkable(pt.X, pt.Y) {
			t.Fatalf("path crosses blocked cell %+v", pt)
		}
	}
}

func TestFindPathUnreachable(t *testing.T) {
	size, walkable := gridWalkable([]string{
		".....",
		"#####",
		".....",
		".....",
		".....",
	})
	if p := FindPath(size, Point{0, 0}, Point{0, 4}, walkable); p != nil {
		t.Errorf("expected unreachable, got path of length %d", len(p))
	}
	// The walled-in center of the previous test: unreachable target cell.
	if p := FindPath(size, Point{0, 0}, Point{2, 0}, func(x, y int) bool { return y == 0 && x != 1 }); p != nil {
		t.Errorf("expected unreachable through gap, got %v", p)
	}
}

func TestFindPathDeterministic(t *testing.T) {
	size, walkable := gridWalkable([]string{
		"........",
		"..##....",
		"..##....",
		"........",
		"....##..",
		"....##..",
		"........",
		"........",
	})
	first := FindPath(size, Point{0, 0}, Point{7, 7}, walkable)
	for i := 0; i < 10; i++ {
		p := FindPath(size, Point{0, 0}, Point{7, 7}, walkable)
		if len(p) != len(first) {
			t.Fatalf("run %d: length %d, want %d", i, len(p), len(first))
		}
		for j := range p {
			if p[j] != first[j] {
				t.Fatalf("run %d: step %d is %+v, want %+v", i, j, p[j], first[j])
			}
		}
	}
}

func TestFindPathSameCell(t *testing.T) {
	size, walkable := gridWalkable([]string{"..", ".."})
	p := FindPath(size, Point{1, 1}, Point{1, 1}, walkable)
	if p == nil || len(p) != 0 {
		t.Errorf("same-cell path = %v, want empty", p)
	}
}

func TestFindPathAdjacentBlockedTarget(t *testing.T) {
	// Target cell itself is blocked; path should stop next to it.
	size, walkable := gridWalkable([]string{
		"....",
		"..#.",
		"....",
		"....",
	})
	p := FindPathAdjacent(size, Point{0, 0}, Point{2, 1}, walkable)
	if p == nil {
		t.Fatal("no adjacent path")
	}
	end := p[len(p)-1]
	if !Adjacent(end.X, end.Y, 2, 1) {
		t.Errorf("path ends at %+v, not adjacent to target", end)
	}
}

func TestFindPathRespectsPredicate(t *testing.T) {
	// Scout-style predicate allows everything; the wall disappears.
	size, _ := gridWalkable([]string{
		".....",
		"#####",
		".....",
		".....",
		".....",
	})
	open := func(x, y int) bool { return x >= 0 && y >= 0 && x < size && y < size }
	if p := FindPath(size, Point{0, 0}, Point{0, 4}, open); p == nil {
		t.Error("permissive predicate should cross the wall")
	}
}
