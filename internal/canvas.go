package internal

// CoordsIn rasterises the line with Bresenham's algorithm and returns every
// touched cell, endpoints included. The cell set is deterministic; swapping
// start and end only reverses traversal order.
func (l Line) CoordsIn() []Coord {
	x0, y0 := int(l.Start.X), int(l.Start.Y)
	x1, y1 := int(l.End.X), int(l.End.Y)

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	coords := make([]Coord, 0, max(dx, -dy)+1)
	err := dx + dy
	for {
		coords = append(coords, Coord{X: uint16(x0), Y: uint16(y0)})
		if x0 == x1 && y0 == y1 {
			return coords
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
