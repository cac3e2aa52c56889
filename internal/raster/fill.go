package raster

import "image"

// FloodFill collects the 4-connected pixels reachable from seed without
// crossing outline pixels, for which same reports true. Indices are
// y*width+x. A seed on an outline or failing same yields nothing.
func FloodFill(m *Mask, seed image.Point, same func(x, y int) bool) []int {
	w, h := m.Width(), m.Height()
	if m.Outline(seed.X, seed.Y) || !same(seed.X, seed.Y) {
		return nil
	}

	visited := make([]bool, w*h)
	queue := []int{seed.Y*w + seed.X}
	visited[queue[0]] = true
	result := make([]int, 0, 1024)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, current)

		x, y := current%w, current/w
		adjacent := [4]image.Point{
			{X: x, Y: y - 1},
			{X: x, Y: y + 1},
			{X: x - 1, Y: y},
			{X: x + 1, Y: y},
		}
		for _, adj := range adjacent {
			if adj.X < 0 || adj.Y < 0 || adj.X >= w || adj.Y >= h {
				continue
			}
			i := adj.Y*w + adj.X
			if visited[i] {
				continue
			}
			visited[i] = true
			if m.Outline(adj.X, adj.Y) || !same(adj.X, adj.Y) {
				continue
			}
			queue = append(queue, i)
		}
	}

	return result
}
