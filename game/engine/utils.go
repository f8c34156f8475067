package engine

import "math"

// Distance returns the Euclidean distance between two cells. Neither cell
// needs to be on the grid.
func Distance(a, b Cell) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}

// ManhattanDistance calculates the Manhattan distance between two cells
func ManhattanDistance(from, to Cell) int {
	dx, _ := absSign(from.X - to.X)
	dy, _ := absSign(from.Y - to.Y)
	return dx + dy
}

// ChebyshevDistance returns the king-move distance between two cells
func ChebyshevDistance(from, to Cell) int {
	dx, _ := absSign(from.X - to.X)
	dy, _ := absSign(from.Y - to.Y)
	return max(dx, dy)
}
