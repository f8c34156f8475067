package engine

import "math"

// BulletPath returns the cells a projectile crosses flying from origin toward
// target, starting just past origin. The walk stops after maxRange cells or
// when the next cell would leave the grid; target only fixes the direction.
//
// Axis-aligned shots step one cell at a time. Other shots start at the center
// of origin and advance by (Δx, Δy) per step, where the dominant axis moves a
// full cell and the minor axis moves by the slope-scaled fraction; each point
// is floored to its cell.
//
// Results are cached per (origin, target, maxRange). The returned slice must
// not be modified.
func (e *Engine[E]) BulletPath(origin, target Cell, maxRange int) []Cell {
	key := bulletKey{origin: origin, target: target, maxRange: maxRange}
	if path, ok := e.bulletPaths[key]; ok {
		return path
	}

	path := e.traceBullet(origin, target, maxRange)
	e.bulletPaths[key] = path
	return path
}

func (e *Engine[E]) traceBullet(origin, target Cell, maxRange int) []Cell {
	path := []Cell{}
	if maxRange <= 0 || origin == target {
		return path
	}

	dx := float64(target.X - origin.X)
	dy := float64(target.Y - origin.Y)

	if dx == 0 || dy == 0 {
		_, sx := absSign(target.X - origin.X)
		_, sy := absSign(target.Y - origin.Y)
		c := origin
		for step := 0; step < maxRange; step++ {
			c = Cell{c.X + sx, c.Y + sy}
			if !e.IsValid(c) {
				break
			}
			path = append(path, c)
		}
		return path
	}

	slope := math.Abs(dy / dx)
	stepX, stepY := 1.0, slope
	if slope >= 1 {
		stepX, stepY = 1/slope, 1.0
	}
	if dx < 0 {
		stepX = -stepX
	}
	if dy < 0 {
		stepY = -stepY
	}

	// Start from the cell center so the first step never sits on a boundary
	fx := float64(origin.X) + 0.5
	fy := float64(origin.Y) + 0.5
	for step := 0; step < maxRange; step++ {
		fx += stepX
		fy += stepY
		c := Cell{int(math.Floor(fx)), int(math.Floor(fy))}
		if !e.IsValid(c) {
			break
		}
		path = append(path, c)
	}
	return path
}
