package engine

// LegalMoves returns the cells reachable from origin within a movement budget n.
//
// The set is built ring by ring: for each i in [0, n] it enumerates the offset
// pairs (±i, ±j) and (±j, ±i) for j in [min(n-i, i+1), max(n-i, i+1)), keeping
// only in-bounds cells, plus the origin itself. The shape this produces is not
// a Manhattan or Euclidean disk and is kept as-is.
//
// Results are cached per (origin, n); repeated calls return the same *CellSet.
func (e *Engine[E]) LegalMoves(origin Cell, n int) *CellSet {
	key := rangeKey{origin: origin, n: n}
	if set, ok := e.legalMoves[key]; ok {
		return set
	}

	set := newCellSet()
	if e.IsValid(origin) {
		set.add(origin)
	}

	x, y := origin.X, origin.Y
	for i := 0; i <= n; i++ {
		lo, hi := n-i, i+1
		if lo > hi {
			lo, hi = hi, lo
		}
		for j := lo; j < hi; j++ {
			candidates := [8]Cell{
				// i in x, j in y
				{x + i, y + j}, {x + i, y - j}, {x - i, y + j}, {x - i, y - j},
				// j in x, i in y
				{x + j, y + i}, {x + j, y - i}, {x - j, y + i}, {x - j, y - i},
			}
			for _, c := range candidates {
				if e.IsValid(c) {
					set.add(c)
				}
			}
		}
	}

	e.legalMoves[key] = set
	return set
}

// UnitPath returns the unit steps an entity takes walking from origin to dest,
// excluding origin and ending exactly at dest. Identical endpoints yield the
// single-cell path [origin].
//
// Each outer iteration advances the x axis by the whole steps its accumulated
// increment allows, then the y axis likewise. The dominant axis moves exactly
// one cell per iteration and the minor axis carries an exact integer remainder,
// so both axes land on dest after max(|dx|, |dy|) iterations.
//
// Callers must pass cells on the grid: an invalid endpoint yields nil and
// nothing is cached. Results are cached per (origin, dest). The returned slice
// must not be modified.
func (e *Engine[E]) UnitPath(origin, dest Cell) []Cell {
	if !e.IsValid(origin) || !e.IsValid(dest) {
		return nil
	}

	key := pathKey{origin: origin, dest: dest}
	if path, ok := e.unitPaths[key]; ok {
		return path
	}

	if origin == dest {
		path := []Cell{origin}
		e.unitPaths[key] = path
		return path
	}

	dx, sx := absSign(dest.X - origin.X)
	dy, sy := absSign(dest.Y - origin.Y)
	major := max(dx, dy)

	path := make([]Cell, 0, dx+dy)
	x, y := origin.X, origin.Y
	accX, accY := 0, 0

	for x != dest.X || y != dest.Y {
		if x != dest.X {
			accX += dx
			steps := accX / major
			accX -= steps * major
			for ; steps > 0; steps-- {
				x += sx
				path = append(path, Cell{x, y})
				if x == dest.X {
					break
				}
			}
		}

		if y != dest.Y {
			accY += dy
			steps := accY / major
			accY -= steps * major
			for ; steps > 0; steps-- {
				y += sy
				path = append(path, Cell{x, y})
				if y == dest.Y {
					break
				}
			}
		}
	}

	e.unitPaths[key] = path
	return path
}

// absSign returns |v| and the unit direction of v (0 when v is 0)
func absSign(v int) (int, int) {
	switch {
	case v > 0:
		return v, 1
	case v < 0:
		return -v, -1
	}
	return 0, 0
}
