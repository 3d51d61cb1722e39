package fluid

import "github.com/pthm-cable/cellflow/fixed"

// moveProb sums the non-negative outgoing velocities of (x, y) toward open,
// unresolved neighbors.
func (s *Simulator) moveProb(x, y int) fixed.Num {
	g := s.grid
	sum := fixed.Zero(s.formats.Pressure)
	for _, d := range Directions {
		nx, ny := d.Step(x, y)
		if g.IsWall(nx, ny) || g.used(nx, ny) == g.stamp {
			continue
		}
		if v := s.velocity.Get(x, y, d); v.Sign() >= 0 {
			sum = sum.Add(v.To(sum.Format()))
		}
	}
	return sum
}

// propagateMove tries to move the contents of (x, y) along a chain of cells
// chosen in proportion to outgoing velocity. The chain succeeds when it
// returns to the cell that started it; every step then shifts its contents
// one cell along the chain.
func (s *Simulator) propagateMove(x, y int, first bool) bool {
	g := s.grid
	if first {
		g.mark(x, y, g.stamp-1)
	} else {
		g.mark(x, y, g.stamp)
	}

	ok := false
	var nx, ny int
	for !ok {
		var cumulative [4]fixed.Num
		sum := fixed.Zero(s.formats.Pressure)
		for i, d := range Directions {
			tx, ty := d.Step(x, y)
			if !g.IsWall(tx, ty) && g.used(tx, ty) != g.stamp {
				if v := s.velocity.Get(x, y, d); v.Sign() >= 0 {
					sum = sum.Add(v.To(sum.Format()))
				}
			}
			cumulative[i] = sum
		}
		if sum.IsZero() {
			break
		}

		draw := sum.MulFloat(s.rng.Float64())
		d := pick(cumulative, draw)
		nx, ny = d.Step(x, y)
		ok = g.used(nx, ny) == g.stamp-1 || s.propagateMove(nx, ny, false)
	}
	g.mark(x, y, g.stamp)

	for _, d := range Directions {
		tx, ty := d.Step(x, y)
		if !g.IsWall(tx, ty) && g.used(tx, ty) < g.stamp-1 && s.velocity.Get(x, y, d).Sign() < 0 {
			s.propagateStop(tx, ty, false)
		}
	}
	if ok && !first {
		s.swapParticles(x, y, nx, ny)
	}
	return ok
}

// pick returns the first direction whose cumulative weight exceeds draw. A
// draw equal to the total falls back to the last direction with weight.
func pick(cumulative [4]fixed.Num, draw fixed.Num) Direction {
	for i, c := range cumulative {
		if c.Greater(draw) {
			return Direction(i)
		}
	}
	for i := len(cumulative) - 1; i > 0; i-- {
		if cumulative[i].Greater(cumulative[i-1]) {
			return Direction(i)
		}
	}
	return Up
}

// propagateStop resolves (x, y) as not moving this tick and spreads that to
// neighbors that could only have moved through it. Unless forced, the stop
// is deferred while (x, y) still has positive velocity toward an
// unvisited neighbor.
func (s *Simulator) propagateStop(x, y int, force bool) {
	g := s.grid
	if !force {
		for _, d := range Directions {
			nx, ny := d.Step(x, y)
			if !g.IsWall(nx, ny) && g.used(nx, ny) < g.stamp-1 && s.velocity.Get(x, y, d).Sign() > 0 {
				return
			}
		}
	}
	g.mark(x, y, g.stamp)
	for _, d := range Directions {
		nx, ny := d.Step(x, y)
		if g.IsWall(nx, ny) || g.used(nx, ny) == g.stamp || s.velocity.Get(x, y, d).Sign() > 0 {
			continue
		}
		s.propagateStop(nx, ny, false)
	}
}

// moveParticles runs one movement pass over the grid.
func (s *Simulator) moveParticles(st *TickStats) {
	g := s.grid
	g.stamp += 2
	for x := 0; x < g.rows; x++ {
		for y := 0; y < g.cols; y++ {
			if g.IsWall(x, y) || g.used(x, y) == g.stamp {
				continue
			}
			if startsMove(s.moveProb(x, y), s.rng.Float64()) {
				st.Attempts++
				if s.propagateMove(x, y, true) {
					st.Moves++
				}
			} else {
				s.propagateStop(x, y, true)
				st.Stops++
			}
		}
	}
}

// startsMove reports whether a cell with move probability prob attempts a
// move for a uniform draw in [0, 1). The draw is not quantized.
func startsMove(prob fixed.Num, draw float64) bool {
	return prob.Float64() > draw
}

// swapParticles exchanges the full particle record of two cells.
func (s *Simulator) swapParticles(ax, ay, bx, by int) {
	s.grid.swap(ax, ay, bx, by)
	va, vb := s.velocity.Vector(ax, ay), s.velocity.Vector(bx, by)
	*va, *vb = *vb, *va
	s.swaps++
}
