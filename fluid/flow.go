package fluid

import "github.com/pthm-cable/cellflow/fixed"

type cell struct{ x, y int }

// propagateFlow pushes at most limit units of flow out of (x, y) along edges
// with spare velocity capacity. It returns the amount routed, whether a
// route reached a cell on the current path, and that cell. A route that
// closes on (x, y) itself reports false to the caller, since it only
// circulated flow around a loop.
func (s *Simulator) propagateFlow(x, y int, limit fixed.Num) (fixed.Num, bool, cell) {
	g := s.grid
	ff, vf := s.flow.Format(), s.velocity.Format()

	g.mark(x, y, g.stamp-1)
	routed := fixed.Zero(vf)
	for _, d := range Directions {
		nx, ny := d.Step(x, y)
		if g.IsWall(nx, ny) || g.used(nx, ny) >= g.stamp {
			continue
		}
		capacity := s.velocity.Get(x, y, d)
		flow := s.flow.Get(x, y, d)
		if flow.Equal(capacity) {
			continue
		}
		spare := fixed.Min(limit.To(ff), capacity.To(ff).Sub(flow))

		if g.used(nx, ny) == g.stamp-1 {
			s.flow.Add(x, y, d, spare)
			g.mark(x, y, g.stamp)
			return spare.To(vf), true, cell{nx, ny}
		}
		t, ok, end := s.propagateFlow(nx, ny, spare.To(vf))
		routed = routed.Add(t)
		if ok {
			s.flow.Add(x, y, d, t)
			g.mark(x, y, g.stamp)
			return t, end != (cell{x, y}), end
		}
	}
	g.mark(x, y, g.stamp)
	return routed, false, cell{}
}

// propagateSweeps repeats full-grid flow sweeps until one routes nothing.
func (s *Simulator) propagateSweeps(st *TickStats) {
	g := s.grid
	s.flow.Reset()
	unit := fixed.FromInt(s.velocity.Format(), 1)
	for {
		g.stamp += 2
		st.Sweeps++
		progressed := false
		for x := 0; x < g.rows; x++ {
			for y := 0; y < g.cols; y++ {
				if g.IsWall(x, y) || g.used(x, y) == g.stamp {
					continue
				}
				if t, _, _ := s.propagateFlow(x, y, unit); t.Sign() > 0 {
					progressed = true
				}
			}
		}
		if !progressed {
			return
		}
	}
}
