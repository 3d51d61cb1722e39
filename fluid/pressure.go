package fluid

import (
	"fmt"

	"github.com/pthm-cable/cellflow/fixed"
)

// applyGravity adds g to the downward velocity of every open cell with an
// open cell below it.
func (s *Simulator) applyGravity(st *TickStats) {
	g := s.grid
	for x := 0; x < g.rows; x++ {
		for y := 0; y < g.cols; y++ {
			if g.IsWall(x, y) || g.IsWall(Down.Step(x, y)) {
				continue
			}
			s.velocity.Add(x, y, Down, s.gravity)
			st.GravityInjected = st.GravityInjected.Add(s.gravity)
		}
	}
}

// exchangePressure turns pressure differences from the previous tick into
// velocity. A difference is first absorbed by the neighbor's reverse velocity;
// what remains accelerates flow toward the neighbor and lowers the source
// pressure, split across the source's open directions.
func (s *Simulator) exchangePressure(st *TickStats) {
	g := s.grid
	pf, vf := s.formats.Pressure, s.formats.Velocity
	g.snapshotPressure()
	for x := 0; x < g.rows; x++ {
		for y := 0; y < g.cols; y++ {
			if g.IsWall(x, y) {
				continue
			}
			here := g.prevPressure[g.index(x, y)]
			for _, d := range Directions {
				nx, ny := d.Step(x, y)
				if g.IsWall(nx, ny) {
					continue
				}
				there := g.prevPressure[g.index(nx, ny)]
				if !there.Less(here) {
					continue
				}
				force := here.Sub(there)
				back := d.Opposite()
				rhoN := s.density(g.Kind(nx, ny))
				contr := s.velocity.Get(nx, ny, back)
				absorbed := contr.Mul(rhoN)
				if force.LessEq(absorbed) {
					s.velocity.Set(nx, ny, back, contr.Sub(force.To(vf).Div(rhoN)))
					continue
				}
				force = force.Sub(absorbed).To(pf)
				s.velocity.Set(nx, ny, back, fixed.Zero(vf))
				s.velocity.Add(x, y, d, force.To(vf).Div(s.density(g.Kind(x, y))))

				share := force.DivInt(g.OpenNeighbors(x, y))
				g.addPressure(x, y, share.Neg())
				st.TotalDeltaP = st.TotalDeltaP.Sub(share)
			}
		}
	}
}

// clampVelocity cuts every positive velocity down to the flow actually
// routed through it and converts the unrouted remainder into pressure on the
// downstream cell, or on the cell itself when the edge ends in a wall.
func (s *Simulator) clampVelocity(st *TickStats) {
	g := s.grid
	ff, pf := s.formats.Flow, s.formats.Pressure
	for x := 0; x < g.rows; x++ {
		for y := 0; y < g.cols; y++ {
			if g.IsWall(x, y) {
				continue
			}
			kind := g.Kind(x, y)
			for _, d := range Directions {
				old := s.velocity.Get(x, y, d)
				if old.Sign() <= 0 {
					continue
				}
				routed := s.flow.Get(x, y, d)
				if routed.Greater(old) {
					panic(fmt.Sprintf("fluid: flow %v exceeds velocity %v at (%d, %d) %v", routed, old, x, y, d))
				}
				s.velocity.Set(x, y, d, routed)

				unrouted := old.To(ff).Sub(routed)
				st.Outgoing = st.Outgoing.Add(old.To(ff))
				st.RoutedFlow = st.RoutedFlow.Add(routed)
				st.Clamped = st.Clamped.Add(unrouted)

				force := unrouted.Mul(s.density(kind))
				if kind == Liquid {
					force = force.Mul(fixed.FromFloat(force.Format(), s.damping))
				}
				tx, ty := d.Step(x, y)
				if g.IsWall(tx, ty) {
					tx, ty = x, y
				}
				share := force.DivInt(g.OpenNeighbors(tx, ty)).To(pf)
				g.addPressure(tx, ty, share)
				st.TotalDeltaP = st.TotalDeltaP.Add(share)
			}
		}
	}
}
