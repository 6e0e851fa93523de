// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mg assembles a Solver out of equation, hierarchy, evaluator,
// smoother and cycle: the FAS nonlinear multigrid solver's external
// surface described in §6. It plays the role gofem's fem.Main plays for
// a finite-element simulation: owning construction inputs, exposing the
// build-time and solve-time API, and driving the run.
package mg

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/io"
	"github.com/go-numerics/fasmg/cycle"
	"github.com/go-numerics/fasmg/equation"
	"github.com/go-numerics/fasmg/evaluator"
	"github.com/go-numerics/fasmg/grid"
	"github.com/go-numerics/fasmg/hierarchy"
	"github.com/go-numerics/fasmg/smoother"
	"github.com/go-numerics/fasmg/stencil"
	"github.com/go-numerics/fasmg/transfer"
)

// Config collects the fixed global parameters §6 says the host supplies.
type Config struct {
	// MaxDepth is d_max; d_min is fixed at 1.
	MaxDepth int
	// HLenFrac is H_LEN_FRAC, the physical domain length per axis.
	HLenFrac float64
	// StencilOrder selects the diag2(K) constant (2, 4, 6 or 8).
	StencilOrder stencil.Order
	// MaxRelaxIters bounds the Smoother's outer inexact-Newton loop.
	MaxRelaxIters int
	// RelaxationTolerance is the max|residual| stopping criterion.
	RelaxationTolerance float64
	// Kind selects the relax_t variant (§4.5); defaults to InexactNewton.
	Kind smoother.Kind
}

// Solver is the FAS nonlinear multigrid solver, wiring an EquationAST to
// a Hierarchy of grids via an Evaluator, Smoother and Cycle.
type Solver struct {
	sys *equation.System
	h   *hierarchy.Hierarchy
	ev  *evaluator.Evaluator
	sm  *smoother.Smoother
	cy  *cycle.Cycle
	cfg Config
}

// New builds a Solver. finestU holds one caller-owned grid per variable
// at the finest depth (§6 "finest-level u grids, one per variable, shared
// storage"); moleculeN[e] is the number of molecules equation e will
// have atoms added to.
func New(finestU []*grid.Grid, moleculeN []int, cfg Config) *Solver {
	n := len(finestU)
	if len(moleculeN) != n {
		chk.Panic("mg: finestU/moleculeN must have the same length")
	}
	sys := equation.NewSystem(n)
	h := hierarchy.New(n, finestU, moleculeN, cfg.MaxDepth)
	ev := &evaluator.Evaluator{Sys: sys, H: h, Order: cfg.StencilOrder, HLenFrac: cfg.HLenFrac}
	sm := &smoother.Smoother{
		Eval:                ev,
		H:                   h,
		Kind:                cfg.Kind,
		MaxRelaxIters:       cfg.MaxRelaxIters,
		RelaxationTolerance: cfg.RelaxationTolerance,
	}
	cy := &cycle.Cycle{Eval: ev, H: h, Sm: sm}
	return &Solver{sys: sys, h: h, ev: ev, sm: sm, cy: cy, cfg: cfg}
}

// AddAtomToEqn is the build-time add_atom_to_eqn entry point of §6.
func (s *Solver) AddAtomToEqn(a equation.Atom, molID, eqnID int) {
	s.sys.AddAtom(eqnID, molID, 1.0, a)
}

// AddMoleculeToEqn registers a whole molecule (coefficient plus atoms) at
// once, the natural construction unit when the atoms are already known
// rather than added one at a time.
func (s *Solver) AddMoleculeToEqn(eqnID, molID int, coef float64, atoms ...equation.Atom) {
	for _, a := range atoms {
		s.sys.AddAtom(eqnID, molID, coef, a)
	}
}

// SetPolySrcAtPt writes the ρ grid at the finest depth (§6).
func (s *Solver) SetPolySrcAtPt(eqnID, molID, i, j, k int, value float64) {
	s.h.Rho(eqnID, molID, s.h.MaxDepth).Set(i, j, k, value)
}

// SetPolySrcFunc samples f once per finest-depth site and writes the
// result into the ρ grid for (eqnID, molID), the fun.Func-based
// counterpart to SetPolySrcAtPt for a source given as a continuous field
// rather than site-by-site literals. x is passed as the fractional
// position (i/nx, j/ny, k/nz) within the domain, t is fixed at 0 since ρ
// has no time dependence here.
func (s *Solver) SetPolySrcFunc(eqnID, molID int, f fun.Func) {
	g := s.h.Rho(eqnID, molID, s.h.MaxDepth)
	nx, ny, nz := g.Nx(), g.Ny(), g.Nz()
	x := make([]float64, 3)
	for i := 0; i < nx; i++ {
		x[0] = float64(i) / float64(nx)
		for j := 0; j < ny; j++ {
			x[1] = float64(j) / float64(ny)
			for k := 0; k < nz; k++ {
				x[2] = float64(k) / float64(nz)
				g.Set(i, j, k, f.F(0, x))
			}
		}
	}
}

// InitializeRhoHierarchy restricts every ρ grid from the finest depth
// down to every coarser depth (§6); call once after all ρ values are
// set and before the first VCycle.
func (s *Solver) InitializeRhoHierarchy() {
	s.sys.Validate()
	for e := 0; e < s.sys.N(); e++ {
		for m := 0; m < s.h.MoleculeN(e); m++ {
			for d := s.h.MaxDepth; d > s.h.MinDepth; d-- {
				transfer.Restrict(s.h.Rho(e, m, d-1), s.h.Rho(e, m, d))
			}
		}
	}
}

// VCycle runs one FAS V-cycle (§6 v_cycle).
func (s *Solver) VCycle() error { return s.cy.VCycle() }

// VCycles runs n V-cycles plus a finalization smooth and a summary
// (§6 v_cycles).
func (s *Solver) VCycles(n int) (*cycle.Report, error) { return s.cy.VCycles(n) }

// Hierarchy exposes the underlying grid hierarchy for callers that need
// direct access (diagnostics, example drivers).
func (s *Solver) Hierarchy() *hierarchy.Hierarchy { return s.h }

// System exposes the underlying equation system.
func (s *Solver) System() *equation.System { return s.sys }

// PrintSolutionStrip prints variable eqnID's values along the x-axis at
// (y,z) = (ny/4, nz/4) of depth, a quick 1D slice for eyeballing a
// solution's shape without dumping the whole grid.
func (s *Solver) PrintSolutionStrip(eqnID, depth int) {
	g := s.h.U(eqnID, depth)
	ny, nz := g.Ny(), g.Nz()
	io.Pf("Values: { ")
	for i := 0; i < g.Nx(); i++ {
		io.Pf("%.15f, ", g.At(i, ny/4, nz/4))
	}
	io.Pf("}\n")
}
