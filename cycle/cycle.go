// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cycle orchestrates the FAS nonlinear multigrid V-cycle of
// §4.6: pre-smooth, descend computing the FAS coarse-grid source,
// recurse to the coarsest depth, ascend prolonging the correction, and
// post-smooth. The sequential control flow mirrors gofem's stage-driven
// Main.Run loop (fem/main.go) even though the domain here is a grid
// hierarchy rather than a finite-element mesh.
package cycle

import (
	"github.com/cpmech/gosl/io"
	"github.com/go-numerics/fasmg/evaluator"
	"github.com/go-numerics/fasmg/hierarchy"
	"github.com/go-numerics/fasmg/smoother"
	"github.com/go-numerics/fasmg/transfer"
)

// Cycle drives one or more FAS V-cycles over a Hierarchy, using a
// Smoother bound to the same Evaluator at every depth.
type Cycle struct {
	Eval *evaluator.Evaluator
	H    *hierarchy.Hierarchy
	Sm   *smoother.Smoother

	// stats accumulates every Relax call's Stats since the last VCycles
	// reset, feeding Report.JacobiSweeps/Damped.
	stats smoother.Stats
}

// relax runs Sm.Relax at depth and folds its Stats into c.stats,
// regardless of whether the relax succeeds.
func (c *Cycle) relax(depth int) error {
	err := c.Sm.Relax(depth)
	c.stats.JacobiSweeps += c.Sm.LastStats.JacobiSweeps
	if c.Sm.LastStats.Damped {
		c.stats.Damped = true
	}
	return err
}

// VariableReport summarizes one variable's finest-grid u after a run
// (§6 "v_cycles prints progress and per-variable min/avg/max").
type VariableReport struct {
	Min, Avg, Max float64
	SignChanged   bool
}

// Report is the structured summary VCycles returns, supplementing §6's
// plain progress printing with a value a caller can inspect directly.
type Report struct {
	Cycles    int
	Variables []VariableReport

	// JacobiSweeps and Damped summarize the work of every Relax call made
	// during VCycles (pre-smooth, every ascend-phase smooth, post-smooth,
	// and the final smooth): the damped-Jacobi inner solve and line
	// search act on every equation together each sweep, so these are
	// necessarily run-wide rather than split per variable.
	JacobiSweeps int
	Damped       bool
}

// VCycle runs a single FAS V-cycle (§4.6).
func (c *Cycle) VCycle() error {
	dMax, dMin := c.H.MaxDepth, c.H.MinDepth
	n := c.Eval.Sys.N()

	if err := c.relax(dMax); err != nil {
		return err
	}

	for d := dMax; d > dMin; d-- {
		c.restrictAndComputeCoarseSource(d)
	}

	for e := 0; e < n; e++ {
		c.H.SnapshotInto(c.H.Tmp(e, dMin), e, dMin)
	}

	for d := dMin; d < dMax; d++ {
		if err := c.relax(d); err != nil {
			return err
		}
		for e := 0; e < n; e++ {
			tmp := c.H.Tmp(e, d)
			tmp.Sub(c.H.U(e, d), tmp) // tmp now holds the error made by this relaxation

			tmpFine := c.H.Tmp(e, d+1)
			transfer.Prolong(tmpFine, tmp) // interpolate the error directly into tmp at d+1

			c.H.U(e, d+1).AddAndSwap(tmpFine) // u[d+1] += tmpFine; tmpFine <- pre-correction u[d+1]
		}
	}

	return c.relax(dMax)
}

// restrictAndComputeCoarseSource descends from depth d to d-1, computing
// the FAS source τ at d-1 (§4.6 step 2). At d == dMax, coarse_src_e is
// left however the caller initialized it (zero for "solving F = 0").
//
// Restricting every equation's u happens in its own pass before any
// equation's source is evaluated at d-1: EvalGrid for equation e reads
// every variable an atom of e depends on, including u_j[d-1] for j != e
// in a coupled system, so evaluating e's source mid-loop would read a
// not-yet-restricted (stale or zero) value for any variable restricted
// on a later iteration.
func (c *Cycle) restrictAndComputeCoarseSource(d int) {
	n := c.Eval.Sys.N()
	for e := 0; e < n; e++ {
		transfer.Restrict(c.H.U(e, d-1), c.H.U(e, d))
	}
	for e := 0; e < n; e++ {
		tmpFine := c.H.Tmp(e, d)
		c.Eval.EvalGrid(tmpFine, e, d)
		tmpFine.Sub(c.H.CoarseSrc(e, d), tmpFine)

		tmpCoarse := c.H.Tmp(e, d-1)
		transfer.Restrict(tmpCoarse, tmpFine)

		coarseSrc := c.H.CoarseSrc(e, d-1)
		c.Eval.EvalGrid(coarseSrc, e, d-1)
		coarseSrc.AddScaled(1.0, tmpCoarse)
	}
}

// VCycles runs n V-cycles, each returning early on the first error, then
// performs a final smooth at d_max and builds a Report (§4.6, §6).
func (c *Cycle) VCycles(n int) (*Report, error) {
	c.stats = smoother.Stats{}
	for i := 0; i < n; i++ {
		io.Pf("> v-cycle %d/%d\n", i+1, n)
		if err := c.VCycle(); err != nil {
			return nil, err
		}
	}
	if err := c.relax(c.H.MaxDepth); err != nil {
		return nil, err
	}

	nVars := c.Eval.Sys.N()
	rep := &Report{Cycles: n, Variables: make([]VariableReport, nVars),
		JacobiSweeps: c.stats.JacobiSweeps, Damped: c.stats.Damped}
	for e := 0; e < nVars; e++ {
		u := c.H.U(e, c.H.MaxDepth)
		vr := VariableReport{Min: u.Min(), Avg: u.Average(), Max: u.Max(), SignChanged: u.SignsDiffer()}
		rep.Variables[e] = vr
		io.Pf("  u[%d]: min=%.6e avg=%.6e max=%.6e\n", e, vr.Min, vr.Avg, vr.Max)
		if vr.SignChanged {
			io.PfYellow("  u[%d]: sign changes across the domain (possible singular/nullspace solution)\n", e)
		}
	}
	io.Pf("  jacobi sweeps: %d, damped line search: %v\n", rep.JacobiSweeps, rep.Damped)
	return rep, nil
}
