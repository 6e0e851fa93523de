// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hierarchy implements the per-variable pyramid of grids at
// depths d ∈ [d_min…d_max] described in §3/§5 of the design: five
// parallel grid hierarchies per variable (u, coarse_src, tmp, damping_v,
// jac_rhs) plus one ρ-hierarchy per (equation, molecule). It follows
// gofem's struct-of-arrays Domain layout rather than a pointer web of
// owned grids.
package hierarchy

import (
	"github.com/cpmech/gosl/chk"
	"github.com/go-numerics/fasmg/grid"
)

// Dims is the grid size at one depth.
type Dims struct{ NX, NY, NZ int }

// coarsen implements n_{d-1} = ⌈n_d/2⌉.
func coarsen(n int) int { return (n + 1) / 2 }

// varGrids is Vec<Grid> indexed by depth index, one per hierarchy per
// variable (§9 "Multiple parallel hierarchies").
type varGrids []*grid.Grid

// Hierarchy owns every grid the solver needs except the finest-depth u
// grids, which alias caller-provided storage (§3 "Ownership").
type Hierarchy struct {
	N                  int // variable count
	MinDepth, MaxDepth int
	Dims               []Dims // indexed by depth index = depth - MinDepth

	u        []varGrids // [var][depthIdx]
	coarseSrc []varGrids
	tmp       []varGrids
	dampingV  []varGrids
	jacRHS    []varGrids

	moleculeN []int
	rho       [][]varGrids // rho[eqnID][molID][depthIdx]
}

// New allocates a Hierarchy for n variables, with finestU[e] aliased as
// the finest-depth u grid for variable e (§3 "the top-level (finest) grid
// for each variable may alias user-provided storage"). moleculeN[e] is
// the number of ρ grids equation e needs. minDepth is fixed at 1.
func New(n int, finestU []*grid.Grid, moleculeN []int, maxDepth int) *Hierarchy {
	if len(finestU) != n || len(moleculeN) != n {
		chk.Panic("hierarchy: finestU/moleculeN must have length n=%d", n)
	}
	minDepth := 1
	totalDepths := maxDepth - minDepth + 1
	if totalDepths < 1 {
		chk.Panic("hierarchy: maxDepth %d must be >= minDepth %d", maxDepth, minDepth)
	}

	h := &Hierarchy{
		N: n, MinDepth: minDepth, MaxDepth: maxDepth,
		Dims:      make([]Dims, totalDepths),
		u:         make([]varGrids, n),
		coarseSrc: make([]varGrids, n),
		tmp:       make([]varGrids, n),
		dampingV:  make([]varGrids, n),
		jacRHS:    make([]varGrids, n),
		moleculeN: moleculeN,
		rho:       make([][]varGrids, n),
	}

	finestIdx := h.DepthIndex(maxDepth)
	h.Dims[finestIdx] = Dims{finestU[0].Nx(), finestU[0].Ny(), finestU[0].Nz()}
	for d := maxDepth - 1; d >= minDepth; d-- {
		idx := h.DepthIndex(d)
		fine := h.Dims[idx+1]
		h.Dims[idx] = Dims{coarsen(fine.NX), coarsen(fine.NY), coarsen(fine.NZ)}
	}

	for e := 0; e < n; e++ {
		h.u[e] = make(varGrids, totalDepths)
		h.coarseSrc[e] = make(varGrids, totalDepths)
		h.tmp[e] = make(varGrids, totalDepths)
		h.dampingV[e] = make(varGrids, totalDepths)
		h.jacRHS[e] = make(varGrids, totalDepths)

		for d := maxDepth; d >= minDepth; d-- {
			idx := h.DepthIndex(d)
			dims := h.Dims[idx]
			if d == maxDepth {
				h.u[e][idx] = finestU[e]
			} else {
				h.u[e][idx] = grid.New(dims.NX, dims.NY, dims.NZ)
			}
			h.coarseSrc[e][idx] = grid.New(dims.NX, dims.NY, dims.NZ)
			h.tmp[e][idx] = grid.New(dims.NX, dims.NY, dims.NZ)
			h.dampingV[e][idx] = grid.New(dims.NX, dims.NY, dims.NZ)
			h.jacRHS[e][idx] = grid.New(dims.NX, dims.NY, dims.NZ)
		}

		h.rho[e] = make([]varGrids, moleculeN[e])
		for m := 0; m < moleculeN[e]; m++ {
			h.rho[e][m] = make(varGrids, totalDepths)
			for d := maxDepth; d >= minDepth; d-- {
				idx := h.DepthIndex(d)
				dims := h.Dims[idx]
				h.rho[e][m][idx] = grid.New(dims.NX, dims.NY, dims.NZ)
			}
		}
	}
	return h
}

// DepthIndex maps a depth number to its slice index.
func (h *Hierarchy) DepthIndex(depth int) int { return depth - h.MinDepth }

// DimsAt returns the grid dimensions at depth.
func (h *Hierarchy) DimsAt(depth int) Dims { return h.Dims[h.DepthIndex(depth)] }

// U, CoarseSrc, Tmp, DampingV, JacRHS return the grid for variable eqnID
// at the given depth.
func (h *Hierarchy) U(eqnID, depth int) *grid.Grid        { return h.u[eqnID][h.DepthIndex(depth)] }
func (h *Hierarchy) CoarseSrc(eqnID, depth int) *grid.Grid { return h.coarseSrc[eqnID][h.DepthIndex(depth)] }
func (h *Hierarchy) Tmp(eqnID, depth int) *grid.Grid       { return h.tmp[eqnID][h.DepthIndex(depth)] }
func (h *Hierarchy) DampingV(eqnID, depth int) *grid.Grid  { return h.dampingV[eqnID][h.DepthIndex(depth)] }
func (h *Hierarchy) JacRHS(eqnID, depth int) *grid.Grid    { return h.jacRHS[eqnID][h.DepthIndex(depth)] }

// Rho returns the ρ grid for (eqnID, molID) at depth.
func (h *Hierarchy) Rho(eqnID, molID, depth int) *grid.Grid {
	return h.rho[eqnID][molID][h.DepthIndex(depth)]
}

// MoleculeN is the number of ρ grids owned by equation eqnID.
func (h *Hierarchy) MoleculeN(eqnID int) int { return h.moleculeN[eqnID] }

// SnapshotInto copies variable eqnID's u grid at depth into dst (used
// before the upward stroke of a V-cycle converts it into an error, §4.6).
func (h *Hierarchy) SnapshotInto(dst *grid.Grid, eqnID, depth int) {
	dst.CopyFrom(h.U(eqnID, depth))
}
