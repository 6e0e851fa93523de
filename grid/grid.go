// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package grid implements a dense 3D scalar field with periodic (toroidal)
// indexing and fork-join-parallel reductions over a uniformly spaced
// Cartesian mesh.
package grid

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
	"github.com/exascience/pargo/parallel"
	"gonum.org/v1/gonum/floats"
)

// parallelThreshold is the minimum chunk size handed to a single goroutine
// before pargo stops splitting further; small grids stay single-threaded.
const parallelThreshold = 4096

// Grid holds (nx, ny, nz) real values with periodic index arithmetic on all
// three axes. Its lifetime is tied to the Hierarchy that owns it; the
// finest-depth grid for a variable may alias caller-provided storage.
type Grid struct {
	nx, ny, nz int
	pts        int
	vals       []float64
}

// New allocates a zeroed Grid with the given dimensions.
func New(nx, ny, nz int) *Grid {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		chk.Panic("grid: dimensions must be positive: nx=%d ny=%d nz=%d", nx, ny, nz)
	}
	return &Grid{nx: nx, ny: ny, nz: nz, pts: nx * ny * nz, vals: make([]float64, nx*ny*nz)}
}

// Wrap allocates a Grid that aliases existing storage (caller-owned). The
// finest-level u grids use this so the caller sees the result in place.
func Wrap(nx, ny, nz int, data []float64) *Grid {
	if len(data) != nx*ny*nz {
		chk.Panic("grid: wrapped storage has %d elements; want %d", len(data), nx*ny*nz)
	}
	return &Grid{nx: nx, ny: ny, nz: nz, pts: nx * ny * nz, vals: data}
}

// Nx, Ny, Nz return the grid dimensions.
func (g *Grid) Nx() int { return g.nx }
func (g *Grid) Ny() int { return g.ny }
func (g *Grid) Nz() int { return g.nz }

// Pts returns nx*ny*nz.
func (g *Grid) Pts() int { return g.pts }

// Data exposes the flat underlying storage, row-major with z fastest. It is
// provided for hot-loop callers (stencils, transfer); callers must respect
// the periodic indexing convention used by Index.
func (g *Grid) Data() []float64 { return g.vals }

func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Index returns the flat offset of site (i,j,k), wrapping any integer index
// (negative or beyond the dimension) onto the torus.
func (g *Grid) Index(i, j, k int) int {
	i = wrap(i, g.nx)
	j = wrap(j, g.ny)
	k = wrap(k, g.nz)
	return (i*g.ny+j)*g.nz + k
}

// At reads the value at (i,j,k) with periodic wrap.
func (g *Grid) At(i, j, k int) float64 { return g.vals[g.Index(i, j, k)] }

// Set writes the value at (i,j,k) with periodic wrap.
func (g *Grid) Set(i, j, k int, v float64) { g.vals[g.Index(i, j, k)] = v }

// Zero clears all values to zero.
func (g *Grid) Zero() {
	parallel.Range(0, g.pts, parallelThreshold, func(low, high int) {
		for i := low; i < high; i++ {
			g.vals[i] = 0
		}
	})
}

// Total is the fork-join-parallel sum of all values, combined with a fixed
// pairwise reduction tree so repeated runs at a fixed thread count agree.
func (g *Grid) Total() float64 {
	return parallel.RangeReduceFloat64(0, g.pts, parallelThreshold,
		func(low, high int) float64 {
			return floats.Sum(g.vals[low:high])
		},
		func(a, b float64) float64 { return a + b },
	)
}

// Average is Total()/Pts().
func (g *Grid) Average() float64 { return g.Total() / float64(g.pts) }

// Min is the fork-join-parallel minimum over all values.
func (g *Grid) Min() float64 {
	return parallel.RangeReduceFloat64(0, g.pts, parallelThreshold,
		func(low, high int) float64 { return floats.Min(g.vals[low:high]) },
		math.Min,
	)
}

// Max is the fork-join-parallel maximum over all values.
func (g *Grid) Max() float64 {
	return parallel.RangeReduceFloat64(0, g.pts, parallelThreshold,
		func(low, high int) float64 { return floats.Max(g.vals[low:high]) },
		math.Max,
	)
}

// MaxAbs is the fork-join-parallel maximum of |value| over all sites, used
// by the smoother's residual-tolerance test.
func (g *Grid) MaxAbs() float64 {
	return parallel.RangeReduceFloat64(0, g.pts, parallelThreshold,
		func(low, high int) (m float64) {
			for i := low; i < high; i++ {
				if a := math.Abs(g.vals[i]); a > m {
					m = a
				}
			}
			return
		},
		math.Max,
	)
}

// SumSquares is the fork-join-parallel ℓ² norm squared, Σ v².
func (g *Grid) SumSquares() float64 {
	return parallel.RangeReduceFloat64(0, g.pts, parallelThreshold,
		func(low, high int) float64 { return floats.Dot(g.vals[low:high], g.vals[low:high]) },
		func(a, b float64) float64 { return a + b },
	)
}

// Norm is the flattened ℓ² vector norm, delegating to gosl/la for the
// single-threaded case used by diagnostics outside the hot path.
func (g *Grid) Norm() float64 { return la.VecNorm(g.vals) }

// Shift adds a constant to every value: grid[i,j,k] += c.
func (g *Grid) Shift(c float64) {
	parallel.Range(0, g.pts, parallelThreshold, func(low, high int) {
		floats.AddConst(c, g.vals[low:high])
	})
}

// AddScaled performs grid += alpha*other, element-wise.
func (g *Grid) AddScaled(alpha float64, other *Grid) {
	g.sameShape(other)
	parallel.Range(0, g.pts, parallelThreshold, func(low, high int) {
		floats.AddScaled(g.vals[low:high], alpha, other.vals[low:high])
	})
}

// Sub sets grid := a - b, element-wise.
func (g *Grid) Sub(a, b *Grid) {
	g.sameShape(a)
	g.sameShape(b)
	parallel.Range(0, g.pts, parallelThreshold, func(low, high int) {
		for i := low; i < high; i++ {
			g.vals[i] = a.vals[i] - b.vals[i]
		}
	})
}

// Scale multiplies every value by alpha.
func (g *Grid) Scale(alpha float64) {
	parallel.Range(0, g.pts, parallelThreshold, func(low, high int) {
		floats.Scale(alpha, g.vals[low:high])
	})
}

// CopyFrom copies other's values into g.
func (g *Grid) CopyFrom(other *Grid) {
	g.sameShape(other)
	copy(g.vals, other.vals)
}

// AddAndSwap fuses the two-grid update of the V-cycle's ascend phase: it
// adds corr into g in place (g[idx] += corr[idx]) and then overwrites
// corr with g's pre-update value, so corr becomes the snapshot the next
// ascend step needs to recover the correction made at this depth.
func (g *Grid) AddAndSwap(corr *Grid) {
	g.sameShape(corr)
	parallel.Range(0, g.pts, parallelThreshold, func(low, high int) {
		for i := low; i < high; i++ {
			old := g.vals[i]
			g.vals[i] = old + corr.vals[i]
			corr.vals[i] = old
		}
	})
}

// SignsDiffer reports whether any site's sign differs from site (0,0,0),
// the basis of the singularity warning in §4.6/§8.
func (g *Grid) SignsDiffer() bool {
	s0 := sign(g.vals[0])
	for _, v := range g.vals {
		if sign(v)*s0 < 0 {
			return true
		}
	}
	return false
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func (g *Grid) sameShape(other *Grid) {
	if g.nx != other.nx || g.ny != other.ny || g.nz != other.nz {
		chk.Panic("grid: shape mismatch: (%d,%d,%d) vs (%d,%d,%d)", g.nx, g.ny, g.nz, other.nx, other.ny, other.nz)
	}
}
