// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transfer implements the restriction (fine→coarse) and
// prolongation (coarse→fine) operators of §4.3. Both are parallelized
// over the destination grid's cells (§5), and prolongation uses the
// gather formulation the design prefers over a scatter with atomic adds.
package transfer

import (
	"github.com/exascience/pargo/parallel"
	"github.com/go-numerics/fasmg/grid"
)

const parallelThreshold = 1024

// Restrict fills coarse from fine using the half-weighting 27-point
// kernel centered on the fine point (2i,2j,2k): center 1/8, 6 face
// neighbors 1/16 each, 12 edge neighbors 1/32 each, 8 corner neighbors
// 1/64 each. coarse must have half (ceil) the dimensions of fine.
func Restrict(coarse, fine *grid.Grid) {
	nxc, nyc, nzc := coarse.Nx(), coarse.Ny(), coarse.Nz()
	parallel.Range(0, nxc*nyc*nzc, parallelThreshold, func(low, high int) {
		for p := low; p < high; p++ {
			i := p / (nyc * nzc)
			rem := p % (nyc * nzc)
			j := rem / nzc
			k := rem % nzc
			fi, fj, fk := 2*i, 2*j, 2*k

			var sum float64
			for di := -1; di <= 1; di++ {
				for dj := -1; dj <= 1; dj++ {
					for dk := -1; dk <= 1; dk++ {
						n := abs(di) + abs(dj) + abs(dk)
						w := restrictWeight[n]
						sum += w * fine.At(fi+di, fj+dj, fk+dk)
					}
				}
			}
			coarse.Set(i, j, k, sum)
		}
	})
}

// restrictWeight[manhattan distance] is the half-weighting kernel: center
// 1/8, face (distance 1) 1/16, edge (distance 2) 1/32, corner (distance 3)
// 1/64. Weights sum to 1 (1/8 + 6/16 + 12/32 + 8/64 = 1).
var restrictWeight = [4]float64{1.0 / 8, 1.0 / 16, 1.0 / 32, 1.0 / 64}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// axisContrib is one coarse-axis index contributing to a fine-axis site,
// with its trilinear weight.
type axisContrib struct {
	idx int
	w   float64
}

// axisContribs returns the (at most two) coarse indices and weights that
// contribute to fine coordinate fi along one axis of size nCoarse*2,
// periodic on the coarse axis. An even fi collocates exactly with coarse
// index fi/2 (weight 1); an odd fi sits midway between coarse indices
// (fi-1)/2 and (fi+1)/2 (weight 1/2 each) — this is standard trilinear
// interpolation, equivalent to the scatter-with-atomic-add formulation of
// §4.3 but expressed as a gather so no write ever overlaps (§5).
func axisContribs(fi, nCoarse int) []axisContrib {
	if fi%2 == 0 {
		return []axisContrib{{wrapIdx(fi/2, nCoarse), 1.0}}
	}
	lo := wrapIdx((fi-1)/2, nCoarse)
	hi := wrapIdx((fi+1)/2, nCoarse)
	return []axisContrib{{lo, 0.5}, {hi, 0.5}}
}

func wrapIdx(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Prolong fills fine from coarse by trilinear interpolation: fine has
// twice coarse's dimensions on each axis. Each fine cell gathers from its
// one or two (per axis) surrounding coarse cells; a collocated site
// (even i,j,k) reproduces the coarse value exactly, satisfying "constant
// field c prolongs to c everywhere" (§8).
func Prolong(fine, coarse *grid.Grid) {
	nxf, nyf, nzf := fine.Nx(), fine.Ny(), fine.Nz()
	nxc, nyc, nzc := coarse.Nx(), coarse.Ny(), coarse.Nz()
	parallel.Range(0, nxf*nyf*nzf, parallelThreshold, func(low, high int) {
		for p := low; p < high; p++ {
			i := p / (nyf * nzf)
			rem := p % (nyf * nzf)
			j := rem / nzf
			k := rem % nzf

			xs := axisContribs(i, nxc)
			ys := axisContribs(j, nyc)
			zs := axisContribs(k, nzc)

			var sum float64
			for _, x := range xs {
				for _, y := range ys {
					for _, z := range zs {
						sum += x.w * y.w * z.w * coarse.At(x.idx, y.idx, z.idx)
					}
				}
			}
			fine.Set(i, j, k, sum)
		}
	})
}
