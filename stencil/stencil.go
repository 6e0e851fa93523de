// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stencil provides the pointwise first-derivative, second/mixed
// derivative and Laplacian operators §4.2 of the design treats as an
// external collaborator: finite-difference stencils of fixed order on a
// periodic grid.Grid.
package stencil

import (
	"github.com/cpmech/gosl/chk"
	"github.com/go-numerics/fasmg/grid"
)

// Order is a supported stencil half-width selector; only the orders the
// reference diag2 table below covers are valid.
type Order int

const (
	Order2 Order = 2
	Order4 Order = 4
	Order6 Order = 6
	Order8 Order = 8
)

// der1Coef[K] holds the centered first-derivative weights for offsets
// 1..K/2 (weight for -m is the negative of the weight for +m), scaled by
// the stated denominator.
var der1Coef = map[Order]struct {
	w   []float64
	den float64
}{
	Order2: {w: []float64{1}, den: 2},
	Order4: {w: []float64{8, -1}, den: 12},
	Order6: {w: []float64{45, -9, 1}, den: 60},
	Order8: {w: []float64{672, -168, 32, -3}, den: 840},
}

// der2Coef[K] holds the centered second-derivative weights: diag is the
// magnitude of the coefficient of the center point, off[m-1] is the
// (symmetric) weight for offset ±m, scaled by den.
var der2Coef = map[Order]struct {
	diag float64
	off  []float64
	den  float64
}{
	Order2: {diag: 2, off: []float64{1}, den: 1},
	Order4: {diag: 30, off: []float64{16, -1}, den: 12},
	Order6: {diag: 490, off: []float64{270, -27, 2}, den: 180},
	Order8: {diag: 14350, off: []float64{8064, -1008, 128, -9}, den: 5040},
}

// Diag2 is the magnitude of the coefficient of G[i,j,k] itself in the
// diagonal second-derivative stencil of order K: diag2(2)=2, diag2(4)=5/2,
// diag2(6)=49/18, diag2(8)=205/72.
func Diag2(k Order) float64 {
	c, ok := der2Coef[k]
	if !ok {
		chk.Panic("stencil: unsupported order %d", k)
	}
	return c.diag / c.den
}

func axisStep(axis int) (di, dj, dk int) {
	switch axis {
	case 1:
		return 1, 0, 0
	case 2:
		return 0, 1, 0
	case 3:
		return 0, 0, 1
	default:
		chk.Panic("stencil: axis must be 1, 2 or 3, got %d", axis)
		return
	}
}

// Spacing bundles a stencil order with the grid spacing h it is evaluated
// at, so the evaluator (§4.4) can carry one value per (equation, depth)
// instead of threading h through every call.
type Spacing struct {
	K Order
	H float64
}

// DiagLapCoef is 3·diag2(K)/h², the Laplacian's diagonal self-coefficient
// used by the Jacobian-diagonal evaluation (§4.2, §4.4).
func (s Spacing) DiagLapCoef() float64 { return 3 * Diag2(s.K) / (s.H * s.H) }

// DiagD2Coef is diag2(K)/h², the second-derivative diagonal self-coefficient.
func (s Spacing) DiagD2Coef() float64 { return Diag2(s.K) / (s.H * s.H) }

// D1 is the first derivative ∂G/∂x_axis at (i,j,k), periodic.
func (s Spacing) D1(g *grid.Grid, axis, i, j, k0 int) float64 {
	c, ok := der1Coef[s.K]
	if !ok {
		chk.Panic("stencil: unsupported order %d", s.K)
	}
	di, dj, dk := axisStep(axis)
	var sum float64
	for m := 1; m <= len(c.w); m++ {
		plus := g.At(i+m*di, j+m*dj, k0+m*dk)
		minus := g.At(i-m*di, j-m*dj, k0-m*dk)
		sum += c.w[m-1] * (plus - minus)
	}
	return sum / (c.den * s.H)
}

// D2 is the second (a1==a2) or mixed (a1!=a2) derivative ∂²G/∂x_a1∂x_a2 at
// (i,j,k), periodic. Mixed partials are the tensor-product composition of
// the first-derivative operator along each axis, which is linear in G
// exactly as §4.2 requires.
func (s Spacing) D2(g *grid.Grid, a1, a2, i, j, k0 int) float64 {
	if a1 == a2 {
		return s.diagD2(g, a1, i, j, k0)
	}
	c, ok := der1Coef[s.K]
	if !ok {
		chk.Panic("stencil: unsupported order %d", s.K)
	}
	d1, d2, d3 := axisStep(a1)
	var sum float64
	for m := 1; m <= len(c.w); m++ {
		plus := s.D1(g, a2, i+m*d1, j+m*d2, k0+m*d3)
		minus := s.D1(g, a2, i-m*d1, j-m*d2, k0-m*d3)
		sum += c.w[m-1] * (plus - minus)
	}
	return sum / (c.den * s.H)
}

func (s Spacing) diagD2(g *grid.Grid, axis, i, j, k0 int) float64 {
	c, ok := der2Coef[s.K]
	if !ok {
		chk.Panic("stencil: unsupported order %d", s.K)
	}
	di, dj, dk := axisStep(axis)
	sum := -c.diag * g.At(i, j, k0)
	for m := 1; m <= len(c.off); m++ {
		plus := g.At(i+m*di, j+m*dj, k0+m*dk)
		minus := g.At(i-m*di, j-m*dj, k0-m*dk)
		sum += c.off[m-1] * (plus + minus)
	}
	return sum / (c.den * s.H * s.H)
}

// Lap is the Laplacian ΔG at (i,j,k), the sum of the three diagonal second
// derivatives.
func (s Spacing) Lap(g *grid.Grid, i, j, k0 int) float64 {
	return s.diagD2(g, 1, i, j, k0) + s.diagD2(g, 2, i, j, k0) + s.diagD2(g, 3, i, j, k0)
}
