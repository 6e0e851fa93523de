// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package evaluator implements the three pointwise operations §4.4
// describes: Eval (F_e), EvalDer (∂F_e/∂u_j · v_j) and EvalJacDiag (the
// Jacobi diagonal coefficients a, b). The dispatch mirrors the
// residual/Jacobian assembly style of gofem's element routines
// (e.g. ElemDiffu.AddToRhs/AddToKb) but walks the symbolic AST instead of
// a fixed physical model, with the atom switch kept flat for the inner
// loop (§9).
package evaluator

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/go-numerics/fasmg/equation"
	"github.com/go-numerics/fasmg/grid"
	"github.com/go-numerics/fasmg/hierarchy"
	"github.com/go-numerics/fasmg/stencil"
)

// Evaluator is pure: given the same u/damping_v/ρ contents at a depth and
// site it returns the same values (§4.4).
type Evaluator struct {
	Sys      *equation.System
	H        *hierarchy.Hierarchy
	Order    stencil.Order
	HLenFrac float64 // physical domain length per axis, H_LEN_FRAC in §6
}

// Spacing returns the stencil order and grid spacing h = HLenFrac/nx_d at
// depth, per §4.4's "h = H_LEN_FRAC / nx_d".
func (ev *Evaluator) Spacing(depth int) stencil.Spacing {
	dims := ev.H.DimsAt(depth)
	return stencil.Spacing{K: ev.Order, H: ev.HLenFrac / float64(dims.NX)}
}

// atomValue is the plain (non-linearized) value of atom a at (i,j,k),
// read from the current u hierarchy entry of the atom's variable (or the
// ρ grid for Const), never from damping_v.
func (ev *Evaluator) atomValue(a equation.Atom, sp stencil.Spacing, eqnID, molID, depth, i, j, k int) float64 {
	switch a.Kind {
	case equation.Const:
		return ev.H.Rho(eqnID, molID, depth).At(i, j, k)
	case equation.Poly:
		u := ev.H.U(a.UID, depth).At(i, j, k)
		return math.Pow(u, a.P)
	case equation.Der1:
		return sp.D1(ev.H.U(a.UID, depth), a.Axis1, i, j, k)
	case equation.Der2:
		return sp.D2(ev.H.U(a.UID, depth), a.Axis1, a.Axis2, i, j, k)
	case equation.Lap:
		return sp.Lap(ev.H.U(a.UID, depth), i, j, k)
	default:
		chk.Panic("evaluator: unknown atom kind %d", a.Kind)
		return 0
	}
}

// Eval computes F_e(x) at (i,j,k): the sum over molecules of coef times
// the product of atom values.
func (ev *Evaluator) Eval(eqnID, depth, i, j, k int) float64 {
	eq := ev.Sys.Equations[eqnID]
	sp := ev.Spacing(depth)
	var res float64
	for molID, m := range eq.Molecules {
		val := 1.0
		for _, a := range m.Atoms {
			val *= ev.atomValue(a, sp, eqnID, molID, depth, i, j, k)
		}
		res += m.Coef * val
	}
	return res
}

// EvalGrid evaluates Eval at every site of dst's dimensions and writes
// the result into dst. The walk is a plain sequential loop over sites;
// cycle and smoother call it directly, without a parallel wrapper.
func (ev *Evaluator) EvalGrid(dst *grid.Grid, eqnID, depth int) {
	nx, ny, nz := dst.Nx(), dst.Ny(), dst.Nz()
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				dst.Set(i, j, k, ev.Eval(eqnID, depth, i, j, k))
			}
		}
	}
}

// EvalDer computes (∂F_e/∂u_j)(x)·v_j at (i,j,k), where v_j is the
// current damping_v hierarchy entry for variable uID. It walks each
// molecule's atoms in order, maintaining the product-rule accumulators
// non_der (running product) and der (running sum-of-products with
// exactly one factor linearized), per §4.4.2.
func (ev *Evaluator) EvalDer(eqnID, depth, i, j, k, uID int) float64 {
	eq := ev.Sys.Equations[eqnID]
	sp := ev.Spacing(depth)
	v := ev.H.DampingV(uID, depth)
	var res float64
	for molID, m := range eq.Molecules {
		nonDer := 1.0
		der := 0.0
		for _, a := range m.Atoms {
			if !a.DependsOn(uID) {
				val := ev.atomValue(a, sp, eqnID, molID, depth, i, j, k)
				nonDer *= val
				der *= val
				continue
			}
			switch a.Kind {
			case equation.Poly:
				u := ev.H.U(a.UID, depth).At(i, j, k)
				polyVal := math.Pow(u, a.P)
				lin := a.P * math.Pow(u, a.P-1) * v.At(i, j, k)
				der = nonDer*lin + der*polyVal
				nonDer *= polyVal
			case equation.Der1:
				val := sp.D1(ev.H.U(a.UID, depth), a.Axis1, i, j, k)
				lin := sp.D1(v, a.Axis1, i, j, k)
				der = nonDer*lin + der*val
				nonDer *= val
			case equation.Der2:
				val := sp.D2(ev.H.U(a.UID, depth), a.Axis1, a.Axis2, i, j, k)
				lin := sp.D2(v, a.Axis1, a.Axis2, i, j, k)
				der = nonDer*lin + der*val
				nonDer *= val
			case equation.Lap:
				val := sp.Lap(ev.H.U(a.UID, depth), i, j, k)
				lin := sp.Lap(v, i, j, k)
				der = nonDer*lin + der*val
				nonDer *= val
			}
		}
		res += m.Coef * der
	}
	return res
}

// EvalJacDiag computes the Jacobi diagonal coefficients (a, b) for
// equation eqnID's dependence on uID at (i,j,k), per §4.4.3: with the
// other variables' terms (cross) taken from EvalDer, a Jacobi update on
// the uID-th unknown is
//
//	v := (jac_rhs - a - cross) / b
//
// nonDer is the running product of atom values at the current u; mol_to_b
// accumulates the coefficient of v_j[i,j,k] itself (-diag2(K)/h² for a
// diagonal second derivative on u_j, -3·diag2(K)/h² for Lap{u_j}, or
// p·u^{p-1} for Poly{p} on u_j); mol_to_a accumulates the rest of the
// linearization applied to the current damping_v, without that
// self-coefficient term.
func (ev *Evaluator) EvalJacDiag(eqnID, depth, i, j, k, uID int) (a, b float64) {
	eq := ev.Sys.Equations[eqnID]
	sp := ev.Spacing(depth)
	v := ev.H.DampingV(uID, depth)
	for molID, m := range eq.Molecules {
		nonDer := 1.0
		molToA := 0.0
		molToB := 0.0
		for _, ad := range m.Atoms {
			if !ad.DependsOn(uID) {
				val := ev.atomValue(ad, sp, eqnID, molID, depth, i, j, k)
				nonDer *= val
				molToA *= val
				molToB *= val
				continue
			}
			switch ad.Kind {
			case equation.Poly:
				u := ev.H.U(ad.UID, depth).At(i, j, k)
				p := ad.P
				polyVal := math.Pow(u, p)
				diag := p * math.Pow(u, p-1)
				molToB = molToB*polyVal + nonDer*diag
				molToA = molToA * polyVal
				nonDer *= polyVal
			case equation.Der1:
				uf := ev.H.U(ad.UID, depth)
				val := sp.D1(uf, ad.Axis1, i, j, k)
				lin := sp.D1(v, ad.Axis1, i, j, k)
				molToA = molToA*val + nonDer*lin
				molToB = molToB * val
				nonDer *= val
			case equation.Der2:
				uf := ev.H.U(ad.UID, depth)
				val := sp.D2(uf, ad.Axis1, ad.Axis2, i, j, k)
				lin := sp.D2(v, ad.Axis1, ad.Axis2, i, j, k)
				var diagTerm float64
				if ad.Axis1 == ad.Axis2 {
					diagTerm = sp.DiagD2Coef()
				}
				vAtIdx := v.At(i, j, k)
				molToA = molToA*val + nonDer*(lin+diagTerm*vAtIdx)
				molToB = molToB*val - diagTerm*nonDer
				nonDer *= val
			case equation.Lap:
				uf := ev.H.U(ad.UID, depth)
				val := sp.Lap(uf, i, j, k)
				lin := sp.Lap(v, i, j, k)
				diagTerm := sp.DiagLapCoef()
				vAtIdx := v.At(i, j, k)
				molToA = molToA*val + nonDer*(lin+diagTerm*vAtIdx)
				molToB = molToB*val - diagTerm*nonDer
				nonDer *= val
			}
		}
		a += m.Coef * molToA
		b += m.Coef * molToB
	}
	return
}
