// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package equation is the symbolic representation §3/§4.1 calls the
// EquationAST: a system of equations, each a sum of molecules, each a
// product of atomic factors. The evaluator (package evaluator) dispatches
// on the Atom tag with a fixed switch; there is no virtual call in the
// inner loop.
package equation

import "github.com/cpmech/gosl/chk"

// Kind tags the variant an Atom holds.
type Kind int

const (
	// Const references the per-(equation,molecule) ρ grid at the
	// current depth.
	Const Kind = iota
	// Poly evaluates u_{UID}(x)^P.
	Poly
	// Der1 evaluates ∂u_{UID}/∂x_Axis1.
	Der1
	// Der2 evaluates ∂²u_{UID}/∂x_Axis1∂x_Axis2 (diagonal when
	// Axis1==Axis2, mixed otherwise; Axis1<=Axis2 by convention).
	Der2
	// Lap evaluates Δu_{UID}.
	Lap
)

// Atom is one factor of a Molecule's product. Only the fields relevant to
// Kind are meaningful; NewConst/NewPoly/NewDer1/NewDer2/NewLap build a
// well-formed Atom so callers never set fields directly.
type Atom struct {
	Kind  Kind
	UID   int     // variable id; unused for Const
	P     float64 // exponent; only for Poly
	Axis1 int     // 1,2,3; only for Der1/Der2
	Axis2 int     // 1,2,3; only for Der2, Axis1<=Axis2
}

// NewConst builds a Const atom.
func NewConst() Atom { return Atom{Kind: Const} }

// NewPoly builds a Poly atom: u_uid(x)^p.
func NewPoly(uid int, p float64) Atom { return Atom{Kind: Poly, UID: uid, P: p} }

// NewDer1 builds a first-derivative atom along axis (1,2 or 3).
func NewDer1(uid, axis int) Atom { return Atom{Kind: Der1, UID: uid, Axis1: axis} }

// NewDer2 builds a second/mixed derivative atom. Axes are reordered so
// Axis1<=Axis2, matching §3's convention.
func NewDer2(uid, axis1, axis2 int) Atom {
	if axis1 > axis2 {
		axis1, axis2 = axis2, axis1
	}
	return Atom{Kind: Der2, UID: uid, Axis1: axis1, Axis2: axis2}
}

// NewLap builds a Laplacian atom.
func NewLap(uid int) Atom { return Atom{Kind: Lap, UID: uid} }

// DependsOn reports whether the atom's value depends on variable uid.
// Const atoms depend on none.
func (a Atom) DependsOn(uid int) bool {
	return a.Kind != Const && a.UID == uid
}

// Molecule is a constant coefficient and an ordered sequence of Atoms;
// value at point x = Coef · ∏ atom_i(x). The order must be respected by
// the derivative-accumulation sweep (package evaluator) to preserve
// numerical structure, even though the final pointwise value does not
// depend on it.
type Molecule struct {
	Coef  float64
	Atoms []Atom
}

// NewMolecule starts a molecule with the given coefficient and no atoms;
// use Add to append factors in the order they should be evaluated.
func NewMolecule(coef float64) *Molecule {
	return &Molecule{Coef: coef}
}

// Add appends an atom to the molecule and returns the molecule, so atoms
// can be chained at construction time.
func (m *Molecule) Add(a Atom) *Molecule {
	m.Atoms = append(m.Atoms, a)
	return m
}

// Equation is F_e(x) = Σ_m Coef_m · ∏ atom values, an ordered set of
// molecules.
type Equation struct {
	Molecules []*Molecule
}

// AddMolecule appends a molecule to the equation.
func (e *Equation) AddMolecule(m *Molecule) { e.Molecules = append(e.Molecules, m) }

// System is the EquationSystem: N equations, one unknown per equation, to
// be solved jointly.
type System struct {
	Equations []*Equation
}

// NewSystem allocates a System with n empty equations (one per unknown).
func NewSystem(n int) *System {
	s := &System{Equations: make([]*Equation, n)}
	for i := range s.Equations {
		s.Equations[i] = &Equation{}
	}
	return s
}

// N is the number of equations/unknowns.
func (s *System) N() int { return len(s.Equations) }

// AddAtom appends atom to molecule molID of equation eqnID, growing the
// equation's molecule list as needed. This is the build-time
// add_atom_to_eqn entry point of §6.
func (s *System) AddAtom(eqnID, molID int, coef float64, a Atom) {
	if eqnID < 0 || eqnID >= len(s.Equations) {
		chk.Panic("equation: eqnID %d out of range [0,%d)", eqnID, len(s.Equations))
	}
	eq := s.Equations[eqnID]
	for len(eq.Molecules) <= molID {
		eq.Molecules = append(eq.Molecules, nil)
	}
	if eq.Molecules[molID] == nil {
		eq.Molecules[molID] = NewMolecule(coef)
	}
	eq.Molecules[molID].Add(a)
}

// Validate rejects malformed ASTs at build time, per §7: a molecule with
// zero atoms, an atom referencing an out-of-range unknown, or an unknown
// atom kind are all structural errors and panic rather than propagate as
// numerical failures.
func (s *System) Validate() {
	n := len(s.Equations)
	for eqnID, eq := range s.Equations {
		if len(eq.Molecules) == 0 {
			chk.Panic("equation: equation %d has no molecules", eqnID)
		}
		for molID, m := range eq.Molecules {
			if m == nil || len(m.Atoms) == 0 {
				chk.Panic("equation: equation %d molecule %d has zero atoms", eqnID, molID)
			}
			for _, a := range m.Atoms {
				switch a.Kind {
				case Const:
					// no u_id to check
				case Poly, Der1, Der2, Lap:
					if a.UID < 0 || a.UID >= n {
						chk.Panic("equation: equation %d molecule %d references out-of-range u_id %d", eqnID, molID, a.UID)
					}
					if a.Kind == Der1 && (a.Axis1 < 1 || a.Axis1 > 3) {
						chk.Panic("equation: equation %d molecule %d: Der1 axis %d out of range", eqnID, molID, a.Axis1)
					}
					if a.Kind == Der2 && (a.Axis1 < 1 || a.Axis1 > 3 || a.Axis2 < 1 || a.Axis2 > 3) {
						chk.Panic("equation: equation %d molecule %d: Der2 axes (%d,%d) out of range", eqnID, molID, a.Axis1, a.Axis2)
					}
				default:
					chk.Panic("equation: equation %d molecule %d has unknown atom kind %d", eqnID, molID, a.Kind)
				}
			}
		}
	}
}
