// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equation

import "github.com/cpmech/gosl/fun"

// SourceFunc adapts a plain closure to gosl's fun.Func interface, the same
// interface gofem's element types use for a scalar source-field callback
// evaluated at (t, x) (ele/diffusion.Diffusion.Sfun, fem/e_diffu.go's
// ElemDiffu.Sfun). A molecule's ρ field is exactly such a source term,
// sampled once per site rather than recomputed every evaluation.
type SourceFunc func(t float64, x []float64) float64

// F implements fun.Func.
func (f SourceFunc) F(t float64, x []float64) float64 { return f(t, x) }

var _ fun.Func = SourceFunc(nil)
