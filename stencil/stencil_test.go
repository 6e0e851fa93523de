package stencil

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/go-numerics/fasmg/grid"
)

func TestDiag2Table(tst *testing.T) {
	chk.PrintTitle("stencil diag2 reference values")
	chk.Scalar(tst, "diag2(2)", 1e-15, Diag2(Order2), 2.0)
	chk.Scalar(tst, "diag2(4)", 1e-15, Diag2(Order4), 2.5)
	chk.Scalar(tst, "diag2(6)", 1e-12, Diag2(Order6), 49.0/18.0)
	chk.Scalar(tst, "diag2(8)", 1e-12, Diag2(Order8), 205.0/72.0)
}

func TestLaplacianOfSine(tst *testing.T) {
	chk.PrintTitle("stencil laplacian of a sampled sine field, order 2")
	n := 32
	h := 1.0 / float64(n)
	g := grid.New(n, n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				x, y, z := float64(i)*h, float64(j)*h, float64(k)*h
				g.Set(i, j, k, math.Sin(2*math.Pi*x)*math.Sin(2*math.Pi*y)*math.Sin(2*math.Pi*z))
			}
		}
	}
	sp := Spacing{K: Order2, H: h}
	i, j, k := n/3, n/4, n/5
	got := sp.Lap(g, i, j, k)
	// on a sampled sine the order-2 stencil's per-axis factor is
	// -4·sin²(πh)/h², about 0.3% short of the continuum -4π² at h = 1/32
	want := -3 * 4 * math.Pow(math.Sin(math.Pi*h), 2) / (h * h) * g.At(i, j, k)
	chk.AnaNum(tst, "Lap(sin⊗sin⊗sin)", 0.05, got, want, chk.Verbose)
}

func TestD1OfLinearField(tst *testing.T) {
	chk.PrintTitle("stencil first derivative of a linear field")
	n := 16
	h := 1.0 / float64(n)
	g := grid.New(n, n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				g.Set(i, j, k, 3.0*float64(i)*h)
			}
		}
	}
	sp := Spacing{K: Order4, H: h}
	chk.Scalar(tst, "d/dx of 3x", 1e-10, sp.D1(g, 1, 5, 5, 5), 3.0)
	chk.Scalar(tst, "d/dy of 3x", 1e-10, sp.D1(g, 2, 5, 5, 5), 0.0)
}
