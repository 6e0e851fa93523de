package hierarchy

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/go-numerics/fasmg/grid"
)

func TestCoarsenIsCeilHalf(tst *testing.T) {
	chk.PrintTitle("hierarchy: coarsen implements ceil(n/2)")
	cases := map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 16: 8, 17: 9}
	for n, want := range cases {
		if got := coarsen(n); got != want {
			tst.Fatalf("coarsen(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestNewAliasesFinestU(tst *testing.T) {
	chk.PrintTitle("hierarchy: finest-depth u grid aliases caller storage")
	finest := []*grid.Grid{grid.New(8, 8, 8)}
	h := New(1, finest, []int{1}, 3)
	if h.U(0, 3) != finest[0] {
		tst.Fatal("finest-depth U grid must alias the caller-provided grid")
	}
	finest[0].Set(1, 2, 3, 9.5)
	chk.Scalar(tst, "alias reflects writes through either handle", 1e-12, h.U(0, 3).At(1, 2, 3), 9.5)
}

func TestDimsCoarsenDownTheHierarchy(tst *testing.T) {
	chk.PrintTitle("hierarchy: dims halve (ceil) per depth down to minDepth")
	finest := []*grid.Grid{grid.New(17, 16, 9)}
	h := New(1, finest, []int{1}, 3)
	want := map[int]Dims{
		3: {17, 16, 9},
		2: {9, 8, 5},
		1: {5, 4, 3},
	}
	for d, w := range want {
		got := h.DimsAt(d)
		if got != w {
			tst.Fatalf("DimsAt(%d) = %+v, want %+v", d, got, w)
		}
	}
}

func TestOwnedGridsAreIndependentPerDepthAndVariable(tst *testing.T) {
	chk.PrintTitle("hierarchy: coarse_src/tmp/damping_v/jac_rhs are independently owned")
	finest := []*grid.Grid{grid.New(4, 4, 4), grid.New(4, 4, 4)}
	h := New(2, finest, []int{1, 1}, 2)

	h.CoarseSrc(0, 2).Shift(1.0)
	h.CoarseSrc(1, 2).Shift(2.0)
	h.Tmp(0, 1).Shift(3.0)
	h.DampingV(0, 2).Shift(4.0)
	h.JacRHS(0, 2).Shift(5.0)

	chk.Scalar(tst, "coarse_src[0] untouched by coarse_src[1]", 1e-12, h.CoarseSrc(0, 2).At(0, 0, 0), 1.0)
	chk.Scalar(tst, "coarse_src[1] independent", 1e-12, h.CoarseSrc(1, 2).At(0, 0, 0), 2.0)
	chk.Scalar(tst, "tmp at depth 1 independent of depth 2", 1e-12, h.Tmp(0, 1).At(0, 0, 0), 3.0)
	chk.Scalar(tst, "depth-2 tmp untouched", 1e-12, h.Tmp(0, 2).At(0, 0, 0), 0.0)
	chk.Scalar(tst, "damping_v independent of jac_rhs", 1e-12, h.DampingV(0, 2).At(0, 0, 0), 4.0)
	chk.Scalar(tst, "jac_rhs independent of damping_v", 1e-12, h.JacRHS(0, 2).At(0, 0, 0), 5.0)
}

func TestRhoHierarchyHasOneGridPerMoleculePerDepth(tst *testing.T) {
	chk.PrintTitle("hierarchy: rho grids indexed by (eqnID, molID, depth)")
	finest := []*grid.Grid{grid.New(4, 4, 4)}
	h := New(1, finest, []int{3}, 2)
	if h.MoleculeN(0) != 3 {
		tst.Fatalf("MoleculeN(0) = %d, want 3", h.MoleculeN(0))
	}
	h.Rho(0, 0, 2).Shift(1.0)
	h.Rho(0, 1, 2).Shift(2.0)
	h.Rho(0, 2, 2).Shift(3.0)
	chk.Scalar(tst, "rho molecule 0", 1e-12, h.Rho(0, 0, 2).At(0, 0, 0), 1.0)
	chk.Scalar(tst, "rho molecule 1", 1e-12, h.Rho(0, 1, 2).At(0, 0, 0), 2.0)
	chk.Scalar(tst, "rho molecule 2", 1e-12, h.Rho(0, 2, 2).At(0, 0, 0), 3.0)
}

func TestSnapshotIntoCopiesCurrentU(tst *testing.T) {
	chk.PrintTitle("hierarchy: SnapshotInto copies u without aliasing")
	finest := []*grid.Grid{grid.New(4, 4, 4)}
	h := New(1, finest, []int{1}, 1)
	h.U(0, 1).Shift(7.0)
	dst := grid.New(4, 4, 4)
	h.SnapshotInto(dst, 0, 1)
	chk.Scalar(tst, "snapshot matches u", 1e-12, dst.At(0, 0, 0), 7.0)
	h.U(0, 1).Shift(1.0)
	chk.Scalar(tst, "snapshot independent of later u mutation", 1e-12, dst.At(0, 0, 0), 7.0)
}

func TestNewPanicsOnMismatchedLengths(tst *testing.T) {
	chk.PrintTitle("hierarchy: New panics when finestU/moleculeN length mismatches n")
	defer func() {
		if recover() == nil {
			tst.Fatal("expected panic on length mismatch")
		}
	}()
	New(2, []*grid.Grid{grid.New(4, 4, 4)}, []int{1, 1}, 1)
}
