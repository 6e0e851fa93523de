// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"
	"github.com/go-numerics/fasmg/examples/coupled"
	"github.com/go-numerics/fasmg/examples/phi5"
	"github.com/go-numerics/fasmg/examples/poisson"
)

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			io.PfRed("\nERROR: %v", err)
			io.Pf("See location of error below:\n")
			chk.Verbose = true
			for i := 5; i > 3; i-- {
				chk.CallerInfo(i)
			}
		}
	}()

	// read input parameters
	scenario := io.ArgToString(0, "poisson")
	nx := io.ArgToInt(1, 16)
	maxDepth := io.ArgToInt(2, 4)
	cycles := io.ArgToInt(3, 10)
	verbose := io.ArgToBool(4, true)
	doprof := io.ArgToInt(5, 0)

	// message
	if verbose {
		io.PfWhite("\nfasmg -- Full Approximation Storage nonlinear multigrid\n")
		io.Pf("Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.\n")
		io.Pf("Use of this source code is governed by a BSD-style\n")
		io.Pf("license that can be found in the LICENSE file.\n")

		io.Pf("\n%v\n", io.ArgsTable("INPUT ARGUMENTS",
			"scenario: poisson|phi5|coupled", "scenario", scenario,
			"finest grid dimension per axis", "nx", nx,
			"coarsest-to-finest depth count", "maxDepth", maxDepth,
			"number of V-cycles", "cycles", cycles,
			"show messages", "verbose", verbose,
			"profiling: 0=none 1=CPU 2=MEM", "doprof", doprof,
		))
	}

	// profiling?
	if doprof > 0 {
		defer utl.DoProf(false, doprof)()
	}

	// run the chosen scenario
	switch scenario {
	case "poisson":
		poisson.Run(nx, maxDepth, cycles, verbose)
	case "phi5":
		phi5.Run(nx, maxDepth, cycles, verbose)
	case "coupled":
		coupled.Run(nx, maxDepth, cycles, verbose)
	default:
		chk.Panic("unknown scenario %q: want one of poisson, phi5, coupled", scenario)
	}
}
