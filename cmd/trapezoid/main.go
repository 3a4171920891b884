// Trapezoid is the reference measured program: it integrates x² on [0, 1]
// sequentially and then across --workers goroutines, and prints both
// timings in the layout scalebench extracts from.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/weiihann/scalebench/workload"
)

func main() {
	def := workload.DefaultConfig()

	workers := flag.Int("workers", runtime.NumCPU(), "number of parallel workers")
	intervals := flag.Int("intervals", def.Intervals, "number of trapezoid intervals")
	a := flag.Float64("a", def.A, "lower integration limit")
	b := flag.Float64("b", def.B, "upper integration limit")
	flag.Parse()

	res, err := workload.Run(workload.Config{
		Intervals: *intervals,
		A:         *a,
		B:         *b,
	}, *workers)
	if err != nil {
		fatal(err.Error())
	}

	if err := workload.WriteReport(os.Stdout, res); err != nil {
		fatal(err.Error())
	}
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "trapezoid:", msg)
	os.Exit(1)
}
