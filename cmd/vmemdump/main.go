// Command vmemdump builds a vmem.Arena from flags, runs a scripted sequence
// of alloc/free operations, and prints Dump(). Grounded on
// bnclabs-gostore/tools/llrb/main.go's flag-driven harness.
package main

import "flag"
import "fmt"
import "os"
import "strconv"
import "strings"

import "github.com/bnclabs/vmem"

var options struct {
	base     int64
	size     int64
	quantum  int64
	fit      string
	n        int
	allocsz  int64
	log      bool
}

func argParse() {
	flag.Int64Var(&options.base, "base", 0, "base address of the arena's initial span")
	flag.Int64Var(&options.size, "size", 1<<24, "size of the arena's initial span")
	flag.Int64Var(&options.quantum, "quantum", 4096, "arena quantum, must be a power of two")
	flag.StringVar(&options.fit, "fit", "instant", "fit policy: instant or best")
	flag.IntVar(&options.n, "n", 16, "number of alloc/free cycles to run")
	flag.Int64Var(&options.allocsz, "allocsz", 4096, "size requested on each Alloc")
	flag.BoolVar(&options.log, "log", false, "enable vmem logging")
	flag.Parse()
}

func main() {
	argParse()
	if options.log {
		vmem.LogComponents("vmem")
	}

	setts := vmem.Defaultsettings()
	setts["fit"] = options.fit

	arena, err := vmem.Create("vmemdump", options.base, options.size, options.quantum, nil, 0, false, setts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "create:", err)
		os.Exit(1)
	}

	flags := vmem.InstantFit
	if strings.ToLower(options.fit) == "best" {
		flags = vmem.BestFit
	}

	var live []int64
	for i := 0; i < options.n; i++ {
		base, err := arena.Alloc(options.allocsz, flags)
		if err != nil {
			fmt.Fprintln(os.Stderr, "alloc #"+strconv.Itoa(i)+":", err)
			break
		}
		live = append(live, base)
		if len(live) > 1 && i%2 == 0 {
			arena.Free(live[0], options.allocsz)
			live = live[1:]
		}
	}

	fmt.Println(arena.Dump())
}
