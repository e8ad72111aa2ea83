// Package main provides the entry point for tomsim, a cycle-level
// simulator of a Tomasulo-style out-of-order scheduling core.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/sarchlab/tomsim/insts"
	"github.com/sarchlab/tomsim/loader"
	"github.com/sarchlab/tomsim/timing/cache"
	"github.com/sarchlab/tomsim/timing/latency"
	"github.com/sarchlab/tomsim/timing/tomasulo"
)

var (
	configPath  = flag.String("config", "", "Path to timing configuration JSON file")
	predictor   = flag.String("predictor", "bimodal", "Branch predictor: bimodal, taken, nottaken")
	noSpec      = flag.Bool("no-spec", false, "Disable speculative issue past branches")
	robCapacity = flag.Int("rob", tomasulo.DefaultROBCapacity, "Reorder buffer capacity")
	useDCache   = flag.Bool("dcache", false, "Enable the L1 data cache model on the load path")
	maxCycles   = flag.Uint64("cycles", 100000, "Cycle limit")
	verbose     = flag.Bool("v", false, "Dump machine tables after every cycle")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: tomsim [options] <program.json>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	prog, err := loader.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	opts, err := buildOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	state, err := tomasulo.New(prog.Instructions, prog.Registers, prog.Memory, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	engine := tomasulo.NewEngine(state)
	for !engine.Done() {
		if engine.State().Cycle() >= *maxCycles {
			fmt.Fprintf(os.Stderr, "Cycle limit of %d reached before the machine drained\n", *maxCycles)
			os.Exit(1)
		}
		if err := engine.Tick(); err != nil {
			fmt.Fprintf(os.Stderr, "Fault at cycle %d: %v\n", engine.State().Cycle(), err)
			os.Exit(1)
		}
		if *verbose {
			dumpCycle(engine.State())
		}
	}

	printReport(engine.State())
}

func buildOptions() ([]tomasulo.Option, error) {
	opts := []tomasulo.Option{
		tomasulo.WithROBCapacity(*robCapacity),
		tomasulo.WithSpeculation(!*noSpec),
	}

	switch *predictor {
	case "bimodal":
		opts = append(opts, tomasulo.WithPredictor(tomasulo.NewBimodalPredictor()))
	case "taken":
		opts = append(opts, tomasulo.WithPredictor(tomasulo.AlwaysTaken{}))
	case "nottaken":
		opts = append(opts, tomasulo.WithPredictor(tomasulo.AlwaysNotTaken{}))
	default:
		return nil, fmt.Errorf("unknown predictor %q", *predictor)
	}

	if *configPath != "" {
		config, err := latency.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, tomasulo.WithLatencyTable(latency.NewTableWithConfig(config)))
	}

	if *useDCache {
		opts = append(opts, tomasulo.WithDataCache(cache.DefaultL1DConfig()))
	}

	return opts, nil
}

func dumpCycle(state *tomasulo.State) {
	fmt.Printf("=== cycle %d (pc=%d) ===\n", state.Cycle(), state.PC())
	for _, inst := range state.Instructions() {
		if inst.State == insts.StateCommitted {
			continue
		}
		fmt.Printf("  [%2d] %-20s %s\n", inst.ID, inst.String(), inst.State)
	}
	entries, head, tail := state.ROBSnapshot()
	busy := 0
	for _, e := range entries {
		if e.Busy {
			busy++
		}
	}
	fmt.Printf("  rob: head=%d tail=%d busy=%d/%d\n", head, tail, busy, len(entries))
}

func printReport(state *tomasulo.State) {
	stats := state.Stats()

	fmt.Printf("\nSimulation complete\n")
	fmt.Printf("  Cycles:                 %d\n", stats.Cycles)
	fmt.Printf("  Instructions committed: %d\n", stats.Committed)
	fmt.Printf("  IPC:                    %.3f\n", stats.IPC())
	fmt.Printf("  Stall cycles (any):     %d\n", stats.AnyStallCycles)
	fmt.Printf("    issue:                %d\n", stats.IssueStalls)
	fmt.Printf("    data hazard:          %d\n", stats.DataHazardStalls)
	fmt.Printf("    structural:           %d\n", stats.StructuralStalls)
	fmt.Printf("  Flushes:                %d\n", stats.Flushes)
	fmt.Printf("  Branches executed:      %d\n", stats.BranchesExecuted)
	fmt.Printf("  Mispredictions:         %d\n", stats.Mispredictions)
	fmt.Printf("  Branch accuracy:        %.1f%%\n", stats.BranchAccuracy()*100)

	if dcache := state.DataCache(); dcache != nil {
		cstats := dcache.Stats()
		fmt.Printf("  D-cache hit rate:       %.1f%% (%d hits, %d misses)\n",
			cstats.HitRate()*100, cstats.Hits, cstats.Misses)
	}

	fmt.Printf("\nRegisters:\n")
	regs := state.Registers()
	for _, name := range sortedKeys(regs) {
		fmt.Printf("  %-4s = %d\n", name, regs[name])
	}

	fmt.Printf("Memory:\n")
	mem := state.MemorySnapshot()
	for _, addr := range sortedAddrs(mem) {
		fmt.Printf("  [%d] = %d\n", addr, mem[addr])
	}
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedAddrs(m map[uint64]int64) []uint64 {
	addrs := make([]uint64, 0, len(m))
	for a := range m {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}
