// dcachesim classifies the memory references of a text trace against a
// configurable cache model and reports hit and miss statistics.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/dcachesim/cache"
	"github.com/sarchlab/dcachesim/datarecording"
	"github.com/sarchlab/dcachesim/hierarchy"
	"github.com/sarchlab/dcachesim/trace"
)

var rootCmd = &cobra.Command{
	Use:   "dcachesim",
	Short: "Simulate a set-associative data cache over a memory trace.",
	Long: `dcachesim replays a memory-access trace against a software model ` +
		`of a set-associative cache and reports per-kind hit and miss ` +
		`statistics.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a trace and print the hit/miss report.",
	RunE:  runTrace,
}

var runFlags struct {
	traceFile       string
	name            string
	size            uint64
	lineSize        uint64
	associativity   int
	replacement     string
	storeAllocation string

	l2Size          uint64
	l2LineSize      uint64
	l2Associativity int

	recordPath string
}

func init() {
	// Load .env before flag registration so environment-backed defaults
	// pick it up.
	_ = godotenv.Load()

	flags := runCmd.Flags()

	flags.StringVarP(&runFlags.traceFile, "trace", "t", "",
		"trace file to replay (required)")
	flags.StringVar(&runFlags.name, "name", "L1 Data Cache",
		"label of the cache in the report")
	flags.Uint64Var(&runFlags.size, "size", 16*cache.KB,
		"total cache size in bytes")
	flags.Uint64Var(&runFlags.lineSize, "line-size", 64,
		"cache line size in bytes")
	flags.IntVar(&runFlags.associativity, "associativity", 4,
		"lines per set")
	flags.StringVar(&runFlags.replacement, "replacement", "lru",
		"replacement strategy: lru or directMapped")
	flags.StringVar(&runFlags.storeAllocation, "store-allocation", "allocate",
		"store-miss policy: allocate or noAllocate")

	flags.Uint64Var(&runFlags.l2Size, "l2-size", 0,
		"L2 size in bytes; 0 disables the second level")
	flags.Uint64Var(&runFlags.l2LineSize, "l2-line-size", 64,
		"L2 line size in bytes")
	flags.IntVar(&runFlags.l2Associativity, "l2-associativity", 8,
		"L2 lines per set")

	flags.StringVar(&runFlags.recordPath, "record", os.Getenv("DCACHESIM_RECORD"),
		"record results into SQLite database at this path")

	_ = runCmd.MarkFlagRequired("trace")

	rootCmd.AddCommand(runCmd)
}

func runTrace(cmd *cobra.Command, args []string) error {
	file, err := os.Open(runFlags.traceFile)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	defer file.Close()

	l1 := cache.MakeBuilder().
		WithSize(runFlags.size).
		WithLineSize(runFlags.lineSize).
		WithAssociativity(runFlags.associativity).
		WithReplacement(runFlags.replacement).
		WithStoreAllocation(runFlags.storeAllocation).
		Build(runFlags.name)

	caches := []*cache.Cache{l1}

	var h *hierarchy.TwoLevel
	if runFlags.l2Size > 0 {
		l2 := cache.MakeBuilder().
			WithSize(runFlags.l2Size).
			WithLineSize(runFlags.l2LineSize).
			WithAssociativity(runFlags.l2Associativity).
			Build("L2 Cache")
		h = hierarchy.NewTwoLevel(l1, l2)
		caches = append(caches, l2)
	}

	reader := trace.NewReader(file)
	numRefs := uint64(0)

	for {
		access, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return err
		}

		if h != nil {
			h.Access(access.Address, access.Size, access.Kind)
		} else {
			l1.Access(access.Address, access.Size, access.Kind)
		}

		numRefs++
	}

	fmt.Fprintf(os.Stderr, "Replayed %d references from %s\n",
		numRefs, runFlags.traceFile)

	for _, c := range caches {
		fmt.Print(c.StatsLong(""))
	}

	if runFlags.recordPath != "" {
		recordResults(runFlags.recordPath, runFlags.traceFile, numRefs, caches)
	}

	return nil
}

type runSummaryEntry struct {
	Trace         string
	References    uint64
	Size          uint64
	LineSize      uint64
	Associativity int
}

type cacheStatEntry struct {
	CacheName string
	Kind      string
	Hits      uint64
	Misses    uint64
	Accesses  uint64
}

func recordResults(
	path, traceFile string,
	numRefs uint64,
	caches []*cache.Cache,
) {
	recorder := datarecording.New(path)

	recorder.CreateTable("run_summary", runSummaryEntry{})
	recorder.InsertData("run_summary", runSummaryEntry{
		Trace:         traceFile,
		References:    numRefs,
		Size:          runFlags.size,
		LineSize:      runFlags.lineSize,
		Associativity: runFlags.associativity,
	})

	recorder.CreateTable("cache_stats", cacheStatEntry{})
	for _, c := range caches {
		for _, kind := range []cache.AccessKind{
			cache.AccessLoad, cache.AccessStore,
		} {
			recorder.InsertData("cache_stats", cacheStatEntry{
				CacheName: c.Name(),
				Kind:      kind.String(),
				Hits:      c.Hits(kind),
				Misses:    c.Misses(kind),
				Accesses:  c.Accesses(kind),
			})
		}
	}

	recorder.Flush()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
