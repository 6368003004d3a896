package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/kass/go-airport-index/pkg/airports"
	"github.com/kass/go-airport-index/pkg/finder"
	"github.com/kass/go-airport-index/pkg/models"
)

var (
	snapshotFile string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "go-airport-index",
	Short: "Nearest-airport resolution over a fixed reference dataset",
	Long:  `Resolves geographic coordinates to the nearest airport in a reference dataset using interchangeable finder strategies (r-tree, exact-hash, brute-force).`,
}

var loadCmd = &cobra.Command{
	Use:   "load <airports.csv>",
	Short: "Parse an airport reference file into a snapshot",
	Long:  `Parse the airport reference CSV and save the record sequence as a binary snapshot for the other commands.`,
	Args:  cobra.ExactArgs(1),
	Run:   runLoad,
}

var queryCmd = &cobra.Command{
	Use:   "query <lat> <long>",
	Short: "Resolve a coordinate to its nearest airport",
	Long:  `Resolve a single coordinate to the nearest airport using the selected finder strategy.`,
	Args:  cobra.ExactArgs(2),
	Run:   runQuery,
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run nearest-airport query benchmarks",
	Long:  `Execute randomized nearest-airport queries against the selected strategy and report throughput.`,
	Run:   runBench,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validate the r-tree finder against the brute-force oracle",
	Long:  `Run randomized queries through both the r-tree and brute-force finders and report any index disagreement.`,
	Run:   runVerify,
}

var (
	strategy   string
	numQueries int
	numWorkers int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&snapshotFile, "file", "f", "airports.gob", "Snapshot file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	queryCmd.Flags().StringVarP(&strategy, "strategy", "s", "rtree", "Finder strategy: rtree, hash or brute")

	benchCmd.Flags().StringVarP(&strategy, "strategy", "s", "rtree", "Finder strategy: rtree, hash or brute")
	benchCmd.Flags().IntVarP(&numQueries, "queries", "q", 100000, "Number of queries to run")
	benchCmd.Flags().IntVarP(&numWorkers, "workers", "w", runtime.NumCPU(), "Number of worker goroutines")

	verifyCmd.Flags().IntVarP(&numQueries, "queries", "q", 10000, "Number of queries to run")
	verifyCmd.Flags().IntVarP(&numWorkers, "workers", "w", runtime.NumCPU(), "Number of worker goroutines")

	rootCmd.AddCommand(loadCmd, queryCmd, benchCmd, verifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRecords reads the snapshot written by the load command.
func loadRecords() []models.Airport {
	records, err := airports.LoadSnapshot(snapshotFile)
	if err != nil {
		log.Fatalf("Failed to load snapshot: %v", err)
	}
	return records
}

// buildFinder constructs the selected strategy over the record sequence.
// Any build failure (empty dataset, coordinate collision) is fatal here:
// the library reports typed errors and the tool keeps the abort policy.
func buildFinder(records []models.Airport) finder.AirportFinder {
	var (
		f   finder.AirportFinder
		err error
	)

	switch strategy {
	case "rtree":
		f, err = finder.NewRTree(records)
	case "hash":
		f, err = finder.NewHash(records)
	case "brute":
		f, err = finder.NewBruteForce(records)
	default:
		log.Fatalf("Unknown strategy %q (want rtree, hash or brute)", strategy)
	}

	if err != nil {
		log.Fatalf("Failed to build %s finder: %v", strategy, err)
	}
	return f
}

func runLoad(cmd *cobra.Command, args []string) {
	fmt.Printf("Loading airport reference data from %s...\n", args[0])

	start := time.Now()
	records, err := airports.Load(args[0])
	if err != nil {
		log.Fatalf("Failed to load airports: %v", err)
	}
	loadTime := time.Since(start)

	fmt.Printf("Loaded %d airports in %v\n", len(records), loadTime)

	if err := airports.SaveSnapshot(snapshotFile, records); err != nil {
		log.Fatalf("Failed to save snapshot: %v", err)
	}

	fmt.Printf("Snapshot saved to %s\n", snapshotFile)
}

func runQuery(cmd *cobra.Command, args []string) {
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		log.Fatalf("Invalid latitude %q: %v", args[0], err)
	}
	long, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		log.Fatalf("Invalid longitude %q: %v", args[1], err)
	}

	records := loadRecords()
	f := buildFinder(records)

	start := time.Now()
	index, err := f.ClosestInd(lat, long)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	elapsed := time.Since(start)

	airport := records[index]
	fmt.Printf("Nearest airport to (%v, %v):\n", lat, long)
	fmt.Printf("  Index: %d\n", index)
	fmt.Printf("  Name: %s (%s)\n", airport.Name, airport.Abbr)
	fmt.Printf("  Location: (%v, %v)\n", airport.Lat, airport.Long)
	fmt.Printf("  Source ID: %d\n", airport.ID)
	if verbose {
		fmt.Printf("  Query time: %v\n", elapsed)
	}
}

func runBench(cmd *cobra.Command, args []string) {
	records := loadRecords()
	fmt.Printf("Loaded %d airports\n", len(records))

	buildStart := time.Now()
	f := buildFinder(records)
	fmt.Printf("Built %s finder in %v\n", strategy, time.Since(buildStart))
	fmt.Printf("Running %d nearest-airport queries using %d workers...\n", numQueries, numWorkers)

	// The hash finder only answers exact coordinates, so benchmark it with
	// stored ones; the others get random query points.
	queries := make([]struct{ lat, long float64 }, numQueries)
	for i := 0; i < numQueries; i++ {
		if strategy == "hash" {
			a := records[rand.Intn(len(records))]
			queries[i] = struct{ lat, long float64 }{a.Lat, a.Long}
		} else {
			queries[i] = struct{ lat, long float64 }{
				lat:  rand.Float64()*180 - 90,
				long: rand.Float64()*360 - 180,
			}
		}
	}

	var queryCount atomic.Int64

	start := time.Now()

	var wg sync.WaitGroup
	queriesPerWorker := numQueries / numWorkers

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		startIdx := w * queriesPerWorker
		endIdx := startIdx + queriesPerWorker
		if w == numWorkers-1 {
			endIdx = numQueries
		}

		go func(workerID, start, end int) {
			defer wg.Done()

			for i := start; i < end; i++ {
				q := queries[i]
				index, err := f.ClosestInd(q.lat, q.long)
				if err != nil {
					log.Printf("Worker %d: Query error: %v", workerID, err)
					continue
				}
				queryCount.Add(1)

				if verbose && i%10000 == 0 {
					fmt.Printf("Worker %d: Query %d resolved to index %d\n", workerID, i, index)
				}
			}
		}(w, startIdx, endIdx)
	}

	wg.Wait()
	elapsed := time.Since(start)

	completedQueries := queryCount.Load()
	fmt.Printf("\nBenchmark Results:\n")
	fmt.Printf("Strategy: %s\n", strategy)
	fmt.Printf("Total queries: %d\n", completedQueries)
	fmt.Printf("Total time: %v\n", elapsed)
	fmt.Printf("Queries per second: %.0f\n", float64(completedQueries)/elapsed.Seconds())
	fmt.Printf("Average query time: %v\n", elapsed/time.Duration(completedQueries))
}

func runVerify(cmd *cobra.Command, args []string) {
	records := loadRecords()
	fmt.Printf("Loaded %d airports\n", len(records))

	tree, err := finder.NewRTree(records)
	if err != nil {
		log.Fatalf("Failed to build r-tree finder: %v", err)
	}
	brute, err := finder.NewBruteForce(records)
	if err != nil {
		log.Fatalf("Failed to build brute-force finder: %v", err)
	}

	fmt.Printf("Verifying %d queries against the brute-force oracle using %d workers...\n", numQueries, numWorkers)

	var mismatches atomic.Int64
	var queryCount atomic.Int64

	start := time.Now()

	var wg sync.WaitGroup
	queriesPerWorker := numQueries / numWorkers

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)

		go func(workerID int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

			for i := 0; i < queriesPerWorker; i++ {
				lat := r.Float64()*180 - 90
				long := r.Float64()*360 - 180

				got, err := tree.ClosestInd(lat, long)
				if err != nil {
					log.Fatalf("r-tree query failed: %v", err)
				}
				want, err := brute.ClosestInd(lat, long)
				if err != nil {
					log.Fatalf("brute-force query failed: %v", err)
				}

				if got != want {
					mismatches.Add(1)
					if verbose {
						fmt.Printf("Mismatch at (%v, %v): rtree=%d brute=%d\n", lat, long, got, want)
					}
				}
				queryCount.Add(1)
			}
		}(w)
	}

	wg.Wait()
	elapsed := time.Since(start)

	fmt.Printf("\nVerification Results:\n")
	fmt.Printf("Total queries: %d\n", queryCount.Load())
	fmt.Printf("Mismatches: %d\n", mismatches.Load())
	fmt.Printf("Total time: %v\n", elapsed)

	if mismatches.Load() > 0 {
		os.Exit(1)
	}
	fmt.Println("R-tree finder agrees with the brute-force oracle.")
}
