package main

import (
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/kass/go-airport-index/pkg/airports"
	"github.com/kass/go-airport-index/pkg/finder"
	"github.com/kass/go-airport-index/pkg/models"
	"github.com/kass/go-airport-index/pkg/postgis"
)

// Config structure for YAML configuration
type Config struct {
	Demo struct {
		Dataset  string `yaml:"dataset"`
		Airports int    `yaml:"airports"`
		Queries  int    `yaml:"queries"`
	} `yaml:"demo"`
	PostGIS struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
	} `yaml:"postgis"`
}

var (
	// ANSI color codes
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"

	config Config
)

func init() {
	// Disable colors if not in a terminal
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		colorReset = ""
		colorGreen = ""
		colorYellow = ""
		colorPurple = ""
		colorCyan = ""
		colorBold = ""
	}
}

func printTitle(title string) {
	fmt.Printf("\n%s%s✈ %s%s\n", colorBold, colorPurple, title, colorReset)
	fmt.Println(strings.Repeat("=", 60))
}

func printSubtitle(subtitle string) {
	fmt.Printf("\n%s%s%s%s\n", colorBold, colorCyan, subtitle, colorReset)
}

func printSuccess(message string) {
	fmt.Printf("%s✓ %s%s\n", colorGreen, message, colorReset)
}

func printInfo(message string) {
	fmt.Printf("%s• %s%s\n", colorYellow, message, colorReset)
}

func printStat(label string, value interface{}) {
	fmt.Printf("  %s%s:%s %s%v%s\n", colorBold, label, colorReset, colorYellow, value, colorReset)
}

func loadConfig() {
	// Defaults, overridden by config.yaml when present
	config.Demo.Airports = 50000
	config.Demo.Queries = 10000

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		printInfo(fmt.Sprintf("Ignoring bad config.yaml: %v", err))
	}
}

// demoRecords returns the dataset to run the demo over: the configured
// reference file when one is set, otherwise a generated one.
func demoRecords() []models.Airport {
	if config.Demo.Dataset != "" {
		records, err := airports.Load(config.Demo.Dataset)
		if err != nil {
			printInfo(fmt.Sprintf("Could not load %s (%v), generating airports instead", config.Demo.Dataset, err))
		} else {
			printSuccess(fmt.Sprintf("Loaded %d airports from %s", len(records), config.Demo.Dataset))
			return records
		}
	}

	records := generateRandomAirports(config.Demo.Airports)
	printSuccess(fmt.Sprintf("Generated %d random airports", len(records)))
	return records
}

func generateRandomAirports(n int) []models.Airport {
	records := make([]models.Airport, n)

	numWorkers := runtime.NumCPU()
	batchSize := n / numWorkers
	if batchSize < 1 {
		batchSize = 1
		numWorkers = n
	}
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		startIdx := w * batchSize
		endIdx := startIdx + batchSize
		if w == numWorkers-1 {
			endIdx = n
		}

		go func(start, end int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(start)))

			for i := start; i < end; i++ {
				var lat, long float64

				switch r.Intn(5) {
				case 0: // North America
					lat = r.Float64()*30 + 30
					long = r.Float64()*60 - 120
				case 1: // Europe
					lat = r.Float64()*20 + 40
					long = r.Float64()*40 - 10
				case 2: // Asia
					lat = r.Float64()*40 + 20
					long = r.Float64()*80 + 60
				case 3: // South America
					lat = r.Float64()*40 - 50
					long = r.Float64()*30 - 80
				default: // Random
					lat = r.Float64()*180 - 90
					long = r.Float64()*360 - 180
				}

				records[i] = models.Airport{
					Name: fmt.Sprintf("Airport %d", i),
					Abbr: fmt.Sprintf("A%04d", i),
					Lat:  lat,
					Long: long,
					ID:   uint64(i),
				}
			}
		}(startIdx, endIdx)
	}

	wg.Wait()
	return records
}

// benchStrategy runs random nearest queries through f with a worker pool and
// returns total time and completed query count.
func benchStrategy(f finder.AirportFinder, queries []struct{ lat, long float64 }) (time.Duration, int64) {
	numWorkers := runtime.NumCPU()
	var queryCount atomic.Int64

	start := time.Now()

	var wg sync.WaitGroup
	queriesPerWorker := len(queries) / numWorkers

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		startIdx := w * queriesPerWorker
		endIdx := startIdx + queriesPerWorker
		if w == numWorkers-1 {
			endIdx = len(queries)
		}

		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				q := queries[i]
				if _, err := f.ClosestInd(q.lat, q.long); err == nil {
					queryCount.Add(1)
				}
			}
		}(startIdx, endIdx)
	}

	wg.Wait()
	return time.Since(start), queryCount.Load()
}

func runPlainDemo() {
	printTitle("Airport Index Demo")

	loadConfig()

	printSubtitle("Loading reference data")
	records := demoRecords()

	printSubtitle("Building finder strategies")

	start := time.Now()
	tree, err := finder.NewRTree(records)
	if err != nil {
		printInfo(fmt.Sprintf("r-tree build failed: %v", err))
		return
	}
	printSuccess(fmt.Sprintf("Built r-tree finder in %v", time.Since(start)))

	start = time.Now()
	brute, err := finder.NewBruteForce(records)
	if err != nil {
		printInfo(fmt.Sprintf("brute-force build failed: %v", err))
		return
	}
	printSuccess(fmt.Sprintf("Built brute-force finder in %v", time.Since(start)))

	start = time.Now()
	hash, err := finder.NewHash(records)
	if err != nil {
		// A coordinate collision disables this strategy, the demo goes on
		// with the other two.
		printInfo(fmt.Sprintf("exact-hash finder unavailable: %v", err))
		hash = nil
	} else {
		printSuccess(fmt.Sprintf("Built exact-hash finder in %v", time.Since(start)))
	}

	printSubtitle("Benchmarking nearest-airport queries")

	queries := make([]struct{ lat, long float64 }, config.Demo.Queries)
	for i := range queries {
		queries[i] = struct{ lat, long float64 }{
			lat:  rand.Float64()*180 - 90,
			long: rand.Float64()*360 - 180,
		}
	}

	elapsed, completed := benchStrategy(tree, queries)
	printStat("r-tree", fmt.Sprintf("%d queries in %v (%.0f/sec)", completed, elapsed, float64(completed)/elapsed.Seconds()))

	elapsed, completed = benchStrategy(brute, queries)
	printStat("brute-force", fmt.Sprintf("%d queries in %v (%.0f/sec)", completed, elapsed, float64(completed)/elapsed.Seconds()))

	if hash != nil {
		// Exact queries only: replay stored coordinates.
		exact := make([]struct{ lat, long float64 }, len(queries))
		for i := range exact {
			a := records[rand.Intn(len(records))]
			exact[i] = struct{ lat, long float64 }{a.Lat, a.Long}
		}
		elapsed, completed = benchStrategy(hash, exact)
		printStat("exact-hash", fmt.Sprintf("%d exact queries in %v (%.0f/sec)", completed, elapsed, float64(completed)/elapsed.Seconds()))
	}

	printSubtitle("Validating r-tree against the brute-force oracle")

	mismatches := 0
	sample := queries
	if len(sample) > 1000 {
		sample = sample[:1000]
	}
	for _, q := range sample {
		got, _ := tree.ClosestInd(q.lat, q.long)
		want, _ := brute.ClosestInd(q.lat, q.long)
		if got != want {
			mismatches++
		}
	}
	if mismatches == 0 {
		printSuccess(fmt.Sprintf("All %d sampled queries agree", len(sample)))
	} else {
		printInfo(fmt.Sprintf("%d of %d sampled queries disagree", mismatches, len(sample)))
	}

	if config.PostGIS.Host != "" {
		runPostGISComparison(records, sample)
	}

	printTitle("Demo complete")
}

// runPostGISComparison mirrors the dataset into PostGIS and compares its
// server-side nearest answers against the r-tree finder. PostGIS ranks by
// planar geometric distance, so some disagreement with the projected metric
// is expected near the poles.
func runPostGISComparison(records []models.Airport, sample []struct{ lat, long float64 }) {
	printSubtitle("Comparing against PostGIS")

	catalog, err := postgis.NewAirportCatalog(
		config.PostGIS.Host, config.PostGIS.User, config.PostGIS.Password,
		config.PostGIS.Database, config.PostGIS.Port)
	if err != nil {
		printInfo(fmt.Sprintf("PostGIS unavailable: %v", err))
		return
	}
	defer catalog.Close()

	if err := catalog.InitSchema(); err != nil {
		printInfo(fmt.Sprintf("PostGIS schema setup failed: %v", err))
		return
	}

	start := time.Now()
	if err := catalog.BulkInsert(records); err != nil {
		printInfo(fmt.Sprintf("PostGIS bulk insert failed: %v", err))
		return
	}
	if err := catalog.CreateSpatialIndex(); err != nil {
		printInfo(fmt.Sprintf("PostGIS index creation failed: %v", err))
		return
	}
	printSuccess(fmt.Sprintf("Mirrored %d airports into PostGIS in %v", len(records), time.Since(start)))

	tree, err := finder.NewRTree(records)
	if err != nil {
		printInfo(fmt.Sprintf("r-tree build failed: %v", err))
		return
	}

	agreements := 0
	start = time.Now()
	for _, q := range sample {
		inMem, _ := tree.ClosestInd(q.lat, q.long)
		server, err := catalog.ClosestInd(q.lat, q.long)
		if err != nil {
			printInfo(fmt.Sprintf("PostGIS query failed: %v", err))
			return
		}
		if inMem == server {
			agreements++
		}
	}
	elapsed := time.Since(start)

	printStat("Queries", len(sample))
	printStat("Agreement with r-tree", fmt.Sprintf("%d/%d", agreements, len(sample)))
	printStat("PostGIS round-trip time", elapsed)
}
