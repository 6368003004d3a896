package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/kass/go-airport-index/pkg/finder"
)

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF79C6")).
			Background(lipgloss.Color("#282A36")).
			Padding(0, 1).
			MarginTop(1).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F1FA8C"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#BD93F9")).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)

	statStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))
)

type stage int

const (
	stageBuilding stage = iota
	stageQuerying
	stageVerifying
	stageDone
)

type model struct {
	stage           stage
	spinner         spinner.Model
	progress        progress.Model
	progressPercent float64

	buildStats  buildResult
	queryStats  queryResult
	verifyStats verifyResult

	messages []string
	width    int
	height   int
}

type buildResult struct {
	airports  int
	treeTime  time.Duration
	bruteTime time.Duration
	hashTime  time.Duration
	hashOK    bool
}

type queryResult struct {
	totalQueries  int64
	totalTime     time.Duration
	avgQueryTime  time.Duration
	queriesPerSec float64
}

type verifyResult struct {
	queries    int64
	mismatches int64
	totalTime  time.Duration
}

type progressMsg float64
type stageCompleteMsg struct {
	stage stage
	stats interface{}
}
type messageMsg string

func initialModel() model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6"))

	p := progress.New(progress.WithDefaultGradient())

	return model{
		stage:    stageBuilding,
		spinner:  s,
		progress: p,
		messages: []string{},
		width:    80,
		height:   24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		startDemo(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 10
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		m.progressPercent = float64(msg)
		return m, m.progress.SetPercent(float64(msg))

	case messageMsg:
		m.messages = append(m.messages, string(msg))
		if len(m.messages) > 5 {
			m.messages = m.messages[1:]
		}
		return m, nil

	case stageCompleteMsg:
		switch msg.stage {
		case stageBuilding:
			if stats, ok := msg.stats.(buildResult); ok {
				m.buildStats = stats
			}
			m.stage = stageQuerying
		case stageQuerying:
			if stats, ok := msg.stats.(queryResult); ok {
				m.queryStats = stats
			}
			m.stage = stageVerifying
		case stageVerifying:
			if stats, ok := msg.stats.(verifyResult); ok {
				m.verifyStats = stats
			}
			m.stage = stageDone
		}
		return m, nil
	}

	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("✈ Airport Index Demo"))
	b.WriteString("\n\n")

	switch m.stage {
	case stageBuilding:
		b.WriteString(subtitleStyle.Render("Building Finder Strategies"))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View() + " Loading airports and building indexes...\n\n")
		b.WriteString(m.progress.ViewAs(m.progressPercent))

	case stageQuerying:
		b.WriteString(renderBuildStats(m.buildStats))
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render("Running Nearest-Airport Queries"))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View() + " Resolving random coordinates on the r-tree finder...\n\n")
		b.WriteString(m.progress.ViewAs(m.progressPercent))

	case stageVerifying:
		b.WriteString(renderQueryStats(m.queryStats))
		b.WriteString("\n")
		b.WriteString(subtitleStyle.Render("Validating Against the Brute-Force Oracle"))
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View() + " Comparing r-tree answers with the linear scan...\n\n")
		b.WriteString(m.progress.ViewAs(m.progressPercent))

	case stageDone:
		b.WriteString(renderSummary(m))
	}

	// Show recent messages
	if len(m.messages) > 0 {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("Recent activity:"))
		b.WriteString("\n")
		for _, msg := range m.messages {
			b.WriteString(dimStyle.Render("• " + msg))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("Press 'q' to quit"))

	return b.String()
}

func renderBuildStats(stats buildResult) string {
	hashLine := "✗ exact-hash finder unavailable (coordinate collision)"
	if stats.hashOK {
		hashLine = fmt.Sprintf("✓ exact-hash finder built in %s", statStyle.Render(stats.hashTime.String()))
	}

	content := fmt.Sprintf(
		"✓ %s airports indexed\n"+
			"✓ r-tree finder built in %s\n"+
			"✓ brute-force finder built in %s\n"+
			"%s",
		statStyle.Render(fmt.Sprintf("%d", stats.airports)),
		statStyle.Render(stats.treeTime.String()),
		statStyle.Render(stats.bruteTime.String()),
		hashLine,
	)

	return boxStyle.Render(successStyle.Render("Build Complete!\n\n") + content)
}

func renderQueryStats(stats queryResult) string {
	content := fmt.Sprintf(
		"✓ Total queries: %s\n"+
			"✓ Total time: %s\n"+
			"✓ Queries per second: %s\n"+
			"✓ Average query time: %s",
		statStyle.Render(fmt.Sprintf("%d", stats.totalQueries)),
		statStyle.Render(stats.totalTime.String()),
		statStyle.Render(fmt.Sprintf("%.0f", stats.queriesPerSec)),
		statStyle.Render(stats.avgQueryTime.String()),
	)

	return boxStyle.Render(successStyle.Render("Query Benchmark Complete!\n\n") + content)
}

func renderSummary(m model) string {
	summary := titleStyle.Render("✈ Demo Complete!")
	summary += "\n\n"

	verdict := successStyle.Render(fmt.Sprintf("• r-tree agreed with brute force on all %d queries", m.verifyStats.queries))
	if m.verifyStats.mismatches > 0 {
		verdict = infoStyle.Render(fmt.Sprintf("• %d of %d queries disagreed with the oracle", m.verifyStats.mismatches, m.verifyStats.queries))
	}

	summary += infoStyle.Render("The finder strategies demonstrated:")
	summary += "\n\n"
	summary += successStyle.Render(fmt.Sprintf("• Parallel index construction over %d CPU cores", runtime.NumCPU())) + "\n"
	summary += successStyle.Render(fmt.Sprintf("• Nearest-airport lookups at %s queries/sec", statStyle.Render(fmt.Sprintf("%.0f", m.queryStats.queriesPerSec)))) + "\n"
	summary += verdict + "\n"

	summary += "\n"
	summary += boxStyle.Render(
		infoStyle.Render("Performance Summary:\n\n") +
			fmt.Sprintf("Airports indexed: %s\n", statStyle.Render(fmt.Sprintf("%d", m.buildStats.airports))) +
			fmt.Sprintf("R-tree build time: %s\n", statStyle.Render(m.buildStats.treeTime.String())) +
			fmt.Sprintf("Oracle validation time: %s", statStyle.Render(m.verifyStats.totalTime.String())),
	)

	return summary
}

func startDemo() tea.Cmd {
	return func() tea.Msg {
		go executeDemo()
		return nil
	}
}

var program *tea.Program

func executeDemo() {
	tree, brute := buildPhase()
	if tree == nil {
		return
	}

	time.Sleep(500 * time.Millisecond)
	queryPhase(tree)

	time.Sleep(500 * time.Millisecond)
	verifyPhase(tree, brute)
}

func buildPhase() (*finder.RTreeFinder, *finder.BruteForceFinder) {
	loadConfig()
	records := demoRecords()
	program.Send(progressMsg(0.3))

	stats := buildResult{airports: len(records)}

	start := time.Now()
	tree, err := finder.NewRTree(records)
	if err != nil {
		program.Send(messageMsg(fmt.Sprintf("r-tree build failed: %v", err)))
		return nil, nil
	}
	stats.treeTime = time.Since(start)
	program.Send(progressMsg(0.7))

	start = time.Now()
	brute, err := finder.NewBruteForce(records)
	if err != nil {
		program.Send(messageMsg(fmt.Sprintf("brute-force build failed: %v", err)))
		return nil, nil
	}
	stats.bruteTime = time.Since(start)
	program.Send(progressMsg(0.9))

	start = time.Now()
	if _, err := finder.NewHash(records); err != nil {
		program.Send(messageMsg(fmt.Sprintf("exact-hash finder unavailable: %v", err)))
	} else {
		stats.hashTime = time.Since(start)
		stats.hashOK = true
	}
	program.Send(progressMsg(1.0))

	program.Send(stageCompleteMsg{stage: stageBuilding, stats: stats})
	return tree, brute
}

func queryPhase(tree *finder.RTreeFinder) {
	numQueries := config.Demo.Queries
	numWorkers := runtime.NumCPU()

	queries := make([]struct{ lat, long float64 }, numQueries)
	for i := 0; i < numQueries; i++ {
		queries[i] = struct{ lat, long float64 }{
			lat:  rand.Float64()*180 - 90,
			long: rand.Float64()*360 - 180,
		}
	}

	var queryCount atomic.Int32

	start := time.Now()

	// Progress updater
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()

		for range ticker.C {
			program.Send(progressMsg(float64(queryCount.Load()) / float64(numQueries)))

			if queryCount.Load() >= int32(numQueries) {
				break
			}
		}
	}()

	var wg sync.WaitGroup
	queriesPerWorker := numQueries / numWorkers

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		startIdx := w * queriesPerWorker
		endIdx := startIdx + queriesPerWorker
		if w == numWorkers-1 {
			endIdx = numQueries
		}

		go func(start, end int) {
			defer wg.Done()

			for i := start; i < end; i++ {
				q := queries[i]
				if _, err := tree.ClosestInd(q.lat, q.long); err != nil {
					program.Send(messageMsg(fmt.Sprintf("query failed: %v", err)))
					continue
				}
				queryCount.Add(1)
			}
		}(startIdx, endIdx)
	}

	wg.Wait()
	elapsed := time.Since(start)

	completedQueries := queryCount.Load()
	program.Send(stageCompleteMsg{
		stage: stageQuerying,
		stats: queryResult{
			totalQueries:  int64(completedQueries),
			totalTime:     elapsed,
			avgQueryTime:  elapsed / time.Duration(completedQueries),
			queriesPerSec: float64(completedQueries) / elapsed.Seconds(),
		},
	})
}

func verifyPhase(tree *finder.RTreeFinder, brute *finder.BruteForceFinder) {
	numQueries := config.Demo.Queries / 10
	if numQueries < 100 {
		numQueries = 100
	}
	numWorkers := runtime.NumCPU()

	var mismatches atomic.Int64
	var queryCount atomic.Int32

	start := time.Now()

	// Progress updater
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()

		for range ticker.C {
			program.Send(progressMsg(float64(queryCount.Load()) / float64(numQueries)))

			if queryCount.Load() >= int32(numQueries) {
				break
			}
		}
	}()

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
					program.Send(messageMsg(fmt.Sprintf("r-tree query failed: %v", err)))
					continue
				}
				want, err := brute.ClosestInd(lat, long)
				if err != nil {
					program.Send(messageMsg(fmt.Sprintf("brute-force query failed: %v", err)))
					continue
				}

				if got != want {
					mismatches.Add(1)
				}
				queryCount.Add(1)
			}
		}(w)
	}

	wg.Wait()
	elapsed := time.Since(start)

	program.Send(stageCompleteMsg{
		stage: stageVerifying,
		stats: verifyResult{
			queries:    int64(queryCount.Load()),
			mismatches: mismatches.Load(),
			totalTime:  elapsed,
		},
	})
}

func main() {
	plain := len(os.Args) > 1 && os.Args[1] == "--plain"
	if plain || !isatty.IsTerminal(os.Stdout.Fd()) {
		runPlainDemo()
		return
	}

	program = tea.NewProgram(initialModel())

	if err := program.Start(); err != nil {
		log.Fatal(err)
	}
}
