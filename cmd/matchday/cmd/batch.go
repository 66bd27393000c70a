package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"matchday/internal/match"
)

var batchFlags struct {
	runs     int
	seed     uint64
	workers  int
	overall  uint8
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Simulate N matches on consecutive seeds and aggregate outcomes",
	RunE:  runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.IntVar(&batchFlags.runs, "runs", 100, "number of matches")
	f.Uint64Var(&batchFlags.seed, "seed", 1, "first seed; match i uses seed+i")
	f.IntVar(&batchFlags.workers, "workers", runtime.NumCPU(), "parallel workers (one match per worker)")
	f.Uint8Var(&batchFlags.overall, "overall", 70, "uniform squad overall")
	rootCmd.AddCommand(batchCmd)
}

// batchOutcome is one match reduced to the aggregate dimensions.
type batchOutcome struct {
	homeGoals, awayGoals int
	homeXG, awayXG       float64
	events               int
}

func runBatch(cmd *cobra.Command, args []string) error {
	n := batchFlags.runs
	outcomes := make([]batchOutcome, n)

	// Matches parallelize across workers; each engine is owned exclusively
	// by one goroutine, nothing is shared.
	sem := make(chan struct{}, maxI(batchFlags.workers, 1))
	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			plan := match.DefaultPlan(batchFlags.seed + uint64(i))
			plan.Home = match.UniformTeam("Home", match.F442, batchFlags.overall)
			plan.Away = match.UniformTeam("Away", match.F442, batchFlags.overall)
			engine, err := match.NewEngine(plan)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			res, err := engine.Run(context.Background())
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			outcomes[i] = batchOutcome{
				homeGoals: int(res.Score[match.Home]),
				awayGoals: int(res.Score[match.Away]),
				homeXG:    res.Statistics.XG[match.Home],
				awayXG:    res.Statistics.XG[match.Away],
				events:    len(res.Events),
			}
		}(i)
	}
	wg.Wait()
	if firstErr != nil {
		return firstErr
	}

	var homeWins, draws, awayWins, goals, events int
	var xg float64
	for _, o := range outcomes {
		switch {
		case o.homeGoals > o.awayGoals:
			homeWins++
		case o.homeGoals < o.awayGoals:
			awayWins++
		default:
			draws++
		}
		goals += o.homeGoals + o.awayGoals
		events += o.events
		xg += o.homeXG + o.awayXG
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
	}))
	table.Header("Metric", "Value")
	table.Append("Matches", fmt.Sprint(n))
	table.Append("Home wins", fmt.Sprintf("%d (%.1f%%)", homeWins, pct(homeWins, n)))
	table.Append("Draws", fmt.Sprintf("%d (%.1f%%)", draws, pct(draws, n)))
	table.Append("Away wins", fmt.Sprintf("%d (%.1f%%)", awayWins, pct(awayWins, n)))
	table.Append("Goals/match", fmt.Sprintf("%.2f", float64(goals)/float64(n)))
	table.Append("xG/match", fmt.Sprintf("%.2f", xg/float64(n)))
	table.Append("Events/match", fmt.Sprintf("%.0f", float64(events)/float64(n)))
	table.Render()
	return nil
}

func pct(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b) * 100
}

func maxI(a, b int) int {
	if a > b {
		return a
	}
	return b
}
