package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"matchday/internal/match"
	"matchday/internal/render"
	"matchday/internal/replay"
	"matchday/internal/telemetry"
)

var simulateFlags struct {
	seed          uint64
	planPath      string
	homeFormation string
	awayFormation string
	overall       uint8
	track         bool
	replayOut     string
	archivePath   string
	framePNG      string
	intentTrace   bool
	jsonOut       bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run one match and print the result",
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.Uint64Var(&simulateFlags.seed, "seed", 12345, "simulation seed")
	f.StringVar(&simulateFlags.planPath, "plan", "", "path to a MatchPlan JSON (overrides the builder flags)")
	f.StringVar(&simulateFlags.homeFormation, "home-formation", "4-4-2", "home formation")
	f.StringVar(&simulateFlags.awayFormation, "away-formation", "4-4-2", "away formation")
	f.Uint8Var(&simulateFlags.overall, "overall", 70, "uniform squad overall (0-100)")
	f.BoolVar(&simulateFlags.track, "track", false, "record per-tick positions for replay")
	f.StringVar(&simulateFlags.replayOut, "replay-out", "", "write the replay v2 envelope to this path")
	f.StringVar(&simulateFlags.archivePath, "archive", "", "also store the result in this sqlite archive")
	f.StringVar(&simulateFlags.framePNG, "frame-png", "", "render the final snapshot to this PNG path")
	f.BoolVar(&simulateFlags.intentTrace, "intent-trace", false, "record the full decision telemetry")
	f.BoolVar(&simulateFlags.jsonOut, "json", false, "print the full MatchResult JSON instead of tables")
	rootCmd.AddCommand(simulateCmd)
}

func loadPlan() (match.MatchPlan, error) {
	if simulateFlags.planPath != "" {
		data, err := os.ReadFile(simulateFlags.planPath)
		if err != nil {
			return match.MatchPlan{}, errors.Wrap(err, "read plan")
		}
		var plan match.MatchPlan
		if err := json.Unmarshal(data, &plan); err != nil {
			return match.MatchPlan{}, errors.Wrap(err, "parse plan")
		}
		plan.Seed = simulateFlags.seed
		return plan, nil
	}
	plan := match.MatchPlan{
		Seed: simulateFlags.seed,
		Home: match.UniformTeam("Home", match.Formation(simulateFlags.homeFormation), simulateFlags.overall),
		Away: match.UniformTeam("Away", match.Formation(simulateFlags.awayFormation), simulateFlags.overall),
	}
	plan.EnablePositionTracking = simulateFlags.track
	return plan, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	plan, err := loadPlan()
	if err != nil {
		return err
	}
	plan.EnablePositionTracking = plan.EnablePositionTracking || simulateFlags.track || simulateFlags.replayOut != ""

	if exp, err := match.LoadExpConfigFromEnv(); err != nil {
		return err
	} else if exp != nil {
		plan.Exp = exp
	}

	var opts []match.Option
	if simulateFlags.intentTrace {
		opts = append(opts, match.WithIntentTrace())
	}
	engine, err := match.NewEngine(plan, opts...)
	if err != nil {
		return err
	}
	res, err := engine.Run(context.Background())
	if err != nil {
		return err
	}

	if simulateFlags.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	printResult(res)

	if simulateFlags.replayOut != "" {
		env, err := replay.FromResult(res)
		if err != nil {
			return err
		}
		data, err := env.Encode()
		if err != nil {
			return err
		}
		if err := os.WriteFile(simulateFlags.replayOut, data, 0o644); err != nil {
			return errors.Wrap(err, "write replay")
		}
		telemetry.Infof("replay written to %s (hash %s)", simulateFlags.replayOut, env.FileHash)
	}

	if simulateFlags.archivePath != "" {
		arch, err := replay.OpenArchive(simulateFlags.archivePath)
		if err != nil {
			return err
		}
		defer arch.Close()
		if err := arch.SaveResult(res); err != nil {
			return err
		}
		telemetry.Infof("archived as %s", res.MatchID)
	}

	if simulateFlags.framePNG != "" {
		snap := engine.Snapshot()
		if err := render.SavePNG(simulateFlags.framePNG, &snap); err != nil {
			return errors.Wrap(err, "render frame")
		}
		telemetry.Infof("frame written to %s", simulateFlags.framePNG)
	}
	return nil
}

func printResult(res *match.MatchResult) {
	fmt.Printf("\n%s %d - %d %s   (seed %d, hash %s)\n\n",
		res.HomeTeam, res.Score[match.Home], res.Score[match.Away], res.AwayTeam,
		res.Determinism.Seed, res.Determinism.Hash)

	st := &res.Statistics
	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	table.Header("Stat", res.HomeTeam, res.AwayTeam)
	rows := [][]string{
		{"Possession %", fmt.Sprintf("%.1f", st.Possession[0]), fmt.Sprintf("%.1f", st.Possession[1])},
		{"Shots", fmt.Sprint(st.Shots[0]), fmt.Sprint(st.Shots[1])},
		{"On target", fmt.Sprint(st.ShotsOnTarget[0]), fmt.Sprint(st.ShotsOnTarget[1])},
		{"xG", fmt.Sprintf("%.2f", st.XG[0]), fmt.Sprintf("%.2f", st.XG[1])},
		{"Passes", fmt.Sprint(st.Passes[0]), fmt.Sprint(st.Passes[1])},
		{"Pass %", fmt.Sprintf("%.1f", st.PassPct[0]), fmt.Sprintf("%.1f", st.PassPct[1])},
		{"Corners", fmt.Sprint(st.Corners[0]), fmt.Sprint(st.Corners[1])},
		{"Fouls", fmt.Sprint(st.Fouls[0]), fmt.Sprint(st.Fouls[1])},
		{"Offsides", fmt.Sprint(st.Offsides[0]), fmt.Sprint(st.Offsides[1])},
	}
	for _, row := range rows {
		table.Append(row[0], row[1], row[2])
	}
	table.Render()

	goals := 0
	for _, ev := range res.Events {
		if ev.Type == match.EventGoal || ev.Type == match.EventOwnGoal {
			fmt.Printf("  %2d' %-9s %s (%s)\n", ev.Minute, ev.TypeName, ev.Player, ev.Team)
			goals++
		}
	}
	if goals > 0 {
		fmt.Println()
	}
}
