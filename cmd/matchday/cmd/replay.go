package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"matchday/internal/replay"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Verify a replay v2 envelope and print its summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrap(err, "read replay")
		}
		env, err := replay.Decode(data)
		if err != nil {
			return err
		}
		fmt.Printf("%s %d - %d %s\n", env.HomeTeam, env.Score[0], env.Score[1], env.AwayTeam)
		fmt.Printf("  match    %s\n", env.MatchID)
		fmt.Printf("  seed     %d\n", env.Seed)
		fmt.Printf("  frames   %d (cadence %d ticks)\n", len(env.Frames), env.CadenceTicks)
		fmt.Printf("  events   %d\n", len(env.Events))
		fmt.Printf("  hash     %s (verified)\n", env.FileHash)
		fmt.Printf("  sim hash %s (%s, %s)\n", env.Determinism.Hash, env.Determinism.Algo, env.Determinism.Mode)
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive <db>",
	Short: "List matches stored in an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arch, err := replay.OpenArchive(args[0])
		if err != nil {
			return err
		}
		defer arch.Close()
		rows, err := arch.List(100)
		if err != nil {
			return err
		}
		table := tablewriter.NewTable(os.Stdout)
		table.Header("Match", "Seed", "Home", "Away", "Score", "Hash")
		for _, r := range rows {
			table.Append(r.MatchID[:8], fmt.Sprint(r.Seed), r.HomeTeam, r.AwayTeam,
				fmt.Sprintf("%d-%d", r.Score[0], r.Score[1]), r.DetHash[:12])
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(archiveCmd)
}
