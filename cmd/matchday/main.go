// matchday is the operational CLI: run simulations, inspect archives,
// verify replays.
package main

import (
	"os"

	"matchday/cmd/matchday/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
