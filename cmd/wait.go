package cmd

import (
	"fmt"
	"time"

	"github.com/mj1618/winsync/internal/model"
	"github.com/mj1618/winsync/internal/output"
	"github.com/mj1618/winsync/internal/server"
	"github.com/spf13/cobra"
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for a roster condition to be met",
	Long: `Poll the shared roster until a condition is met or the timeout is reached.

Examples:
  winsync wait --dir /tmp/roster --count 3
  winsync wait --dir /tmp/roster --id 0190a1b2-... --gone`,
	RunE: runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().Int("count", 0, "Wait until at least this many windows are registered (fewer with --gone)")
	waitCmd.Flags().String("id", "", "Wait until the window with this id is registered")
	waitCmd.Flags().Bool("gone", false, "Invert: wait until the condition is NO LONGER true")
	waitCmd.Flags().Int("timeout", 30, "Max seconds to wait")
	waitCmd.Flags().Int("interval", 500, "Polling interval in milliseconds")
}

func runWait(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	id, _ := cmd.Flags().GetString("id")
	gone, _ := cmd.Flags().GetBool("gone")
	timeoutSec, _ := cmd.Flags().GetInt("timeout")
	intervalMs, _ := cmd.Flags().GetInt("interval")

	cond := server.Condition{Count: count, ID: id, Gone: gone}
	if err := cond.Validate(); err != nil {
		return fmt.Errorf("specify at least one condition: --count or --id")
	}

	s, closer, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := timeoutContext(cmd.Context(), float64(timeoutSec))
	defer cancel()

	outcome, err := server.WaitFor(ctx, func() (model.Roster, error) {
		res, err := readRoster(ctx, s)
		return res.Roster, err
	}, cond, time.Duration(intervalMs)*time.Millisecond)
	if err != nil {
		return err
	}

	return output.Print(output.WaitResult{
		OK:        true,
		Elapsed:   fmt.Sprintf("%.1fs", outcome.Elapsed.Seconds()),
		Condition: cond.String(),
		Count:     len(outcome.Roster),
		Window:    outcome.Match,
	})
}
