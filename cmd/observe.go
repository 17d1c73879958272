package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mj1618/winsync/internal/logging"
	"github.com/mj1618/winsync/internal/model"
	"github.com/spf13/cobra"
)

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Watch the roster and stream changes as JSONL",
	Long: `Read the shared roster whenever the store reports a change (and at least
every --interval) and emit each difference as a JSON line: added, removed,
moved or updated windows.

Each line is a JSON object representing one change event. No output is emitted
while the roster is stable. Output is always JSONL regardless of --format.

Use Ctrl+C or --duration to stop observing.`,
	RunE: runObserve,
}

func init() {
	rootCmd.AddCommand(observeCmd)
	observeCmd.Flags().Int("interval", 1000, "Polling interval in milliseconds")
	observeCmd.Flags().Int("duration", 0, "Max seconds to observe (0 = until Ctrl+C)")
	observeCmd.Flags().Bool("ignore-moves", false, "Ignore shape-only changes")
}

func runObserve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)
	intervalMs, _ := cmd.Flags().GetInt("interval")
	durationSec, _ := cmd.Flags().GetInt("duration")
	ignoreMoves, _ := cmd.Flags().GetBool("ignore-moves")
	if intervalMs <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	s, closer, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)

	ctx, cancel := timeoutContext(ctx, float64(durationSec))
	defer cancel()
	start := time.Now()

	// Peer writes wake the loop early; the ticker covers missed notifications.
	wake := make(chan struct{}, 1)
	unsubscribe := s.OnExternalChange(activeConfig.Key, func(string, []byte) {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	res, err := readRoster(ctx, s)
	if err != nil {
		return fmt.Errorf("initial read failed: %w", err)
	}
	prev := res.Roster

	enc.Encode(map[string]interface{}{
		"type":   "snapshot",
		"ts":     time.Now().Unix(),
		"count":  len(prev),
		"status": res.Status.String(),
	})

	ticker := time.NewTicker(time.Duration(intervalMs) * time.Millisecond)
	defer ticker.Stop()
	eventCount := 0

	for {
		select {
		case <-ctx.Done():
			elapsed := time.Since(start)
			enc.Encode(map[string]interface{}{
				"type":    "done",
				"ts":      time.Now().Unix(),
				"elapsed": fmt.Sprintf("%.1fs", elapsed.Seconds()),
				"events":  eventCount,
			})
			return nil
		case <-ticker.C:
		case <-wake:
		}

		res, err := readRoster(ctx, s)
		if err != nil {
			logger.Debug("observe read failed", "error", err)
			enc.Encode(map[string]interface{}{
				"type":  "error",
				"ts":    time.Now().Unix(),
				"error": err.Error(),
			})
			continue
		}

		for _, change := range model.DiffRosters(prev, res.Roster) {
			if ignoreMoves && change.Type == model.ChangeMoved {
				continue
			}
			enc.Encode(change)
			eventCount++
		}
		prev = res.Roster
	}
}
