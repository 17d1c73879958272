package cmd

import (
	"github.com/mj1618/winsync/internal/logging"
	"github.com/mj1618/winsync/internal/output"
	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the shared store",
	Long: `Remove every key from the shared store, including records left behind by
windows that exited without unregistering. Running windows re-add themselves
on their next tick.`,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, closer, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	removed := 0
	if res, err := readRoster(ctx, s); err == nil {
		removed = len(res.Roster)
	}
	if err := s.Clear(); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("shared store cleared", "store", activeConfig.Store, "windows", removed)
	return output.Print(output.ClearResult{
		OK:      true,
		Store:   activeConfig.Store,
		Removed: removed,
	})
}
