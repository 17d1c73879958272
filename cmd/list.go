package cmd

import (
	"time"

	"github.com/mj1618/winsync/internal/model"
	"github.com/mj1618/winsync/internal/output"
	"github.com/mj1618/winsync/internal/platform"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the windows in the shared roster",
	Long:  "Read the shared roster once and print each window's id, shape and metadata in join order.",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringArray("meta", nil, "Only windows whose metadata has key=value (repeatable, case-insensitive)")
	listCmd.Flags().String("bbox", "", "Only windows intersecting x,y,w,h")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pairs, _ := cmd.Flags().GetStringArray("meta")
	bboxStr, _ := cmd.Flags().GetString("bbox")

	meta, err := model.ParseMetaPairs(pairs)
	if err != nil {
		return err
	}
	var bbox *model.Shape
	if bboxStr != "" {
		b, err := platform.ParseShape(bboxStr)
		if err != nil {
			return err
		}
		bbox = &b
	}

	s, closer, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	res, err := readRoster(ctx, s)
	if err != nil {
		return err
	}
	windows := model.FilterWindows(res.Roster, meta, bbox)
	return output.Print(output.ListResult{
		Key:     activeConfig.Key,
		TS:      time.Now().Unix(),
		Count:   len(windows),
		Status:  res.Status.String(),
		Windows: windows,
	})
}
