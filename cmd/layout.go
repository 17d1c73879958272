package cmd

import (
	"fmt"
	"os"

	"github.com/mj1618/winsync/internal/layout"
	"github.com/mj1618/winsync/internal/output"
	"github.com/spf13/cobra"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Render the roster as a PNG",
	Long: `Draw every registered window as a labelled rectangle in shared screen
coordinates and write the result as a PNG file.`,
	RunE: runLayout,
}

func init() {
	rootCmd.AddCommand(layoutCmd)
	layoutCmd.Flags().StringP("output", "o", "layout.png", "PNG file to write")
	layoutCmd.Flags().Float64("scale", 0.25, "Pixels per screen point")
	layoutCmd.Flags().Int("padding", 8, "Border around the windows in pixels")
	layoutCmd.Flags().String("label", "ids", "Label each window with: ids, coords, none")
	layoutCmd.Flags().String("highlight", "", "Window id to outline")
}

func runLayout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path, _ := cmd.Flags().GetString("output")
	scale, _ := cmd.Flags().GetFloat64("scale")
	padding, _ := cmd.Flags().GetInt("padding")
	labelStr, _ := cmd.Flags().GetString("label")
	highlight, _ := cmd.Flags().GetString("highlight")

	mode, err := layout.ParseLabelMode(labelStr)
	if err != nil {
		return err
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

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	bounds, err := layout.WritePNG(f, res.Roster, layout.Options{
		Scale:     scale,
		Padding:   padding,
		Label:     mode,
		Highlight: highlight,
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}

	return output.Print(output.LayoutResult{
		OK:      true,
		Path:    path,
		Windows: len(res.Roster),
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
	})
}
