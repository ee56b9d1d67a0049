package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/recognition"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <image>...",
	Short: "Recognize the faces in images",
	Long: `Detect every face in each image and report the nearest enrolled label,
or "unknown" when no enrolled face is within the threshold.

Examples:
  face-registry query group.jpg
  face-registry query --threshold 0.5 --json a.jpg b.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().Float64("threshold", 0, "Match threshold, 0 for exact matches only (default MATCH_THRESHOLD or the model profile)")
	queryCmd.Flags().Bool("json", false, "Output as JSON")
}

// queryOutput holds the results for one image.
type queryOutput struct {
	Image   string                   `json:"image"`
	Results []recognition.FaceResult `json:"results"`
	Error   string                   `json:"error,omitempty"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	cfg := config.Load()
	threshold, ok, err := thresholdOverride(cmd)
	if err != nil {
		return err
	}
	if ok {
		cfg.Matching.Threshold = threshold
	}

	ctx := context.Background()
	p, err := openPipeline(ctx, cfg, cfg.Matching.Concurrency)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer p.Close()

	if p.store.IsEmpty() && !jsonOutput {
		fmt.Println("Warning: no faces enrolled, every face will be unknown")
	}

	outputs := make([]queryOutput, 0, len(args))
	failed := 0
	for _, path := range args {
		out := queryOutput{Image: path}
		data, err := os.ReadFile(path)
		if err == nil {
			out.Results, err = p.querier.QueryAll(ctx, data)
		}
		if err != nil {
			out.Error = err.Error()
			failed++
		}
		outputs = append(outputs, out)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outputs); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
	} else {
		printQueryResults(outputs)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(args))
	}
	return nil
}

func printQueryResults(outputs []queryOutput) {
	for _, out := range outputs {
		fmt.Printf("%s:\n", out.Image)
		if out.Error != "" {
			fmt.Printf("  error: %s\n\n", out.Error)
			continue
		}
		if len(out.Results) == 0 {
			fmt.Println("  no faces detected")
			fmt.Println()
			continue
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  FACE\tLABEL\tDISTANCE\tBBOX")
		for _, r := range out.Results {
			distance := "-"
			if d, ok := r.BestDistance(); ok {
				distance = fmt.Sprintf("%.4f", d)
			}
			bbox := "-"
			if len(r.BBox) == 4 {
				bbox = fmt.Sprintf("%.0f,%.0f,%.0f,%.0f", r.BBox[0], r.BBox[1], r.BBox[2], r.BBox[3])
			}
			fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", r.FaceIndex, r.Label, distance, bbox)
		}
		w.Flush()
		fmt.Println()
	}
}
