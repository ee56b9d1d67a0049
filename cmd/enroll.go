package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/recognition"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [image...]",
	Short: "Enroll face images under a label",
	Long: `Extract one face descriptor per image and store all of them under a label.

Images without exactly one detectable face are skipped and reported. The
enrollment fails, storing nothing, only when no image yields a descriptor.

Examples:
  # Enroll two photos of Alice
  face-registry enroll --label Alice alice1.jpg alice2.jpg

  # Enroll every image in a directory
  face-registry enroll --label Bob --dir photos/bob

  # Enroll a whole roster
  face-registry enroll --manifest people.yaml`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("label", "", "Person label to enroll under")
	enrollCmd.Flags().String("dir", "", "Enroll every image in this directory")
	enrollCmd.Flags().String("manifest", "", "YAML roster of labels and images")
	enrollCmd.Flags().Int("concurrency", 0, "Parallel extractions per enrollment (default ENROLL_CONCURRENCY)")
	enrollCmd.Flags().Bool("json", false, "Output as JSON")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	label := mustGetString(cmd, "label")
	dir := mustGetString(cmd, "dir")
	manifestPath := mustGetString(cmd, "manifest")
	concurrency := mustGetInt(cmd, "concurrency")
	jsonOutput := mustGetBool(cmd, "json")

	var manifest *Manifest
	switch {
	case manifestPath != "":
		if label != "" || dir != "" || len(args) > 0 {
			return errors.New("--manifest cannot be combined with --label, --dir or image arguments")
		}
		m, err := LoadManifest(manifestPath)
		if err != nil {
			return err
		}
		manifest = m
	case label == "":
		return errors.New("--label is required")
	default:
		if len(args) == 0 && dir == "" {
			return errors.New("provide image files or --dir")
		}
		manifest = &Manifest{People: []ManifestEntry{{Label: label, Images: args, Dir: dir}}}
	}

	cfg := config.Load()
	if concurrency <= 0 {
		concurrency = cfg.Matching.Concurrency
	}

	ctx := context.Background()
	p, err := openPipeline(ctx, cfg, concurrency)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer p.Close()

	results, failed := enrollManifest(ctx, p.enroller, manifest, jsonOutput)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
	} else {
		printEnrollResults(results)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d enrollments failed", failed, len(manifest.People))
	}
	return nil
}

// enrollOutcome is the per-label report of the enroll command.
type enrollOutcome struct {
	*recognition.EnrollResult
	Label string `json:"label"`
	Error string `json:"error,omitempty"`
}

// enrollManifest enrolls every roster entry in order. A failed entry does not
// stop the remaining ones.
func enrollManifest(ctx context.Context, enroller *recognition.Enroller, m *Manifest, quiet bool) ([]enrollOutcome, int) {
	var bar *progressbar.ProgressBar
	if !quiet && len(m.People) > 1 {
		bar = progressbar.NewOptions(len(m.People),
			progressbar.OptionSetDescription("Enrolling"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("people"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	outcomes := make([]enrollOutcome, 0, len(m.People))
	failed := 0
	for _, person := range m.People {
		outcome := enrollOutcome{Label: person.Label}
		result, err := enrollEntry(ctx, enroller, person)
		if err != nil {
			outcome.Error = err.Error()
			failed++
		}
		outcome.EnrollResult = result
		outcomes = append(outcomes, outcome)

		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}
	return outcomes, failed
}

func enrollEntry(ctx context.Context, enroller *recognition.Enroller, person ManifestEntry) (*recognition.EnrollResult, error) {
	paths, err := person.Paths()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.New("no images found")
	}
	images, err := readImages(paths)
	if err != nil {
		return nil, err
	}
	return enroller.Enroll(ctx, person.Label, images)
}

func printEnrollResults(outcomes []enrollOutcome) {
	for _, o := range outcomes {
		if o.Error != "" {
			fmt.Printf("%s: FAILED: %s\n", o.Label, o.Error)
			continue
		}
		fmt.Printf("%s: stored %d descriptor(s), skipped %d image(s) [enrollment %s]\n",
			o.Label, o.Accepted, o.Rejected, o.EnrollmentID)
		for _, f := range o.Failures {
			fmt.Printf("  - %s: %s\n", f.Name, f.Reason)
		}
	}
}
