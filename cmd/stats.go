package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number of enrolled labels and descriptors",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	fmt.Printf("Backend:     %s\n", cfg.Database.Driver)
	fmt.Printf("Model:       %s (dim %d)\n", store.Model(), store.Dim())
	fmt.Printf("Threshold:   %.2f\n", cfg.Matching.Threshold)
	fmt.Printf("Matcher:     %s\n", cfg.Matching.Index)
	fmt.Printf("Labels:      %d\n", len(store.Labels()))
	fmt.Printf("Descriptors: %d\n", store.Len())

	total, byLabel, ok, err := store.PersistedCounts(ctx)
	if err != nil {
		return err
	}
	if ok {
		fmt.Printf("Persisted:   %d descriptors, %d labels\n", total, len(byLabel))
		if total != store.Len() {
			fmt.Println("Warning: persisted count differs from the loaded corpus")
		}
	}
	return nil
}
