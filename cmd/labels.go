package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/facematch"
	"github.com/spf13/cobra"
)

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List and manage enrolled labels",
	Long:  `List all enrolled labels with their descriptor counts. Use subcommands to delete labels.`,
	RunE:  runLabelsList,
}

var labelsDeleteCmd = &cobra.Command{
	Use:   "delete <label>...",
	Short: "Delete labels and all their descriptors",
	Long: `Delete every descriptor enrolled under the given labels.
Labels are matched exactly, including case.

Example:
  face-registry labels delete Alice
  face-registry labels delete Alice "Jan Novák" --yes`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLabelsDelete,
}

func init() {
	rootCmd.AddCommand(labelsCmd)
	labelsCmd.AddCommand(labelsDeleteCmd)

	labelsCmd.Flags().String("sort", "name", "Order by name or count; a leading - reverses (e.g. -count)")
	labelsCmd.Flags().String("search", "", "Filter labels by substring, ignoring case and diacritics")
	labelsDeleteCmd.Flags().Bool("yes", false, "Delete without asking")
}

func runLabelsList(cmd *cobra.Command, args []string) error {
	sortBy := mustGetString(cmd, "sort")
	search := facematch.NormalizePersonName(mustGetString(cmd, "search"))

	cfg := config.Load()
	store, err := openStore(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	labels := store.Labels()
	if search != "" {
		var filtered []database.LabelStats
		for _, l := range labels {
			if strings.Contains(facematch.NormalizePersonName(l.Label), search) {
				filtered = append(filtered, l)
			}
		}
		labels = filtered
	}

	sortLabelStats(labels, sortBy)

	if len(labels) == 0 {
		fmt.Println("No labels found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tDESCRIPTORS")
	fmt.Fprintln(w, "-----\t-----------")
	for _, l := range labels {
		fmt.Fprintf(w, "%s\t%d\n", l.Label, l.Descriptors)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d labels\n", len(labels))
	return nil
}

func runLabelsDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	store, err := openStore(ctx, config.Load())
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	enrolled := make(map[string]int)
	for _, l := range store.Labels() {
		enrolled[l.Label] = l.Descriptors
	}

	targets := make([]string, 0, len(args))
	for _, label := range args {
		n, ok := enrolled[label]
		if !ok {
			fmt.Printf("skip %q: not enrolled\n", label)
			continue
		}
		fmt.Printf("%s: %d descriptor(s)\n", label, n)
		targets = append(targets, label)
	}
	if len(targets) == 0 {
		return fmt.Errorf("none of the given labels are enrolled")
	}

	if !mustGetBool(cmd, "yes") && !confirm(fmt.Sprintf("Remove %d label(s) from the registry?", len(targets))) {
		fmt.Println("Nothing deleted.")
		return nil
	}

	var removed int
	for _, label := range targets {
		n, err := store.DeleteLabel(ctx, label)
		if err != nil {
			return fmt.Errorf("deleting %q: %w", label, err)
		}
		removed += n
	}
	fmt.Printf("Removed %d label(s), %d descriptor(s).\n", len(targets), removed)
	return nil
}

// confirm asks a yes/no question on stdin. Anything but y/yes is a no.
func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// sortLabelStats orders labels in place. Name order keeps the collated order of the store.
func sortLabelStats(labels []database.LabelStats, sortBy string) {
	descending := strings.HasPrefix(sortBy, "-")
	field := strings.TrimPrefix(sortBy, "-")

	if field == "count" {
		sort.SliceStable(labels, func(i, j int) bool {
			return labels[i].Descriptors < labels[j].Descriptors
		})
	}
	if descending {
		for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
			labels[i], labels[j] = labels[j], labels[i]
		}
	}
}
