package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export all descriptors to a compressed archive",
	Long: `Write every enrolled descriptor to a zstd-compressed archive.
The archive can be imported into any backend with the same dimension,
for example to move from SQLite to PostgreSQL.

Example:
  DATABASE_DRIVER=sqlite DATABASE_URL=faces.db face-registry export faces.frz`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import descriptors from an archive",
	Long: `Append every descriptor of an archive written by "export" to the configured
backend. Existing descriptors are kept; importing the same archive twice
duplicates them.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	store, err := openStore(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer f.Close()

	data := store.Export()
	if err := database.WriteExport(f, data); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	fmt.Printf("Exported %d descriptors (dim %d, model %s) to %s\n",
		len(data.Descriptors), data.Dim, data.Model, args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	data, err := database.ReadExport(f)
	if err != nil {
		return err
	}

	ctx := context.Background()
	cfg := config.Load()
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	if data.Model != "" && data.Model != store.Model() {
		fmt.Printf("Warning: archive model %q differs from configured model %q\n", data.Model, store.Model())
	}

	n, err := store.Import(ctx, data)
	if err != nil {
		return fmt.Errorf("imported %d descriptors before failing: %w", n, err)
	}
	fmt.Printf("Imported %d descriptors from %s (exported %s)\n",
		n, args[0], data.ExportedAt.Format("2006-01-02 15:04:05"))
	return nil
}
