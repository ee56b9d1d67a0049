package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-registry",
	Short: "Enroll labeled faces and recognize them in new images",
	Long: `Face Registry stores face descriptors under person labels and classifies
the faces of new images as the nearest enrolled person, or as "unknown" when
no enrolled face is close enough.

Descriptors come from an external face-embedding service (EMBEDDING_URL) or,
in builds with the dlib tag, from an in-process dlib model.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
