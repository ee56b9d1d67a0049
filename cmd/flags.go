package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// mustFlag reads a flag registered in init(). A lookup error is a wiring bug,
// not user input, so it panics.
func mustFlag[T any](cmd *cobra.Command, name string, get func(*pflag.FlagSet, string) (T, error)) T {
	val, err := get(cmd.Flags(), name)
	if err != nil {
		panic(fmt.Sprintf("flag error for --%s: %v", name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	return mustFlag(cmd, name, (*pflag.FlagSet).GetBool)
}

func mustGetInt(cmd *cobra.Command, name string) int {
	return mustFlag(cmd, name, (*pflag.FlagSet).GetInt)
}

func mustGetString(cmd *cobra.Command, name string) string {
	return mustFlag(cmd, name, (*pflag.FlagSet).GetString)
}

func mustGetFloat64(cmd *cobra.Command, name string) float64 {
	return mustFlag(cmd, name, (*pflag.FlagSet).GetFloat64)
}

// thresholdOverride returns --threshold when it was given explicitly, so that
// --threshold 0 selects exact-only matching instead of the configured value.
func thresholdOverride(cmd *cobra.Command) (float64, bool, error) {
	if !cmd.Flags().Changed("threshold") {
		return 0, false, nil
	}
	t := mustGetFloat64(cmd, "threshold")
	if t < 0 {
		return 0, false, fmt.Errorf("--threshold must not be negative, got %v", t)
	}
	return t, true, nil
}
