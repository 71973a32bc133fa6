// Package cli wires configuration, adapters and the pipeline behind the
// transub command.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

// errInterrupted distinguishes a user interruption from an ordinary failed
// run for exit-status purposes.
var errInterrupted = errors.New("interrupted")

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:           "transub <video> [soft_subtitle|hard_burned]",
		Short:         "Translate a video's speech into subtitles, optionally burned into the picture",
		Args:          cobra.RangeArgs(1, 2),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args)
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	root.Flags().String("config", "transub.toml", "Config file path")
	root.Flags().String("output-dir", "", "Output directory (overrides config)")
	root.Flags().String("model", "", "Translation model (overrides config)")
	root.Flags().Bool("json", false, "Print the result as JSON")
	root.Flags().Bool("keep-cache", false, "Keep intermediate cache files")
	root.Flags().String("log-level", "", "Log level: debug, info, warn, error")
	root.Flags().String("log-format", "", "Log format: text or json")

	if err := root.Execute(); err != nil {
		if errors.Is(err, errInterrupted) {
			fmt.Fprintln(os.Stderr, "interrupted")
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
