// Command export-test-model writes the CatBoost model used by the servable
// tests to test_model/1/catboost.cbm next to this source file.
//
// Usage:
//
//	go run ./cmd/export-test-model
//	go run ./cmd/export-test-model inspect test_model/1/catboost.cbm
package main

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/YuminosukeSato/catserve/fixture"
	"github.com/YuminosukeSato/catserve/pkg/errors"
	"github.com/YuminosukeSato/catserve/pkg/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	log.SetupLogger("info", os.Stderr)
	errors.SetZerologWarnFunc(errors.NewZerologWarnFunc(
		zerolog.New(os.Stderr).With().Timestamp().Logger(),
	))

	root, err := scriptDir()
	if err != nil {
		log.GetLogger().Error("Failed to resolve output directory", err)
		os.Exit(1)
	}
	if err := newRootCmd(root).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(root string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-test-model",
		Short: "Train and export the CatBoost test model",
		Long: `Trains a small CatBoost classifier on seeded synthetic data and writes it to
test_model/1/catboost.cbm for the servable tests. Re-running overwrites the
file with identical bytes.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := fixture.DefaultConfig(root)
			cfg.Out = cmd.OutOrStdout()
			_, err := fixture.Export(cfg)
			return err
		},
	}
	cmd.AddCommand(newInspectCmd())
	return cmd
}

// scriptDir is the directory of this source file when it is available, as
// under go run, and the executable's directory otherwise.
func scriptDir() (string, error) {
	if _, file, _, ok := runtime.Caller(0); ok {
		dir := filepath.Dir(file)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, "failed to locate executable")
	}
	return filepath.Dir(exe), nil
}
