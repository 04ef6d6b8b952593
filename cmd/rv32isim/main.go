// Command rv32isim runs and inspects the RV32I five-stage pipeline
// simulator implemented in pkg/core.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logger *zap.SugaredLogger

func newLogger(verbose bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	z, err := cfg.Build()
	if err != nil {
		// zap itself failed to build; fall back to a no-op logger rather
		// than take down a CLI tool over logging setup.
		z = zap.NewNop()
	}
	return z.Sugar()
}

func main() {
	root := &cobra.Command{
		Use:   "rv32isim",
		Short: "A cycle-accurate RV32I five-stage pipeline simulator",
	}
	root.PersistentFlags().Bool("verbose", false, "enable debug-level logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newStepCmd())
	root.AddCommand(newRegsCmd())
	root.AddCommand(newAsmCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
