package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"borrowck/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "borrowck",
	Short:         "Ownership and borrow verifier for compiled IR units",
	Long:          `borrowck verifies ownership, borrow and isolation invariants of serialized IR compilation units produced by a front end`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// errVerificationFailed signals a Failed unit status. Diagnostics are
// already rendered by then, so main exits 1 without printing anything more.
var errVerificationFailed = errors.New("verification failed")

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to keep per function")

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errVerificationFailed) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

// applyColorMode configures global color output from the --color flag.
func applyColorMode(mode string) error {
	switch mode {
	case "auto":
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
