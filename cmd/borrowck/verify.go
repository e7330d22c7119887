package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"borrowck/internal/diag"
	"borrowck/internal/driver"
	"borrowck/internal/ir"
	"borrowck/internal/irpack"
	"borrowck/internal/observ"
	"borrowck/internal/source"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [flags] <unit.irpk>",
	Short: "Verify ownership and borrow invariants of an IR unit",
	Long:  `Verify runs the capture analyzer, the ownership tracker and the isolation checker over every function of a serialized IR compilation unit`,
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	verifyCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	verifyCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	verifyCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	verifyCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	verifyCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "short", "json":
	default:
		return fmt.Errorf("unknown format value: %s", format)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	noWarnings, err := cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	warningsAsErrors, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if noWarnings && warningsAsErrors {
		return fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	progressMode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	colorMode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	if err := applyColorMode(colorMode); err != nil {
		return err
	}

	// Manifest defaults apply only where the flag was not given explicitly.
	if manifest, ok, err := loadManifest("."); err != nil {
		return err
	} else if ok {
		if !cmd.Flags().Changed("jobs") && manifest.Config.Verify.Jobs > 0 {
			jobs = manifest.Config.Verify.Jobs
		}
		if !cmd.Root().PersistentFlags().Changed("max-diagnostics") && manifest.Config.Verify.MaxDiagnostics > 0 {
			maxDiagnostics = manifest.Config.Verify.MaxDiagnostics
		}
	}

	timer := observ.NewTimer()

	loadPhase := timer.Begin("load unit")
	unit, err := irpack.Load(args[0])
	if err != nil {
		return err
	}
	timer.End(loadPhase, unit.Name)

	opts := driver.Options{
		Jobs:             jobs,
		MaxDiagnostics:   maxDiagnostics,
		WarningsAsErrors: warningsAsErrors,
	}

	verifyPhase := timer.Begin("verify")
	var result *driver.Result
	if format == "pretty" && !quiet && shouldUseTUI(progressMode) && len(unit.Funcs) > 1 {
		result, err = verifyWithUI(cmd.Context(), unit, opts)
	} else {
		result, err = driver.VerifyUnit(cmd.Context(), unit, opts)
	}
	if err != nil {
		return err
	}
	timer.End(verifyPhase, fmt.Sprintf("%d funcs", len(unit.Funcs)))

	renderPhase := timer.Begin("render")
	diags := result.Bag.Items()
	if noWarnings {
		diags = dropWarnings(diags)
	}
	if err := renderResult(format, unit, result, diags, withNotes, quiet); err != nil {
		return err
	}
	timer.End(renderPhase, "")

	if showTimings {
		for i := range result.Funcs {
			timer.Record("  fn "+result.Funcs[i].Name, result.Funcs[i].Dur, "")
		}
		fmt.Fprint(os.Stderr, timer.Summary())
	}

	if result.Status == driver.StatusFailed {
		return errVerificationFailed
	}
	return nil
}

func dropWarnings(diags []diag.Diagnostic) []diag.Diagnostic {
	kept := make([]diag.Diagnostic, 0, len(diags))
	for _, d := range diags {
		if d.Severity == diag.SevWarning {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

func renderResult(format string, unit *ir.Unit, result *driver.Result, diags []diag.Diagnostic, withNotes, quiet bool) error {
	tbl := unit.Table()
	switch format {
	case "short":
		if out := diag.Format(diags, tbl, withNotes); out != "" {
			fmt.Println(out)
		}
	case "json":
		return json.NewEncoder(os.Stdout).Encode(jsonResult(unit, result, diags, tbl))
	default:
		diag.FormatPretty(os.Stdout, diags, tbl, withNotes)
		if !quiet {
			printSummary(unit, result, len(diags))
		}
	}
	return nil
}

var (
	verifiedLabel = color.New(color.FgGreen, color.Bold)
	failedLabel   = color.New(color.FgRed, color.Bold)
)

func printSummary(unit *ir.Unit, result *driver.Result, diagCount int) {
	label := verifiedLabel.Sprint(result.Status)
	if result.Status == driver.StatusFailed {
		label = failedLabel.Sprint(result.Status)
	}
	fmt.Printf("unit %s: %s (%d funcs, %d diagnostics)\n", unit.Name, label, len(unit.Funcs), diagCount)
}

type jsonDiagnostic struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Path     string `json:"path,omitempty"`
	Line     uint32 `json:"line,omitempty"`
	Col      uint32 `json:"col,omitempty"`
	Message  string `json:"message"`
}

type jsonUnitResult struct {
	Unit        string           `json:"unit"`
	Status      string           `json:"status"`
	Funcs       int              `json:"funcs"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
}

func jsonResult(unit *ir.Unit, result *driver.Result, diags []diag.Diagnostic, tbl *source.Table) jsonUnitResult {
	out := jsonUnitResult{
		Unit:        unit.Name,
		Status:      result.Status.String(),
		Funcs:       len(unit.Funcs),
		Diagnostics: make([]jsonDiagnostic, 0, len(diags)),
	}
	for _, d := range diags {
		jd := jsonDiagnostic{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
		}
		if loc, ok := tbl.Resolve(d.Primary); ok {
			jd.Path = loc.Path
			jd.Line = loc.Line
			jd.Col = loc.Col
		}
		out.Diagnostics = append(out.Diagnostics, jd)
	}
	return out
}

func verifyWithUI(ctx context.Context, unit *ir.Unit, opts driver.Options) (*driver.Result, error) {
	names := make([]string, len(unit.Funcs))
	for i := range unit.Funcs {
		names[i] = unit.Funcs[i].Name
	}
	return runVerifyWithUI(ctx, "verifying "+unit.Name, names, unit, opts)
}
