package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/trialpipe/trialpipe/pkg/observability"
	"github.com/trialpipe/trialpipe/pkg/validation"
)

// Summary output formats.
const (
	formatYAML = "yaml"
	formatJSON = "json"
)

var (
	// ErrValidationFailed is returned when any phase validation fails.
	ErrValidationFailed = errors.New("validation failed")

	// ErrUnknownFormat indicates an unsupported summary format.
	ErrUnknownFormat = errors.New("unknown summary format (want yaml or json)")
)

// ValidateCommand holds configuration for the validate command.
type ValidateCommand struct {
	configPath   string
	outputRoot   string
	format       string
	summaryPath  string
	plotPath     string
	strictSchema bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	vc := &ValidateCommand{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run data-quality validation over all phase outputs",
		Long: `Validate loads every phase CSV from the output root and runs the
full check sequence: duplicate keys, cartesian-product detection,
row-count drift, identifier formats and merge integrity.

Exits non-zero when any phase fails or any error is recorded.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return vc.run()
		},
	}

	cmd.Flags().StringVarP(&vc.configPath, "config", "c", "", "config file path")
	cmd.Flags().StringVar(&vc.outputRoot, "output-root", "", "pipeline output directory (overrides config)")
	cmd.Flags().StringVarP(&vc.format, "format", "f", "", "write machine-readable summary to stdout (yaml|json)")
	cmd.Flags().StringVar(&vc.summaryPath, "summary", "", "write the machine-readable summary to a file")
	cmd.Flags().StringVar(&vc.plotPath, "plot", "", "write an HTML report chart to a file")
	cmd.Flags().BoolVar(&vc.strictSchema, "strict-schema", false, "validate rows against built-in JSON Schemas at load time")

	return cmd
}

func (vc *ValidateCommand) run() error {
	cfg, logger, err := loadEnvironment(vc.configPath)
	if err != nil {
		return err
	}

	root := cfg.Output.Root
	if vc.outputRoot != "" {
		root = vc.outputRoot
	}

	strict := cfg.Validation.StrictSchema || vc.strictSchema

	var ctxOpts []validation.ContextOption

	metrics := observability.NewMetrics()
	ctxOpts = append(ctxOpts, validation.WithMetrics(metrics))

	if cfg.Metrics.Enabled {
		go func() {
			serveErr := metrics.Serve(cfg.Metrics.Listen)
			if serveErr != nil {
				logger.Error("metrics endpoint failed", "listen", cfg.Metrics.Listen, "error", serveErr)
			}
		}()
	}

	ctx := validation.NewContext(ctxOpts...)

	var runnerOpts []validation.RunnerOption
	if strict {
		runnerOpts = append(runnerOpts, validation.WithSchemas(validation.StrictSchemas()))
	}

	runner := validation.NewRunner(ctx, root, runnerOpts...)

	summary, err := runner.RunAll()
	if err != nil {
		return err
	}

	err = vc.emitSummary(summary)
	if err != nil {
		return err
	}

	if vc.plotPath != "" {
		err = summary.RenderReport(vc.plotPath)
		if err != nil {
			return err
		}

		logger.Info("report written", "path", vc.plotPath)
	}

	if summary.AllPassed {
		color.Green("Validation passed.")

		return nil
	}

	color.Red("Validation failed.")

	return ErrValidationFailed
}

// emitSummary writes the machine-readable summary per the format flags.
func (vc *ValidateCommand) emitSummary(summary *validation.Summary) error {
	encode := func(w io.Writer, format string) error {
		switch format {
		case formatYAML:
			return summary.EncodeYAML(w)
		case formatJSON:
			return summary.EncodeJSON(w)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
		}
	}

	if vc.format != "" {
		err := encode(os.Stdout, vc.format)
		if err != nil {
			return err
		}
	}

	if vc.summaryPath == "" {
		return nil
	}

	format := vc.format
	if format == "" {
		format = formatYAML
	}

	file, err := os.Create(vc.summaryPath)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer file.Close()

	return encode(file, format)
}
