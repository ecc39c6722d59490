package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/aides-simplifiees/simulateur/internal/calculation"
	"github.com/aides-simplifiees/simulateur/internal/config"
	"github.com/aides-simplifiees/simulateur/internal/domain"
	"github.com/aides-simplifiees/simulateur/internal/output"
	"github.com/aides-simplifiees/simulateur/internal/schema"
	"github.com/aides-simplifiees/simulateur/internal/transform"
)

// slogLogger implements calculation.Logger on top of log/slog
type slogLogger struct {
	l *slog.Logger
}

func newSlogLogger(w io.Writer) slogLogger {
	return slogLogger{l: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))}
}

func (s slogLogger) Debugf(format string, args ...any) { s.l.Debug(fmt.Sprintf(format, args...)) }
func (s slogLogger) Infof(format string, args ...any)  { s.l.Info(fmt.Sprintf(format, args...)) }
func (s slogLogger) Warnf(format string, args ...any)  { s.l.Warn(fmt.Sprintf(format, args...)) }
func (s slogLogger) Errorf(format string, args ...any) { s.l.Error(fmt.Sprintf(format, args...)) }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "simulateur %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.Main.Version
	}
	return ""
}

var rootCmd = &cobra.Command{
	Use:   "simulateur",
	Short: "Survey schema and calculation request tool",
	Long: "Normalizes aides simulator survey schemas, turns survey answers into " +
		"OpenFisca calculation requests and reads the results back.",
	SilenceUsage: true,
}

// loadSettings reads the --settings file, or returns the defaults
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	path, _ := cmd.Flags().GetString("settings")
	if path == "" {
		return config.DefaultSettings(), nil
	}
	return config.NewInputParser().LoadSettings(path)
}

// newEngine builds the calculation engine described by the settings
func newEngine(cmd *cobra.Command, s *config.Settings) (*calculation.CalculationEngine, error) {
	opts, err := s.CalculationOptions()
	if err != nil {
		return nil, err
	}
	if debugMode, _ := cmd.Flags().GetBool("debug"); debugMode {
		opts = append(opts, calculation.WithLogger(newSlogLogger(cmd.ErrOrStderr())))
	}
	return calculation.NewCalculationEngine(s.Client(), s.LocalRules, opts...)
}

// loadSurvey loads and normalizes a schema file
func loadSurvey(path string) (*domain.NormalizedSchema, error) {
	raw, err := config.NewInputParser().LoadSchema(path)
	if err != nil {
		return nil, err
	}
	return schema.Normalize(raw)
}

// loadAnswers loads an answers file and applies the --what-if templates,
// then the --transform specs, in that order
func loadAnswers(cmd *cobra.Command, path string) (domain.Answers, error) {
	answers, err := config.NewInputParser().LoadAnswers(path)
	if err != nil {
		return nil, err
	}

	var transforms []transform.AnswerTransform
	names, _ := cmd.Flags().GetStringSlice("what-if")
	templates := transform.CreateBuiltInTemplates()
	for _, name := range names {
		t, ok := templates.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown what-if template %q (available: %v)", name, templates.List())
		}
		transforms = append(transforms, t.Transforms...)
	}

	specs, _ := cmd.Flags().GetStringArray("transform")
	parsed, err := transform.NewTransformRegistry().ParseTransformSpecs(specs)
	if err != nil {
		return nil, err
	}
	transforms = append(transforms, parsed...)

	if len(transforms) == 0 {
		return answers, nil
	}
	return transform.ApplyTransforms(answers, transforms)
}

// writeReport renders the report in the --format format
func writeReport(cmd *cobra.Command, r *output.Report) error {
	format, _ := cmd.Flags().GetString("format")
	f, err := output.NewFormatter(format)
	if err != nil {
		return err
	}
	data, err := f.Format(r)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// requestContext bounds an engine round trip by the configured timeout
func requestContext(cmd *cobra.Command, s *config.Settings) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if s.Engine.Timeout > 0 {
		return context.WithTimeout(ctx, s.Engine.Timeout)
	}
	return context.WithCancel(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("settings", "", "Path to a settings file (engine URL, reference date, defaults, local rules)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log the build and extraction steps to stderr")

	for _, cmd := range []*cobra.Command{buildCmd, extractCmd, simulateCmd, eligibilityCmd} {
		cmd.Flags().StringP("format", "f", "console", "Output format (console, json, json-compact, csv)")
	}
	for _, cmd := range []*cobra.Command{buildCmd, simulateCmd, eligibilityCmd, thresholdCmd, sweepCmd} {
		cmd.Flags().StringArray("transform", nil, "Answer transform, e.g. set_answer:key=boursier,value=true (repeatable)")
		cmd.Flags().StringSlice("what-if", nil, "Comma-separated what-if templates applied to the answers")
	}

	normalizeCmd.Flags().Bool("denormalize", false, "Collapse single-question pages back into flat steps")
	normalizeCmd.Flags().Bool("no-validate", false, "Skip structural validation")
	normalizeCmd.Flags().StringP("output", "o", "yaml", "Output encoding (yaml, json)")

	compareCmd.Flags().StringSlice("with", nil, "Comma-separated what-if templates, one alternative each")
	compareCmd.Flags().StringP("format", "f", "table", "Output format (table, csv, json, json-compact)")

	for _, cmd := range []*cobra.Command{thresholdCmd, sweepCmd} {
		cmd.Flags().StringP("question", "q", "", "Number question to vary")
		cmd.Flags().StringP("format", "f", "table", "Output format (table, json, json-compact)")
		_ = cmd.MarkFlagRequired("question")
	}
	thresholdCmd.Flags().StringP("dispositif", "d", "", "Dispositif whose eligibility is searched")
	thresholdCmd.Flags().String("min", "0", "Lower bound")
	thresholdCmd.Flags().String("max", "", "Upper bound")
	thresholdCmd.Flags().Bool("integer", false, "Search whole values only (ages, counts)")
	_ = thresholdCmd.MarkFlagRequired("dispositif")
	_ = thresholdCmd.MarkFlagRequired("max")
	sweepCmd.Flags().String("from", "0", "First value")
	sweepCmd.Flags().String("to", "", "Last value")
	sweepCmd.Flags().String("step", "1", "Increment")
	_ = sweepCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(eligibilityCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(thresholdCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(versionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
