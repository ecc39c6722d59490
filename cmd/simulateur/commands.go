package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aides-simplifiees/simulateur/internal/breakeven"
	"github.com/aides-simplifiees/simulateur/internal/compare"
	"github.com/aides-simplifiees/simulateur/internal/config"
	"github.com/aides-simplifiees/simulateur/internal/output"
	"github.com/aides-simplifiees/simulateur/internal/rules"
	"github.com/aides-simplifiees/simulateur/internal/schema"
	"github.com/aides-simplifiees/simulateur/internal/transform"
)

var validateCmd = &cobra.Command{
	Use:   "validate [schema-file]",
	Short: "Validate a survey schema",
	Long: "Checks the raw document against the published JSON Schema definition, " +
		"then normalizes it and compiles its visibility conditions.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		validator, err := schema.NewValidator(s.SchemaVersion)
		if err != nil {
			return err
		}

		doc, err := config.NewInputParser().LoadDocument(args[0])
		if err != nil {
			return err
		}
		result := validator.Validate(doc)
		fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
		if !result.Valid {
			return errors.New("validation failed")
		}

		n, err := loadSurvey(args[0])
		if err != nil {
			return err
		}
		vis, err := rules.NewVisibility(nil)
		if err != nil {
			return err
		}
		if errs := vis.Check(n); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %v\n", e)
			}
			return fmt.Errorf("%d invalid visibility condition(s)", len(errs))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d steps, %d questions, engine %s\n",
			n.ID, len(n.Steps), len(n.Questions()), n.Engine)
		return nil
	},
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize [schema-file]",
	Short: "Print a survey schema with every step in page form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := config.NewInputParser().LoadSchema(args[0])
		if err != nil {
			return err
		}

		var opts []schema.Option
		if noValidate, _ := cmd.Flags().GetBool("no-validate"); noValidate {
			opts = append(opts, schema.WithoutValidation())
		}
		n, err := schema.Normalize(raw, opts...)
		if err != nil {
			return err
		}

		var out any = n
		if denormalize, _ := cmd.Flags().GetBool("denormalize"); denormalize {
			out = schema.Denormalize(n)
		}

		encoding, _ := cmd.Flags().GetString("output")
		switch strings.ToLower(encoding) {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		case "yaml", "yml":
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(out); err != nil {
				return err
			}
			return enc.Close()
		default:
			return fmt.Errorf("unsupported output encoding: %s", encoding)
		}
	},
}

var buildCmd = &cobra.Command{
	Use:   "build [schema-file] [answers-file]",
	Short: "Build the OpenFisca calculation request for a set of answers",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		n, err := loadSurvey(args[0])
		if err != nil {
			return err
		}
		answers, err := loadAnswers(cmd, args[1])
		if err != nil {
			return err
		}
		engine, err := newEngine(cmd, s)
		if err != nil {
			return err
		}

		sim, err := engine.BuildRequest(n, answers)
		if err != nil {
			return err
		}
		report := output.NewReport(n.ID, n.Engine)
		report.AddSimulation(sim)
		return writeReport(cmd, report)
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract [schema-file] [response-file]",
	Short: "Read the survey results out of an OpenFisca response",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		n, err := loadSurvey(args[0])
		if err != nil {
			return err
		}
		resp, err := config.NewInputParser().LoadResponse(args[1])
		if err != nil {
			return err
		}
		engine, err := newEngine(cmd, s)
		if err != nil {
			return err
		}

		report := output.NewReport(n.ID, n.Engine)
		report.AddSimulation(engine.Extract(n, resp))
		return writeReport(cmd, report)
	},
}

var simulateCmd = &cobra.Command{
	Use:   "simulate [schema-file] [answers-file]",
	Short: "Run a complete simulation with the schema's engine",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		n, err := loadSurvey(args[0])
		if err != nil {
			return err
		}
		answers, err := loadAnswers(cmd, args[1])
		if err != nil {
			return err
		}
		engine, err := newEngine(cmd, s)
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(cmd, s)
		defer cancel()
		sim, err := engine.Run(ctx, n, answers)
		if err != nil {
			return err
		}
		report := output.NewReport(n.ID, n.Engine)
		report.AddSimulation(sim)
		return writeReport(cmd, report)
	},
}

var eligibilityCmd = &cobra.Command{
	Use:   "eligibility [schema-file] [answers-file]",
	Short: "Evaluate the schema's dispositifs with the local rules",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if len(s.LocalRules.Rules) == 0 {
			return errors.New("no local rules configured, add localRules to the settings file")
		}
		n, err := loadSurvey(args[0])
		if err != nil {
			return err
		}
		answers, err := loadAnswers(cmd, args[1])
		if err != nil {
			return err
		}
		engine, err := newEngine(cmd, s)
		if err != nil {
			return err
		}

		sim, err := engine.Eligibility(n, answers)
		if err != nil {
			return err
		}
		report := output.NewReport(n.ID, sim.Engine)
		report.AddSimulation(sim)
		return writeReport(cmd, report)
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the what-if templates and answer transforms",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		templates := transform.CreateBuiltInTemplates()
		fmt.Fprintln(w, "What-if templates (--what-if):")
		for _, name := range templates.List() {
			t, _ := templates.Get(name)
			fmt.Fprintf(w, "  %-12s %s\n", name, t.Description)
		}
		fmt.Fprintln(w, "\nTransforms (--transform name:key=value,...):")
		for _, name := range transform.NewTransformRegistry().List() {
			fmt.Fprintf(w, "  %s\n", name)
		}
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare [schema-file] [base-answers] [alternative-answers...]",
	Short: "Compare the base answers with what-if variants",
	Long: "Simulates the base answers, then one alternative per --with template " +
		"and per extra answers file, and reports the amount and eligibility " +
		"differences with the base.",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		templates, _ := cmd.Flags().GetStringSlice("with")
		if len(templates) == 0 && len(args) == 2 {
			return errors.New("nothing to compare, pass --with templates or alternative answers files")
		}

		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		n, err := loadSurvey(args[0])
		if err != nil {
			return err
		}
		parser := config.NewInputParser()
		base, err := parser.LoadAnswers(args[1])
		if err != nil {
			return err
		}
		engine, err := newEngine(cmd, s)
		if err != nil {
			return err
		}
		ce := compare.NewCompareEngine(engine)

		ctx, cancel := requestContext(cmd, s)
		defer cancel()
		compSet, err := ce.Compare(ctx, n, base, compare.CompareOptions{Templates: templates})
		if err != nil {
			return err
		}

		if len(args) > 2 {
			alternatives := make([]compare.Scenario, 0, len(args)-2)
			for _, path := range args[2:] {
				answers, err := parser.LoadAnswers(path)
				if err != nil {
					return err
				}
				name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				alternatives = append(alternatives, compare.Scenario{Name: name, Answers: answers})
			}
			files, err := ce.CompareScenarios(ctx, n, compare.Scenario{Name: compSet.BaseScenarioName, Answers: base}, alternatives)
			if err != nil {
				return err
			}
			compSet.AlternativeResults = append(compSet.AlternativeResults, files.AlternativeResults...)
			compSet.Recommendations = compare.GenerateRecommendations(compSet)
		}
		compSet.AnswersPath = args[1]

		format, _ := cmd.Flags().GetString("format")
		out, err := compare.Format(compSet, format)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

// decimalFlags reads decimal-valued string flags
func decimalFlags(cmd *cobra.Command, names ...string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(names))
	for i, name := range names {
		raw, _ := cmd.Flags().GetString(name)
		d, err := breakeven.ParseDecimal(raw)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", name, err)
		}
		out[i] = d
	}
	return out, nil
}

var thresholdCmd = &cobra.Command{
	Use:   "threshold [schema-file] [answers-file]",
	Short: "Find the value of a number answer where a dispositif opens or closes",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bounds, err := decimalFlags(cmd, "min", "max")
		if err != nil {
			return err
		}
		question, _ := cmd.Flags().GetString("question")
		dispositif, _ := cmd.Flags().GetString("dispositif")
		integer, _ := cmd.Flags().GetBool("integer")

		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		n, err := loadSurvey(args[0])
		if err != nil {
			return err
		}
		answers, err := loadAnswers(cmd, args[1])
		if err != nil {
			return err
		}
		engine, err := newEngine(cmd, s)
		if err != nil {
			return err
		}

		result, err := breakeven.NewDefaultSolver(engine).FindThreshold(cmd.Context(), breakeven.ThresholdRequest{
			Schema: n,
			Base:   answers,
			Constraints: breakeven.Constraints{
				Question:   question,
				Dispositif: dispositif,
				Min:        bounds[0],
				Max:        bounds[1],
				Integer:    integer,
			},
		})
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		out, err := breakeven.Format(result, format)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep [schema-file] [answers-file]",
	Short: "Simulate a range of values of a number answer",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bounds, err := decimalFlags(cmd, "from", "to", "step")
		if err != nil {
			return err
		}
		question, _ := cmd.Flags().GetString("question")

		s, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		n, err := loadSurvey(args[0])
		if err != nil {
			return err
		}
		answers, err := loadAnswers(cmd, args[1])
		if err != nil {
			return err
		}
		engine, err := newEngine(cmd, s)
		if err != nil {
			return err
		}

		// The client timeout bounds each round trip
		result, err := breakeven.NewDefaultSolver(engine).Sweep(cmd.Context(), breakeven.SweepRequest{
			Schema:   n,
			Base:     answers,
			Question: question,
			From:     bounds[0],
			To:       bounds[1],
			Step:     bounds[2],
		})
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		out, err := breakeven.Format(result, format)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}
