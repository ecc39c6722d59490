package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/aides-simplifiees/simulateur/internal/calculation"
	"github.com/aides-simplifiees/simulateur/internal/config"
	"github.com/aides-simplifiees/simulateur/internal/tui"
)

var rootCmd = &cobra.Command{
	Use:   "simulateur-tui <schema-file> [answers-file]",
	Short: "Answer a survey in the terminal and run the simulation",
	Long: "Walks through the survey one question at a time, skipping hidden " +
		"questions, then builds the calculation request and shows the results. " +
		"An answers file pre-fills the survey.",
	Args:         cobra.RangeArgs(1, 2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		schemaPath := args[0]
		answersPath := ""
		if len(args) > 1 {
			answersPath = args[1]
		}
		for _, path := range []string{schemaPath, answersPath} {
			if path == "" {
				continue
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", path)
			}
		}

		settings := config.DefaultSettings()
		if path, _ := cmd.Flags().GetString("settings"); path != "" {
			var err error
			if settings, err = config.NewInputParser().LoadSettings(path); err != nil {
				return err
			}
		}
		opts, err := settings.CalculationOptions()
		if err != nil {
			return err
		}
		engine, err := calculation.NewCalculationEngine(settings.Client(), settings.LocalRules, opts...)
		if err != nil {
			return err
		}

		p := tea.NewProgram(
			tui.NewModel(schemaPath, answersPath, engine),
			tea.WithAltScreen(),
		)
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().String("settings", "", "Path to a settings file (engine URL, reference date, local rules)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
