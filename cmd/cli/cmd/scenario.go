package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/seabedlabs/auv-sim/pkg/config"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Manage mission scenarios",
	Long:  `Manage reusable mission scenario configurations`,
}

var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured scenarios",
	RunE:  listScenarios,
}

var scenarioAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new scenario",
	RunE:  addScenario,
}

var scenarioRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a scenario",
	RunE:  removeScenario,
}

func init() {
	scenarioCmd.AddCommand(scenarioListCmd)
	scenarioCmd.AddCommand(scenarioAddCmd)
	scenarioCmd.AddCommand(scenarioRemoveCmd)
}

func listScenarios(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadScenarios()
	if err != nil {
		return fmt.Errorf("failed to load scenarios: %w", err)
	}

	if len(cfg.Scenarios) == 0 {
		fmt.Println("No scenarios configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tMISSION CONFIG\tREPORTS\tNOTES")
	_, _ = fmt.Fprintln(w, "----\t--------------\t-------\t-----")

	for _, sc := range cfg.Scenarios {
		configInfo := "(built-in defaults)"
		if sc.ConfigPath != "" {
			configInfo = sc.ConfigPath
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sc.Name, configInfo, sc.ReportsDir, sc.Notes)
	}

	return w.Flush()
}

func addScenario(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadScenarios()
	if err != nil {
		return fmt.Errorf("failed to load scenarios: %w", err)
	}

	var sc config.Scenario

	// Prompt for name
	namePrompt := &survey.Input{
		Message: "Scenario name:",
	}
	if err := survey.AskOne(namePrompt, &sc.Name, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	// Check if name already exists
	for _, existing := range cfg.Scenarios {
		if existing.Name == sc.Name {
			return fmt.Errorf("scenario %s already exists", sc.Name)
		}
	}

	// Prompt for mission config path
	pathPrompt := &survey.Input{
		Message: "Mission config path:",
		Help:    "Leave empty to use the built-in mission defaults",
	}
	if err := survey.AskOne(pathPrompt, &sc.ConfigPath); err != nil {
		return err
	}

	// Prompt for reports directory
	reportsPrompt := &survey.Input{
		Message: "Reports directory:",
		Default: "reports",
	}
	if err := survey.AskOne(reportsPrompt, &sc.ReportsDir); err != nil {
		return err
	}

	// Prompt for notes
	notesPrompt := &survey.Input{
		Message: "Notes (optional):",
	}
	if err := survey.AskOne(notesPrompt, &sc.Notes); err != nil {
		return err
	}

	// Add to config
	cfg.Scenarios = append(cfg.Scenarios, sc)

	// Save config
	if err := config.SaveScenarios(cfg); err != nil {
		return fmt.Errorf("failed to save scenarios: %w", err)
	}

	fmt.Printf("Scenario %s added successfully\n", sc.Name)
	return nil
}

func removeScenario(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadScenarios()
	if err != nil {
		return fmt.Errorf("failed to load scenarios: %w", err)
	}

	if len(cfg.Scenarios) == 0 {
		fmt.Println("No scenarios to remove")
		return nil
	}

	// Build list of scenario names
	names := make([]string, len(cfg.Scenarios))
	for i, sc := range cfg.Scenarios {
		names[i] = sc.Name
	}

	// Prompt for selection
	var selected string
	prompt := &survey.Select{
		Message: "Select scenario to remove:",
		Options: names,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return err
	}

	// Confirm removal
	var confirm bool
	confirmPrompt := &survey.Confirm{
		Message: fmt.Sprintf("Are you sure you want to remove %s?", selected),
		Default: false,
	}
	if err := survey.AskOne(confirmPrompt, &confirm); err != nil {
		return err
	}

	if !confirm {
		fmt.Println("Removal cancelled")
		return nil
	}

	// Remove from config
	newScenarios := make([]config.Scenario, 0, len(cfg.Scenarios)-1)
	for _, sc := range cfg.Scenarios {
		if sc.Name != selected {
			newScenarios = append(newScenarios, sc)
		}
	}
	cfg.Scenarios = newScenarios
	if cfg.Selected == selected {
		cfg.Selected = ""
	}

	// Save config
	if err := config.SaveScenarios(cfg); err != nil {
		return fmt.Errorf("failed to save scenarios: %w", err)
	}

	fmt.Printf("Scenario %s removed successfully\n", selected)
	return nil
}
