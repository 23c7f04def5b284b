package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/seabedlabs/auv-sim/pkg/config"
	"github.com/seabedlabs/auv-sim/pkg/logger"
	"github.com/seabedlabs/auv-sim/pkg/simulation"
	"github.com/seabedlabs/auv-sim/pkg/utils"

	// Import simulations to register them
	_ "github.com/seabedlabs/auv-sim/cmd/coverage-drift/simulation"
	_ "github.com/seabedlabs/auv-sim/cmd/field-preview"
	_ "github.com/seabedlabs/auv-sim/cmd/transit-line"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation",
	Long:  `Run a simulation interactively or with specified parameters`,
	RunE:  runSimulation,
}

func init() {
	runCmd.Flags().StringP("simulation", "s", "", "simulation name to run")
	runCmd.Flags().StringP("params", "p", "", "parameters file (YAML)")
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	scenario, err := selectScenario()
	if err != nil {
		return fmt.Errorf("failed to select scenario: %w", err)
	}

	simName, err := selectSimulation(cmd)
	if err != nil {
		return fmt.Errorf("failed to select simulation: %w", err)
	}

	sim, err := simulation.DefaultRegistry.Get(simName)
	if err != nil {
		return fmt.Errorf("failed to get simulation: %w", err)
	}

	simInfos, err := utils.DiscoverSimulations()
	if err != nil {
		return fmt.Errorf("failed to discover simulations: %w", err)
	}

	var simConfig *simulation.SimulationConfig
	for _, info := range simInfos {
		if info.Config.Name == simName {
			simConfig = &info.Config
			break
		}
	}

	if simConfig == nil {
		return fmt.Errorf("simulation configuration not found for %s", simName)
	}

	params, err := collectParameters(cmd, simConfig)
	if err != nil {
		return fmt.Errorf("failed to get parameters: %w", err)
	}

	// The scenario supplies the mission file and report directory unless
	// the parameters already name them.
	if scenario.ConfigPath != "" {
		if _, ok := params["config_path"]; !ok {
			params["config_path"] = scenario.ConfigPath
		}
	}
	if scenario.ReportsDir != "" {
		if _, ok := params["reports_dir"]; !ok {
			params["reports_dir"] = scenario.ReportsDir
		}
	}

	if err := sim.Configure(params); err != nil {
		return fmt.Errorf("failed to configure simulation: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Warn("\nReceived interrupt signal, stopping simulation...")
		err := sim.Stop()
		if err != nil {
			logger.Errorf("Failed to stop simulation: %v", err)
			return
		}
		cancel()
	}()

	logger.LogSection(fmt.Sprintf("Starting %s", sim.Name()))
	if err := sim.Run(ctx); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	logger.Success("Simulation completed successfully")
	return nil
}

// collectParameters reads parameters from the file given with --params,
// or prompts for them
func collectParameters(cmd *cobra.Command, simConfig *simulation.SimulationConfig) (map[string]interface{}, error) {
	paramsFile, _ := cmd.Flags().GetString("params")
	if paramsFile == "" {
		return utils.PromptForParameters(simConfig.Parameters)
	}

	data, err := os.ReadFile(paramsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameters file: %w", err)
	}

	params := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to parse parameters file: %w", err)
	}
	return params, nil
}

func selectScenario() (*config.Scenario, error) {
	// Check if a mission file is given directly via flag
	if missionFile != "" {
		return &config.Scenario{
			Name:       "Custom",
			ConfigPath: missionFile,
		}, nil
	}

	// Check for environment variables
	if missionPath := os.Getenv("AUVSIM_MISSION_FILE"); missionPath != "" {
		return &config.Scenario{
			Name:       "Environment",
			ConfigPath: missionPath,
		}, nil
	}

	// Load scenario configurations
	scenarioConfig, err := config.LoadScenarios()
	if err != nil {
		return nil, err
	}

	// Check if scenario is specified via flag
	if scenarioName != "" {
		for _, sc := range scenarioConfig.Scenarios {
			if sc.Name == scenarioName {
				return &sc, nil
			}
		}
		return nil, fmt.Errorf("scenario %s not found", scenarioName)
	}

	// Interactive selection
	options := make([]string, len(scenarioConfig.Scenarios)+1)
	for i, sc := range scenarioConfig.Scenarios {
		options[i] = sc.Name
	}
	options[len(options)-1] = "Custom mission file"

	var selected string
	prompt := &survey.Select{
		Message: "Select scenario:",
		Options: options,
	}
	if scenarioConfig.Selected != "" {
		prompt.Default = scenarioConfig.Selected
	}

	if err := survey.AskOne(prompt, &selected); err != nil {
		return nil, err
	}

	// Handle custom mission file
	if selected == "Custom mission file" {
		var customPath string
		pathPrompt := &survey.Input{
			Message: "Enter mission config path:",
			Default: "config.yaml",
		}
		if err := survey.AskOne(pathPrompt, &customPath); err != nil {
			return nil, err
		}

		return &config.Scenario{
			Name:       "Custom",
			ConfigPath: customPath,
		}, nil
	}

	// Find selected scenario and remember the choice for next time
	for _, sc := range scenarioConfig.Scenarios {
		if sc.Name == selected {
			if scenarioConfig.Selected != selected {
				scenarioConfig.Selected = selected
				if err := config.SaveScenarios(scenarioConfig); err != nil {
					logger.Debugf("Could not persist scenario selection: %v", err)
				}
			}
			return &sc, nil
		}
	}

	return nil, fmt.Errorf("scenario not found")
}

func selectSimulation(cmd *cobra.Command) (string, error) {
	// Check if simulation is specified via flag
	simName, _ := cmd.Flags().GetString("simulation")
	if simName != "" {
		return simName, nil
	}

	// Discover available simulations
	simInfos, err := utils.DiscoverSimulations()
	if err != nil {
		return "", err
	}

	if len(simInfos) == 0 {
		return "", fmt.Errorf("no simulations found")
	}

	// Build options for selection
	options := make([]string, len(simInfos))
	descriptions := make(map[string]string)

	for i, info := range simInfos {
		options[i] = info.Config.Name
		descriptions[info.Config.Name] = info.Config.Description
	}

	// Interactive selection
	var selected string
	prompt := &survey.Select{
		Message: "Select simulation:",
		Options: options,
		Description: func(value string, index int) string {
			return descriptions[value]
		},
	}

	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}

	return selected, nil
}
