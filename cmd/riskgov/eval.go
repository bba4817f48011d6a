package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sawpanic/riskgov/internal/capital"
	"github.com/sawpanic/riskgov/internal/confidence"
	"github.com/sawpanic/riskgov/internal/engine"
	"github.com/sawpanic/riskgov/internal/meta"
	"github.com/sawpanic/riskgov/internal/quarantine"
)

func evalCmd() *cobra.Command {
	var inputsPath string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a single governance tick from a JSON inputs file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(inputsPath, jsonOut)
		},
	}

	cmd.Flags().StringVarP(&inputsPath, "inputs", "i", "", "path to tick inputs JSON (required)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit the full result as JSON")
	cmd.MarkFlagRequired("inputs")

	return cmd
}

func runEval(inputsPath string, jsonOut bool) error {
	data, err := os.ReadFile(inputsPath)
	if err != nil {
		return fmt.Errorf("failed to read inputs: %w", err)
	}

	var inputs engine.TickInputs
	if err := json.Unmarshal(data, &inputs); err != nil {
		return fmt.Errorf("failed to parse inputs: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	supervisor := engine.NewSupervisor(
		confidence.NewEngine(cfg.Confidence),
		capital.NewGovernor(cfg.Capital, quarantine.NewController(cfg.Quarantine)),
		meta.NewGovernor(cfg.Meta),
	)

	result := supervisor.EvaluateTick(context.Background(), inputs)

	if jsonOut {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println(result.CapitalDecision.Summary())
	fmt.Println(result.MetaDecision.Summary())
	fmt.Printf("effective capital fraction: %.3f (entries=%t, exits=%t)\n",
		result.EffectiveCapitalFraction, result.AllowsEntries, result.AllowsExits)

	return nil
}
