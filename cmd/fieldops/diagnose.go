package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/fieldops/internal/diagnostics"
)

var diagnoseCmd = &cobra.Command{
	Use:     "diagnose",
	Short:   "Print the diagnostic context for a vehicle as JSON",
	Long:    "Build the diagnostic context from a VIN, trouble codes and symptom text using the built-in knowledge base. No external services are contacted.",
	Example: `  fieldops diagnose --vin 1FTFW1ET5DFA12345 --code P0302 --symptom "misfire under load"`,
	RunE:    runDiagnoseCmd,
}

var diagnoseFlags diagnoseInput

type diagnoseInput struct {
	Make     string
	Model    string
	Year     int
	VIN      string
	Codes    []string
	Symptoms []string

	ListFamilies bool
}

// engineFamily is one line of --list-families output.
type engineFamily struct {
	Family string `json:"family"`
	Name   string `json:"name"`
}

func init() {
	diagnoseCmd.Flags().StringVar(&diagnoseFlags.VIN, "vin", "", "Vehicle identification number")
	diagnoseCmd.Flags().StringVar(&diagnoseFlags.Make, "make", "", "Vehicle make")
	diagnoseCmd.Flags().StringVar(&diagnoseFlags.Model, "model", "", "Vehicle model")
	diagnoseCmd.Flags().IntVar(&diagnoseFlags.Year, "year", 0, "Vehicle model year")
	diagnoseCmd.Flags().StringSliceVar(&diagnoseFlags.Codes, "code", nil, "Trouble code (repeatable or comma separated)")
	diagnoseCmd.Flags().StringArrayVar(&diagnoseFlags.Symptoms, "symptom", nil, "Symptom description (repeatable)")
	diagnoseCmd.Flags().BoolVar(&diagnoseFlags.ListFamilies, "list-families", false, "List the engine families the knowledge base covers and exit")
	rootCmd.AddCommand(diagnoseCmd)
}

func runDiagnoseCmd(cmd *cobra.Command, _ []string) error {
	return runDiagnose(cmd.OutOrStdout(), diagnoseFlags)
}

func runDiagnose(w io.Writer, in diagnoseInput) error {
	kb := diagnostics.DefaultKnowledgeBase()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if in.ListFamilies {
		families := []engineFamily{}
		for _, f := range kb.Families() {
			ek, _ := kb.Engine(f)
			families = append(families, engineFamily{Family: f, Name: ek.Name})
		}
		if err := enc.Encode(families); err != nil {
			return fmt.Errorf("encode engine families: %w", err)
		}
		return nil
	}

	dc := diagnostics.NewBuilder(kb).Build(diagnostics.VehicleInput{
		Make:  in.Make,
		Model: in.Model,
		Year:  in.Year,
		VIN:   in.VIN,
	}, in.Codes, in.Symptoms)

	if err := enc.Encode(dc); err != nil {
		return fmt.Errorf("encode diagnostic context: %w", err)
	}
	return nil
}
