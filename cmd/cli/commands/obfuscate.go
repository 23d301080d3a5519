package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/samply/laplace-go/internal/privacy"
	"github.com/samply/laplace-go/internal/report"
)

type ObfuscateOptions struct {
	InputFile  string
	OutputFile string
	Pretty     bool
}

func NewObfuscateCmd() *cobra.Command {
	opts := &ObfuscateOptions{}

	cmd := &cobra.Command{
		Use:   "obfuscate",
		Short: "Obfuscate the counts of a report document",
		Long: `Read a JSON report document, perturb every count with calibrated Laplace
noise and write the obfuscated report back out. Repeated counts within one
report are obfuscated consistently.`,
		Example: `  # Obfuscate a report file
  laplace-cli obfuscate --input report.json --output obfuscated.json

  # Read from stdin, write to stdout, with a tighter privacy budget
  cat report.json | laplace-cli obfuscate --epsilon 0.05`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runObfuscate(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "-", "Input report file (- for stdin)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "Output file (- for stdout)")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "Indent the output JSON")
	addParamFlags(cmd)

	return cmd
}

// addParamFlags registers the obfuscation parameter flags and binds them to
// viper, so a config file or LAPLACE_* environment variables can set them as
// well.
func addParamFlags(cmd *cobra.Command) {
	defaults := privacy.DefaultParams()

	cmd.Flags().Float64("epsilon", defaults.Epsilon, "Privacy budget parameter")
	cmd.Flags().Float64("sensitivity-patients", defaults.SensitivityPatients, "Sensitivity of patient counts")
	cmd.Flags().Float64("sensitivity-diagnosis", defaults.SensitivityDiagnosis, "Sensitivity of diagnosis counts")
	cmd.Flags().Float64("sensitivity-specimen", defaults.SensitivitySpecimen, "Sensitivity of specimen counts")
	cmd.Flags().Uint64("rounding-step", defaults.RoundingStep, "Rounding granularity for obfuscated counts")
	cmd.Flags().Bool("obfuscate-zero", defaults.ObfuscateZero, "Obfuscate zero counts as well")
	cmd.Flags().String("below-10-mode", defaults.Below10.String(), "Handling of counts below 10 (zero, ten, obfuscate)")

	for _, name := range []string{
		"epsilon",
		"sensitivity-patients",
		"sensitivity-diagnosis",
		"sensitivity-specimen",
		"rounding-step",
		"obfuscate-zero",
		"below-10-mode",
	} {
		viper.BindPFlag(name, cmd.Flags().Lookup(name))
	}
}

// resolveParams builds the obfuscation parameters from viper, which merges
// flag, environment and config file values.
func resolveParams() (privacy.Params, error) {
	mode, err := privacy.ParseBelow10Mode(viper.GetString("below-10-mode"))
	if err != nil {
		return privacy.Params{}, err
	}
	params := privacy.Params{
		Epsilon:              viper.GetFloat64("epsilon"),
		SensitivityPatients:  viper.GetFloat64("sensitivity-patients"),
		SensitivityDiagnosis: viper.GetFloat64("sensitivity-diagnosis"),
		SensitivitySpecimen:  viper.GetFloat64("sensitivity-specimen"),
		RoundingStep:         viper.GetUint64("rounding-step"),
		ObfuscateZero:        viper.GetBool("obfuscate-zero"),
		Below10:              mode,
	}
	return params, params.Validate()
}

func runObfuscate(opts *ObfuscateOptions) error {
	params, err := resolveParams()
	if err != nil {
		return err
	}

	input, err := readInput(opts.InputFile)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	rewriter, err := report.NewRewriter(params, privacy.NewCache(), privacy.NewSource(), logger)
	if err != nil {
		return err
	}

	obfuscated, err := rewriter.ObfuscateJSON(input)
	if err != nil {
		return err
	}

	if opts.Pretty {
		var buf map[string]interface{}
		if err := json.Unmarshal(obfuscated, &buf); err == nil {
			if pretty, err := json.MarshalIndent(buf, "", "  "); err == nil {
				obfuscated = pretty
			}
		}
	}

	if err := writeOutput(opts.OutputFile, obfuscated); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	stats := rewriter.Stats()
	logger.WithFields(logrus.Fields{
		"counts":         stats.ObfuscatedCounts,
		"skipped_groups": stats.SkippedGroups,
	}).Info("Report obfuscated")

	return nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
