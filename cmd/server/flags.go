package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/samply/laplace-go/internal/privacy"
	"github.com/samply/laplace-go/pkg/constants"
)

type Config struct {
	Port        int
	Host        string
	LogLevel    string
	LogFormat   string
	MetricsPort int
	TLSCert     string
	TLSKey      string
	Version     bool

	Epsilon              float64
	SensitivityPatients  float64
	SensitivityDiagnosis float64
	SensitivitySpecimen  float64
	RoundingStep         uint64
	ObfuscateZero        bool
	Below10Mode          string
}

func ParseFlags() *Config {
	config := &Config{}
	defaults := privacy.DefaultParams()

	flag.IntVar(&config.Port, "port", constants.DefaultPort, "Server port")
	flag.StringVar(&config.Host, "host", constants.DefaultHost, "Server host")
	flag.StringVar(&config.LogLevel, "log-level", constants.DefaultLogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&config.LogFormat, "log-format", constants.DefaultLogFormat, "Log format (json, text)")
	flag.IntVar(&config.MetricsPort, "metrics-port", constants.DefaultMetricsPort, "Prometheus metrics port")
	flag.StringVar(&config.TLSCert, "tls-cert", "", "Path to TLS certificate")
	flag.StringVar(&config.TLSKey, "tls-key", "", "Path to TLS key")
	flag.BoolVar(&config.Version, "version", false, "Show version information")

	flag.Float64Var(&config.Epsilon, "epsilon", defaults.Epsilon, "Privacy budget parameter")
	flag.Float64Var(&config.SensitivityPatients, "sensitivity-patients", defaults.SensitivityPatients, "Sensitivity of patient counts")
	flag.Float64Var(&config.SensitivityDiagnosis, "sensitivity-diagnosis", defaults.SensitivityDiagnosis, "Sensitivity of diagnosis counts")
	flag.Float64Var(&config.SensitivitySpecimen, "sensitivity-specimen", defaults.SensitivitySpecimen, "Sensitivity of specimen counts")
	flag.Uint64Var(&config.RoundingStep, "rounding-step", defaults.RoundingStep, "Rounding granularity for obfuscated counts")
	flag.BoolVar(&config.ObfuscateZero, "obfuscate-zero", defaults.ObfuscateZero, "Obfuscate zero counts as well")
	flag.StringVar(&config.Below10Mode, "below-10-mode", defaults.Below10.String(), "Handling of counts below 10 (zero, ten, obfuscate)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n%s\n\n", constants.AppDescription)
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if config.Version {
		info := GetBuildInfo()
		fmt.Printf("Version: %s\n", info.Version)
		fmt.Printf("Git Commit: %s\n", info.GitCommit)
		fmt.Printf("Build Date: %s\n", info.BuildDate)
		fmt.Printf("Go Version: %s\n", info.GoVersion)
		fmt.Printf("Platform: %s\n", info.Platform)
		os.Exit(0)
	}

	return config
}

// Params assembles the obfuscation parameters from the parsed flags.
func (c *Config) Params() (privacy.Params, error) {
	mode, err := privacy.ParseBelow10Mode(c.Below10Mode)
	if err != nil {
		return privacy.Params{}, err
	}
	return privacy.Params{
		Epsilon:              c.Epsilon,
		SensitivityPatients:  c.SensitivityPatients,
		SensitivityDiagnosis: c.SensitivityDiagnosis,
		SensitivitySpecimen:  c.SensitivitySpecimen,
		RoundingStep:         c.RoundingStep,
		ObfuscateZero:        c.ObfuscateZero,
		Below10:              mode,
	}, nil
}
