package cmd

import (
	"math"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/coopsim/coopsim/sim"
	"github.com/coopsim/coopsim/sim/solver"
)

var (
	// CLI flags for the localization run
	file        string  // CSV file with the problem's entities
	algorithm   string  // registered solver name
	visibility  float64 // max distance at which two nodes see each other
	sigma       float64 // distance-noise standard deviation (multiplicative)
	sigmaAngles float64 // angle-noise standard deviation
	iterations  int     // round count for iterative solvers
	seed        int64   // master seed for all random streams
	parallel    bool    // run driver phases with one goroutine per node
	outPath     string  // optional CSV to write estimated positions to
	configPath  string  // optional yaml scenario file
	scenario    string  // scenario name within the config file
	logLevel    string  // log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "coopsim",
	Short: "Simulator for cooperative localization in sensor networks",
}

// runCmd executes a localization run using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a localization algorithm on a dataset",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		// A scenario preset fills in whatever the flags left at defaults
		if configPath != "" {
			sc, err := LoadScenario(configPath, scenario)
			if err != nil {
				logrus.Fatalf("Unable to read scenario config: %v", err)
			}
			applyScenario(cmd, sc)
		}

		if file == "" {
			logrus.Fatalf("No dataset file provided. Exiting simulation.")
		}
		if algorithm == "" {
			logrus.Fatalf("No algorithm provided; available: %v", solver.Names())
		}

		entities, err := ReadEntities(file)
		if err != nil {
			logrus.Fatalf("Unable to read dataset %s: %v", file, err)
		}

		cfg := sim.Config{
			Visibility:  visibility,
			Sigma:       sigma,
			SigmaAngles: sigmaAngles,
			Iterations:  iterations,
			Seed:        seed,
			Parallel:    parallel,
		}

		logrus.Infof("Starting %q on %d entities, visibility=%v, sigma=%v, iterations=%d, seed=%d",
			algorithm, len(entities), cfg.Visibility, cfg.Sigma, cfg.Iterations, cfg.Seed)

		startTime := time.Now()
		locations, err := solver.Solve(algorithm, entities, cfg)
		if err != nil {
			logrus.Fatalf("Solver failed: %v", err)
		}

		report, err := sim.Evaluate(entities, locations)
		if err != nil {
			logrus.Fatalf("Unable to evaluate result: %v", err)
		}
		report.Log()
		logrus.Infof("Solved %d agents in %v", report.Agents, time.Since(startTime))

		if outPath != "" {
			if err := WriteLocations(outPath, locations); err != nil {
				logrus.Fatalf("Unable to write %s: %v", outPath, err)
			}
			logrus.Infof("Wrote estimated positions to %s", outPath)
		}
	},
}

// algorithmsCmd lists the registered solvers
var algorithmsCmd = &cobra.Command{
	Use:   "algorithms",
	Short: "List the available localization algorithms",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range solver.Names() {
			cmd.Println(name)
		}
	},
}

// applyScenario overwrites every option the user did not set explicitly on
// the command line with the scenario's value.
func applyScenario(cmd *cobra.Command, sc *Scenario) {
	flags := cmd.Flags()
	if !flags.Changed("file") && sc.File != "" {
		file = sc.File
	}
	if !flags.Changed("algorithm") && sc.Algorithm != "" {
		algorithm = sc.Algorithm
	}
	if !flags.Changed("visibility") && sc.Visibility != 0 {
		visibility = sc.Visibility
	}
	if !flags.Changed("sigma") {
		sigma = sc.Sigma
	}
	if !flags.Changed("sigma-angles") && sc.SigmaAngles != 0 {
		sigmaAngles = sc.SigmaAngles
	}
	if !flags.Changed("iterations") && sc.Iterations != 0 {
		iterations = sc.Iterations
	}
	if !flags.Changed("seed") && sc.Seed != nil {
		seed = *sc.Seed
	}
}

func init() {
	runCmd.Flags().StringVarP(&file, "file", "f", "", "CSV file with the entities to localize")
	runCmd.Flags().StringVarP(&algorithm, "algorithm", "a", "", "localization algorithm to run")
	runCmd.Flags().Float64VarP(&visibility, "visibility", "v", math.Inf(1), "maximum visible distance between nodes")
	runCmd.Flags().Float64VarP(&sigma, "sigma", "s", 0, "standard deviation of the multiplicative distance noise")
	runCmd.Flags().Float64Var(&sigmaAngles, "sigma-angles", 0, "standard deviation of the angle noise")
	runCmd.Flags().IntVarP(&iterations, "iterations", "j", 100, "number of algorithm rounds, when applicable")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "seed for all random streams")
	runCmd.Flags().BoolVar(&parallel, "parallel", false, "execute driver phases with one goroutine per node")
	runCmd.Flags().StringVarP(&outPath, "out", "o", "", "CSV file to write estimated positions to")
	runCmd.Flags().StringVar(&configPath, "config", "", "yaml scenario file")
	runCmd.Flags().StringVar(&scenario, "scenario", "", "scenario name within the config file")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "log verbosity (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(algorithmsCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
