package cmd

import (
	"fmt"
	"os"
)

const version = "1.0.0"

func Execute(args []string) {
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "validate":
		runValidate(args[1:])
	case "profile":
		runProfile(args[1:])
	case "recommend":
		runRecommend(args[1:])
	case "train":
		runTrain(args[1:])
	case "catalog":
		runCatalog(args[1:])
	case "version", "-v", "--version":
		fmt.Println("raptor " + version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "RAPTOR - RNA-seq analysis pipeline recommender")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  raptor <command> [options]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  validate   Check a count matrix (and optional metadata) for problems")
	fmt.Fprintln(os.Stderr, "  profile    Profile a count matrix and recommend a pipeline")
	fmt.Fprintln(os.Stderr, "  recommend  Recommend a pipeline from counts or a saved profile")
	fmt.Fprintln(os.Stderr, "  train      Train an ML recommender from a benchmark corpus")
	fmt.Fprintln(os.Stderr, "  catalog    List the supported analysis pipelines")
	fmt.Fprintln(os.Stderr, "  version    Print the version")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Run 'raptor <command> -h' for command-specific options.")
}
