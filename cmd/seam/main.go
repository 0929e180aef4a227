package main

import (
	"fmt"
	"os"

	"github.com/chazu/seam/cmd/seam/commands"
)

const version = "0.3.0"

var commandNames = []string{"run", "demo", "stats", "ids", "fit", "version", "help"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "version", "--version":
		fmt.Printf("seam v%s\n", version)
		return
	case "help", "-h", "--help":
		printUsage()
		return
	case "run":
		err = commands.HandleRun(os.Stdout, args)
	case "demo":
		err = commands.HandleDemo(os.Stdout, args)
	case "stats":
		err = commands.HandleStats(os.Stdout, args)
	case "ids":
		err = commands.HandleIDs(os.Stdout, args)
	case "fit":
		err = commands.HandleFit(os.Stdout, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if s := suggestCommand(command); s != "" {
			fmt.Fprintf(os.Stderr, "Did you mean: %s?\n", s)
		}
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`seam - glue split solids into a conforming assembly

Usage:
  seam <command> [flags] [args]

Commands:
  run       Evaluate a script and write the shape it built
  demo      Split a unit block twice and glue the molds
  stats     Count the entities of a script result or BREP file
  ids       List the TShape records of a BREP file
  fit       Fit a Bezier curve or B-spline surface to samples
  version   Print the version
  help      Print this help

Run 'seam <command> --help' for the flags of a command.
`)
}

// suggestCommand returns the known command closest to input, or "" when
// none is within two edits.
func suggestCommand(input string) string {
	best, bestDist := "", 3
	for _, name := range commandNames {
		if d := levenshtein(input, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
