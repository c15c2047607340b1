// cmd/arcopt/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"arcopt/cmd/arcopt/commands"
)

const VERSION = "0.1.0"

// Build variables, can be set during build with ldflags.
var (
	BuildDate = time.Now().Format("2006-01-02")
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run dispatches cmd, returning the process exit code. Split out from
// main so testscript's RunMain can drive it in-process.
func run(args []string) int {
	if len(args) == 0 {
		showUsage()
		return 0
	}

	cmd := args[0]
	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		showVersion()
	case "demo":
		if err := commands.Demo(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	case "schedule":
		if err := commands.Schedule(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	default:
		fmt.Fprintf(os.Stderr, "arcopt: unknown command %q\n\n", cmd)
		showUsage()
		return 1
	}
	return 0
}

func showUsage() {
	fmt.Println(`arcopt - a compiler middle-end optimization pipeline

Usage:
  arcopt <command> [arguments]

Commands:
  demo        build a synthetic module and run the full pass pipeline
  schedule    print the pass pipeline's execution batches
  version     print version information
  help        print this message`)
}

func showVersion() {
	fmt.Printf("arcopt version %s (built %s, commit %s)\n", VERSION, BuildDate, GitCommit)
}
