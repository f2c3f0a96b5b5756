package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "plan":
		if err := plan(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "simulate":
		if err := simulate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "serve":
		if err := serve(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("cavecrawl version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`cavecrawl - MDP planner for grid cave crawls

Usage:
  cavecrawl <command> [options]

Commands:
  plan       Solve a map and print the policy
  simulate   Run batch episodes against a map
  serve      Start the WebSocket play server
  help       Show this help message
  version    Show version information

Examples:
  # Solve a map and show the policy overlay
  cavecrawl plan cave.txt --skill 4

  # Solve with the classic reward constants and a convergence chart
  cavecrawl plan cave.txt --preset classic --plot convergence.html

  # Run 100 episodes with SQLite logging
  cavecrawl simulate cave.txt --episodes 100 --skill 4 --db runs.db

  # Serve episodes over WebSocket
  cavecrawl serve --addr :8080 --db runs.db

For command-specific help, run:
  cavecrawl <command> --help`)
}
