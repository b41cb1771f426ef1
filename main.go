package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yodhcn/kikoeru-express/internal/cli"
	"github.com/yodhcn/kikoeru-express/internal/config"
	"github.com/yodhcn/kikoeru-express/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// command is the shape shared by every CLI subcommand.
type command interface {
	ParseFlags(args []string) error
	Run(ctx context.Context) error
}

func main() {
	cfg := config.NewConfig()

	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	var cmd command
	switch name {
	case "ingest":
		cmd = cli.NewIngestCommand(cfg)
	case "remove-work":
		cmd = cli.NewRemoveWorkCommand(cfg)
	case "sync-tags":
		cmd = cli.NewSyncTagsCommand(cfg)
	case "create-user":
		cmd = cli.NewCreateUserCommand(cfg)
	case "scan-orphans":
		cmd = cli.NewScanOrphansCommand(cfg)
	case "version":
		fmt.Printf("kikoeru %s (%s)\n", Version, Commit)
		return
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cmd.Run(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve          Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  ingest         Insert or update works from a scraper JSON file\n")
	fmt.Fprintf(os.Stderr, "  remove-work    Remove a work and collect what it leaves unreferenced\n")
	fmt.Fprintf(os.Stderr, "  sync-tags      Apply global tag names and categories from a JSON file\n")
	fmt.Fprintf(os.Stderr, "  create-user    Create an account with a password\n")
	fmt.Fprintf(os.Stderr, "  scan-orphans   Report shared entities that no work references\n")
	fmt.Fprintf(os.Stderr, "  version        Print the build version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
